package assistant

import (
	"fmt"
	"strings"
)

// rawTextPreviewLen caps how much raw OCR text goes into the prompt per
// receipt; full receipts would crowd out the conversation.
const rawTextPreviewLen = 200

const systemPrompt = `You are Astrea, an AI health assistant specialized in food safety, drug interactions, and dietary analysis.

Your expertise includes:
- Drug-food interactions and medication safety
- Allergen detection and food safety
- Dietary recommendations based on health conditions
- Receipt analysis for health insights
- General nutrition and wellness advice

Always prioritize user safety and recommend consulting healthcare professionals for medical advice.
Be helpful, accurate, and empathetic in your responses.`

// buildSystemPrompt renders the assistant persona plus a context block for
// each recent receipt.
func buildSystemPrompt(receipts []ReceiptContext) string {
	var b strings.Builder
	b.WriteString(systemPrompt)

	if len(receipts) == 0 {
		return b.String()
	}

	b.WriteString("\n\nRecent Receipt Analysis Context (from real OCR data):\n")
	for i, receipt := range receipts {
		fmt.Fprintf(&b, "Receipt %d:\n", i+1)
		fmt.Fprintf(&b, "- Health Score: %d%%\n", receipt.Score)
		fmt.Fprintf(&b, "- Store: %s\n", receipt.StoreName)
		fmt.Fprintf(&b, "- Items (%d):\n", len(receipt.Items))
		for _, item := range receipt.Items {
			fmt.Fprintf(&b, "  • %s ($%s) - %s\n", item.Name, item.Price.StringFixed(2), item.Category)
		}
		fmt.Fprintf(&b, "- Warnings: %s\n", strings.Join(receipt.Warnings, "; "))
		fmt.Fprintf(&b, "- Suggestions: %s\n", strings.Join(receipt.Suggestions, "; "))
		fmt.Fprintf(&b, "- Raw OCR Text: %s\n\n", previewText(receipt.RawText))
	}

	return b.String()
}

func previewText(text string) string {
	runes := []rune(text)
	if len(runes) <= rawTextPreviewLen {
		return text
	}
	return string(runes[:rawTextPreviewLen]) + "..."
}
