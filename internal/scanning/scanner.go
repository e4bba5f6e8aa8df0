package scanning

import "github.com/aurahealth/aura-backend/internal/extraction"

// ScanResult contains everything a provider extracted from a receipt image.
// Items may be empty when the model could read text but not identify
// purchases; callers fall back to local line-item extraction over RawText.
type ScanResult struct {
	StoreName string            `json:"store_name"`
	RawText   string            `json:"raw_text"`
	Items     []extraction.Item `json:"items"`
}

// Scanner defines the interface for AI receipt scanning providers
type Scanner interface {
	// Scan analyzes a receipt image/PDF and extracts its text and items
	Scan(imageData []byte, contentType string) (*ScanResult, error)
	// Close closes the scanner and releases resources
	Close() error
}

// receiptScanPrompt is the shared prompt used by all providers for scanning
// receipts.
const receiptScanPrompt = `You are a nutrition and ingredients analyst reading a photographed retail receipt.
Carefully read all text in the image and return ONLY valid JSON in this exact format:
{
  "store_name": "The store or merchant name from the top of the receipt",
  "raw_text": "ALL text from the receipt exactly as it appears, one line per receipt line",
  "items": [
    {
      "name": "Exact item name as shown on the receipt",
      "price": 0.00,
      "quantity": 1,
      "category": "fruits|vegetables|dairy|meat|bakery|beverages|nuts|snacks|general"
    }
  ]
}
Rules:
- Ground every item in the receipt text. Do NOT invent items.
- price must be a number (not a string) in dollars and cents.
- quantity must be a whole number, 1 when not printed.
- category must be one of the listed values; use "general" when unsure.
- Skip totals, subtotals, tax, discounts and payment lines.
- Do not include any text before or after the JSON.
- Do not use markdown code blocks.`
