package scanning

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/aurahealth/aura-backend/internal/extraction"
)

// scanWire mirrors the JSON schema the models are prompted to return. Prices
// arrive as floats and categories as free-form strings; both are normalized
// before they reach the rest of the system.
type scanWire struct {
	StoreName string `json:"store_name"`
	RawText   string `json:"raw_text"`
	Items     []struct {
		Name     string  `json:"name"`
		Price    float64 `json:"price"`
		Quantity int     `json:"quantity"`
		Category string  `json:"category"`
	} `json:"items"`
}

// parseScanJSON parses the JSON response from a vision model into a
// ScanResult, tolerating markdown code fences and surrounding prose.
func parseScanJSON(text string) (*ScanResult, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSpace(text)

	// Keep only the outermost JSON object.
	startIdx := strings.Index(text, "{")
	if startIdx == -1 {
		return nil, fmt.Errorf("no JSON object found in response")
	}
	endIdx := strings.LastIndex(text, "}")
	if endIdx == -1 || endIdx < startIdx {
		return nil, fmt.Errorf("invalid JSON object in response")
	}
	text = text[startIdx : endIdx+1]

	var wire scanWire
	if err := json.Unmarshal([]byte(text), &wire); err != nil {
		return nil, fmt.Errorf("unmarshaling json: %w", err)
	}

	result := &ScanResult{
		StoreName: strings.TrimSpace(wire.StoreName),
		RawText:   wire.RawText,
		Items:     make([]extraction.Item, 0, len(wire.Items)),
	}
	if result.StoreName == "" {
		result.StoreName = "Unknown Store"
	}

	for _, raw := range wire.Items {
		name := strings.TrimSpace(raw.Name)
		if name == "" {
			continue
		}
		quantity := raw.Quantity
		if quantity < 1 {
			quantity = 1
		}
		price := decimal.NewFromFloat(raw.Price).Round(2)
		if price.IsNegative() {
			price = decimal.Zero
		}
		result.Items = append(result.Items, extraction.Item{
			Name:     name,
			Price:    price,
			Quantity: quantity,
			Category: extraction.ParseCategory(raw.Category),
		})
	}

	return result, nil
}
