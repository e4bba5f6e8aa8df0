package assistant

import (
	"context"

	"github.com/aurahealth/aura-backend/internal/extraction"
)

// Message is one turn of a chat conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ReceiptContext summarizes one analyzed receipt so the assistant can ground
// its answers in what the user actually bought.
type ReceiptContext struct {
	StoreName   string
	Items       []extraction.Item
	Score       int
	Warnings    []string
	Suggestions []string
	RawText     string
}

// Assistant defines the interface for conversational AI providers
type Assistant interface {
	// Chat answers the conversation, optionally grounded in recent receipts
	Chat(ctx context.Context, messages []Message, receipts []ReceiptContext) (string, error)
	// Close closes the assistant and releases resources
	Close() error
}
