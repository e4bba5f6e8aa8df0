package receipt

import (
	"time"

	"github.com/aurahealth/aura-backend/internal/extraction"
	"github.com/aurahealth/aura-backend/internal/health"
)

// Record is a scanned receipt together with its health analysis.
type Record struct {
	ID          string            `json:"id"`
	StoreName   string            `json:"store_name"`
	Date        time.Time         `json:"date"`
	RawText     string            `json:"raw_text"`
	Items       []extraction.Item `json:"items"`
	Analysis    health.Analysis   `json:"analysis"`
	Filename    string            `json:"filename"`
	ContentType string            `json:"content_type"`
	CreatedAt   time.Time         `json:"created_at"`
}

// Subscription is a newsletter signup.
type Subscription struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	UserName     string    `json:"user_name"`
	SubscribedAt time.Time `json:"subscribed_at"`
	Status       string    `json:"status"`
}
