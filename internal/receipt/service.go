package receipt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aurahealth/aura-backend/internal/assistant"
	"github.com/aurahealth/aura-backend/internal/extraction"
	"github.com/aurahealth/aura-backend/internal/health"
	"github.com/aurahealth/aura-backend/internal/mail"
	"github.com/aurahealth/aura-backend/internal/scanning"
)

// ErrRateLimited is returned when the scan rate limit has been exhausted.
var ErrRateLimited = errors.New("rate limit exceeded")

// ErrAlreadySubscribed is returned when an email is already on the newsletter.
var ErrAlreadySubscribed = errors.New("email already subscribed")

// IDGenerator generates unique IDs for records
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// RateLimiter gates receipt scans
type RateLimiter interface {
	Allow() (bool, time.Duration)
}

// defaultIDGenerator generates random UUIDs
type defaultIDGenerator struct{}

func (g *defaultIDGenerator) Generate() string {
	return uuid.NewString()
}

// defaultTimeSource provides the current time
type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Service handles receipt analysis operations
type Service struct {
	db          DB
	scanner     scanning.Scanner
	storage     Storage
	assistant   assistant.Assistant
	mailer      mail.Mailer
	limiter     RateLimiter
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewService creates a new Service with default ID generator and time source.
// The assistant, mailer and limiter are optional; pass nil to disable the
// corresponding feature.
func NewService(db DB, scanner scanning.Scanner, storage Storage, chat assistant.Assistant, mailer mail.Mailer, limiter RateLimiter) *Service {
	return &Service{
		db:          db,
		scanner:     scanner,
		storage:     storage,
		assistant:   chat,
		mailer:      mailer,
		limiter:     limiter,
		idGenerator: &defaultIDGenerator{},
		timeSource:  &defaultTimeSource{},
	}
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(db DB, scanner scanning.Scanner, storage Storage, chat assistant.Assistant, mailer mail.Mailer, limiter RateLimiter, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		db:          db,
		scanner:     scanner,
		storage:     storage,
		assistant:   chat,
		mailer:      mailer,
		limiter:     limiter,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

// ProcessReceipt uploads a receipt image, scans it, runs the health analysis
// and saves the resulting record.
func (s *Service) ProcessReceipt(filename string, data []byte, contentType string) (*Record, error) {
	if s.limiter != nil {
		if ok, wait := s.limiter.Allow(); !ok {
			return nil, fmt.Errorf("%w: try again in %s", ErrRateLimited, wait.Round(time.Second))
		}
	}

	id := s.idGenerator.Generate()
	now := s.timeSource.Now()

	savedPath, err := s.storage.Save(id, filename, data)
	if err != nil {
		return nil, fmt.Errorf("saving file: %w", err)
	}

	result, err := s.scanner.Scan(data, contentType)
	if err != nil {
		slog.Error("Failed to scan receipt",
			"filename", filename,
			"content_type", contentType,
			"file_size", len(data),
			"error", err,
		)
		// Clean up the saved file since scanning failed
		s.storage.Delete(savedPath)
		return nil, fmt.Errorf("scanning receipt: %w", err)
	}

	// The vision model sometimes returns raw text without structured items.
	// Fall back to line-based extraction so a receipt never analyzes empty.
	items := result.Items
	if len(items) == 0 {
		items = extraction.ExtractItems(result.RawText)
	}

	analysis := health.Analyze(items)

	record := &Record{
		ID:          id,
		StoreName:   result.StoreName,
		Date:        now,
		RawText:     result.RawText,
		Items:       items,
		Analysis:    analysis,
		Filename:    savedPath,
		ContentType: contentType,
		CreatedAt:   now,
	}

	if err := s.db.SaveRecord(record); err != nil {
		// Clean up file if database save fails
		s.storage.Delete(savedPath)
		return nil, fmt.Errorf("saving record to database: %w", err)
	}

	return record, nil
}

// AnalyzeText runs line extraction and health analysis over raw receipt text
// without touching the scanner or storage.
func (s *Service) AnalyzeText(rawText string) ([]extraction.Item, health.Analysis) {
	items := extraction.ExtractItems(rawText)
	return items, health.Analyze(items)
}

// GetRecord retrieves an analyzed receipt by ID
func (s *Service) GetRecord(id string) (*Record, error) {
	record, err := s.db.GetRecord(id)
	if err != nil {
		return nil, fmt.Errorf("getting record: %w", err)
	}
	return record, nil
}

// ListRecords returns all analyzed receipts, newest first
func (s *Service) ListRecords() ([]*Record, error) {
	records, err := s.db.ListRecords()
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}
	return records, nil
}

// DeleteRecord removes an analyzed receipt and its file
func (s *Service) DeleteRecord(id string) error {
	record, err := s.db.GetRecord(id)
	if err != nil {
		return fmt.Errorf("getting record for deletion: %w", err)
	}

	if err := s.storage.Delete(record.Filename); err != nil {
		// Log error but continue with database deletion
		slog.Warn("Failed to delete file", "filename", record.Filename, "error", err)
	}

	if err := s.db.DeleteRecord(id); err != nil {
		return fmt.Errorf("deleting record from database: %w", err)
	}
	return nil
}

// GetRecordFile retrieves the stored file data for a record
func (s *Service) GetRecordFile(id string) ([]byte, string, error) {
	record, err := s.db.GetRecord(id)
	if err != nil {
		return nil, "", fmt.Errorf("getting record: %w", err)
	}

	data, err := s.storage.Get(record.Filename)
	if err != nil {
		return nil, "", fmt.Errorf("getting record file: %w", err)
	}

	return data, record.ContentType, nil
}

// recentContextLimit bounds how many receipts the assistant sees.
const recentContextLimit = 3

// Chat answers a conversation with the health assistant, grounding it on the
// most recent analyzed receipts.
func (s *Service) Chat(ctx context.Context, messages []assistant.Message) (string, error) {
	if s.assistant == nil {
		return "", fmt.Errorf("assistant is not configured")
	}
	if len(messages) == 0 {
		return "", fmt.Errorf("at least one message is required")
	}

	records, err := s.db.ListRecords()
	if err != nil {
		return "", fmt.Errorf("listing records for chat context: %w", err)
	}
	if len(records) > recentContextLimit {
		records = records[:recentContextLimit]
	}

	receipts := make([]assistant.ReceiptContext, 0, len(records))
	for _, record := range records {
		receipts = append(receipts, assistant.ReceiptContext{
			StoreName:   record.StoreName,
			Items:       record.Items,
			Score:       record.Analysis.Score,
			Warnings:    record.Analysis.Warnings,
			Suggestions: record.Analysis.Suggestions,
			RawText:     record.RawText,
		})
	}

	reply, err := s.assistant.Chat(ctx, messages, receipts)
	if err != nil {
		return "", fmt.Errorf("assistant chat: %w", err)
	}
	return reply, nil
}

// Subscribe adds an email to the newsletter and sends a welcome email.
func (s *Service) Subscribe(ctx context.Context, email, userName string) (*Subscription, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("a valid email address is required")
	}

	if existing, err := s.db.GetSubscriptionByEmail(email); err == nil && existing != nil {
		return nil, fmt.Errorf("%w: %s", ErrAlreadySubscribed, email)
	}

	sub := &Subscription{
		ID:           s.idGenerator.Generate(),
		Email:        email,
		UserName:     strings.TrimSpace(userName),
		SubscribedAt: s.timeSource.Now(),
		Status:       "active",
	}

	if err := s.db.SaveSubscription(sub); err != nil {
		return nil, fmt.Errorf("saving subscription: %w", err)
	}

	// Welcome email is best effort; the subscription already succeeded.
	if s.mailer != nil {
		html, err := mail.RenderWelcome(sub.UserName)
		if err == nil {
			err = s.mailer.Send(ctx, sub.Email, "Welcome to Aura Health! 🌟", html)
		}
		if err != nil {
			slog.Warn("Failed to send welcome email", "email", sub.Email, "error", err)
		}
	}

	return sub, nil
}

// ListSubscriptions returns all newsletter subscriptions
func (s *Service) ListSubscriptions() ([]*Subscription, error) {
	subs, err := s.db.ListSubscriptions()
	if err != nil {
		return nil, fmt.Errorf("listing subscriptions: %w", err)
	}
	return subs, nil
}

// SendMonthlyReport renders and sends a monthly health report email.
func (s *Service) SendMonthlyReport(ctx context.Context, to string, report mail.MonthlyReport) error {
	if s.mailer == nil {
		return fmt.Errorf("mailer is not configured")
	}
	if to == "" {
		return fmt.Errorf("a recipient email is required")
	}

	html, err := mail.RenderMonthlyReport(report)
	if err != nil {
		return err
	}

	subject := fmt.Sprintf("Your %s %d Health Report 📊", report.Month, report.Year)
	if err := s.mailer.Send(ctx, to, subject, html); err != nil {
		return fmt.Errorf("sending monthly report: %w", err)
	}
	return nil
}

// Status reports which optional integrations are wired up.
func (s *Service) Status() map[string]any {
	return map[string]any{
		"status":            "healthy",
		"service":           "aura-backend",
		"assistant_enabled": s.assistant != nil,
		"mailer_enabled":    s.mailer != nil,
	}
}
