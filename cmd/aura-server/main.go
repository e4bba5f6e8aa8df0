package main

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/aurahealth/aura-backend/internal/assistant"
	"github.com/aurahealth/aura-backend/internal/mail"
	"github.com/aurahealth/aura-backend/internal/ratelimit"
	"github.com/aurahealth/aura-backend/internal/receipt"
	"github.com/aurahealth/aura-backend/internal/scanning"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	// A local .env is optional
	_ = godotenv.Load()

	fs := ff.NewFlagSet("aura-server")
	var (
		port            = fs.IntLong("port", 8000, "HTTP server port")
		dbPath          = fs.StringLong("db", "aura.db", "Database file path")
		storagePath     = fs.StringLong("storage", "./receipts", "Storage directory path")
		scannerType     = fs.StringLong("scanner", "gemini", "Scanner type: 'gemini' or 'ollama'")
		geminiKey       = fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
		geminiModel     = fs.StringLong("gemini-model", "gemini-2.0-flash", "Google Gemini model name")
		ollamaURL       = fs.StringLong("ollama-url", "http://localhost:11434", "Ollama API base URL")
		ollamaModel     = fs.StringLong("ollama-model", "llava", "Ollama model name (e.g., llava, llava-phi3, bakllava)")
		assistantType   = fs.StringLong("assistant", "gemini", "Assistant backend: 'gemini', 'openrouter' or 'none'")
		openRouterKey   = fs.StringLong("openrouter-key", "", "OpenRouter API key (or set OPENROUTER_API_KEY env var)")
		openRouterModel = fs.StringLong("openrouter-model", "anthropic/claude-3.5-sonnet", "OpenRouter model name")
		resendKey       = fs.StringLong("resend-key", "", "Resend API key for newsletter email (or set RESEND_API_KEY env var)")
		mailFrom        = fs.StringLong("mail-from", "Aura Health <hello@tryaura.health>", "From address for outgoing email")
		authUser        = fs.StringLong("auth-user", "", "Basic auth username (optional)")
		authPass        = fs.StringLong("auth-pass", "", "Basic auth password (optional)")
		rateLimit       = fs.IntLong("rate-limit", 10, "Max receipt scans per window")
		rateWindow      = fs.DurationLong("rate-window", time.Minute, "Rate limit window")
		showVersion     = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("AURA"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Check version flag after parsing
	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	// Initialize database
	slog.Info("Initializing database...")
	db, err := receipt.NewBoltDB(*dbPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Gemini key is shared by the scanner and the assistant
	apiKey := *geminiKey
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}

	// Initialize scanner based on type
	var scanner scanning.Scanner
	switch *scannerType {
	case "gemini":
		if apiKey == "" {
			slog.Error("Gemini API key is required. Set --gemini-key flag or GEMINI_API_KEY environment variable")
			os.Exit(1)
		}
		slog.Info("Initializing Gemini scanner...", "model", *geminiModel)
		scanner, err = scanning.NewGemini(apiKey, *geminiModel)
		if err != nil {
			slog.Error("Failed to initialize Gemini", "error", err)
			os.Exit(1)
		}
	case "ollama":
		slog.Info("Initializing Ollama scanner...", "url", *ollamaURL, "model", *ollamaModel)
		scanner, err = scanning.NewOllama(*ollamaURL, *ollamaModel)
		if err != nil {
			slog.Error("Failed to initialize Ollama", "error", err)
			os.Exit(1)
		}
	default:
		slog.Error("Invalid scanner type", "type", *scannerType, "valid", "gemini or ollama")
		os.Exit(1)
	}
	defer scanner.Close()

	// Initialize the chat assistant
	var chat assistant.Assistant
	switch *assistantType {
	case "gemini":
		if apiKey == "" {
			slog.Error("Gemini API key is required for the Gemini assistant")
			os.Exit(1)
		}
		slog.Info("Initializing Gemini assistant...", "model", *geminiModel)
		chat, err = assistant.NewGemini(apiKey, *geminiModel)
		if err != nil {
			slog.Error("Failed to initialize Gemini assistant", "error", err)
			os.Exit(1)
		}
	case "openrouter":
		key := *openRouterKey
		if key == "" {
			key = os.Getenv("OPENROUTER_API_KEY")
		}
		if key == "" {
			slog.Error("OpenRouter API key is required. Set --openrouter-key flag or OPENROUTER_API_KEY environment variable")
			os.Exit(1)
		}
		slog.Info("Initializing OpenRouter assistant...", "model", *openRouterModel)
		chat, err = assistant.NewOpenRouter(key, *openRouterModel)
		if err != nil {
			slog.Error("Failed to initialize OpenRouter assistant", "error", err)
			os.Exit(1)
		}
	case "none":
		slog.Info("Assistant disabled")
	default:
		slog.Error("Invalid assistant type", "type", *assistantType, "valid", "gemini, openrouter or none")
		os.Exit(1)
	}
	if chat != nil {
		defer chat.Close()
	}

	// Newsletter email is optional
	var mailer mail.Mailer
	key := *resendKey
	if key == "" {
		key = os.Getenv("RESEND_API_KEY")
	}
	if key != "" {
		slog.Info("Initializing Resend mailer...")
		mailer, err = mail.NewResend(key, *mailFrom)
		if err != nil {
			slog.Error("Failed to initialize Resend", "error", err)
			os.Exit(1)
		}
	} else {
		slog.Info("Mailer disabled, newsletter email will not be sent")
	}

	// Initialize storage
	slog.Info("Initializing storage...")
	store, err := receipt.NewLocalStorage(*storagePath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}

	limiter := ratelimit.New(*rateLimit, *rateWindow)

	// Initialize service
	service := receipt.NewService(db, scanner, store, chat, mailer, limiter)

	// Initialize server
	basicAuth := receipt.BasicAuth{
		Username: *authUser,
		Password: *authPass,
	}
	server := receipt.NewServer(service, basicAuth)

	// Start server in goroutine
	addr := fmt.Sprintf(":%d", *port)
	go func() {
		if err := server.Start(addr); err != nil {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", addr))
	if *authUser != "" || *authPass != "" {
		slog.Info("Basic auth enabled", "user", *authUser)
	}

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("Shutting down...")
}
