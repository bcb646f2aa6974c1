package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	PriceListPath string
	DBPath        string
	OutputDir     string
	IntakeDir     string

	HTTPAddr             string
	SearchDefaultLimit   int
	ReloadMinIntervalSec int

	HeaderScanRows  int
	KeywordScanRows int
	NameKeyMaxLen   int

	LogLevel  string
	LogFormat string

	ListenerIntervalSec int
	ListenerMailEnabled bool

	MailProvider      string
	MailLabel         string
	MailSubjectFilter string
	MailFetchMax      int

	GmailClientID     string
	GmailClientSecret string
	GmailRedirectURI  string
	GmailRefreshToken string

	IMAPHost     string
	IMAPPort     int
	IMAPSecure   bool
	IMAPUser     string
	IMAPPassword string
	IMAPMarkSeen bool
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		PriceListPath: getEnv("PRICELIST_PATH", filepath.Join(cwd, "data", "prislista.xlsx")),
		DBPath:        getEnv("DB_PATH", filepath.Join(cwd, "data", "catalog.db")),
		OutputDir:     getEnv("OUTPUT_DIR", filepath.Join(cwd, "out")),
		IntakeDir:     getEnv("INTAKE_DIR", filepath.Join(cwd, "data", "intake")),

		HTTPAddr:             getEnv("HTTP_ADDR", ":8080"),
		SearchDefaultLimit:   getEnvInt("SEARCH_DEFAULT_LIMIT", 20),
		ReloadMinIntervalSec: getEnvInt("RELOAD_MIN_INTERVAL_SEC", 5),

		HeaderScanRows:  getEnvInt("HEADER_SCAN_ROWS", 12),
		KeywordScanRows: getEnvInt("KEYWORD_SCAN_ROWS", 40),
		NameKeyMaxLen:   getEnvInt("NAME_KEY_MAX_LEN", 60),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		ListenerIntervalSec: getEnvInt("LISTENER_INTERVAL_SEC", 60),
		ListenerMailEnabled: getEnvBool("LISTENER_MAIL_ENABLED", false),

		MailProvider:      getEnv("MAIL_PROVIDER", "imap"),
		MailLabel:         getEnv("MAIL_LABEL", "INBOX"),
		MailSubjectFilter: getEnv("MAIL_SUBJECT_FILTER", "prislista"),
		MailFetchMax:      getEnvInt("MAIL_FETCH_MAX", 20),

		GmailClientID:     getEnv("GMAIL_CLIENT_ID", ""),
		GmailClientSecret: getEnv("GMAIL_CLIENT_SECRET", ""),
		GmailRedirectURI:  getEnv("GMAIL_REDIRECT_URI", "https://developers.google.com/oauthplayground"),
		GmailRefreshToken: getEnv("GMAIL_REFRESH_TOKEN", ""),

		IMAPHost:     getEnv("IMAP_HOST", ""),
		IMAPPort:     getEnvInt("IMAP_PORT", 993),
		IMAPSecure:   getEnvBool("IMAP_SECURE", true),
		IMAPUser:     getEnv("IMAP_USER", ""),
		IMAPPassword: getEnv("IMAP_PASSWORD", ""),
		IMAPMarkSeen: getEnvBool("IMAP_MARK_SEEN", true),
	}

	if cfg.HeaderScanRows < 0 || cfg.KeywordScanRows < 0 {
		return Config{}, fmt.Errorf("scan row windows must be non-negative")
	}
	if cfg.NameKeyMaxLen <= 0 {
		cfg.NameKeyMaxLen = 60
	}

	return cfg, nil
}

func (c Config) Require(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("missing required env var: %s", name)
	}
	return nil
}

// NewLogger builds the process logger from LOG_LEVEL and LOG_FORMAT.
func (c Config) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(c.LogLevel)}
	if strings.EqualFold(strings.TrimSpace(c.LogFormat), "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(value string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(key, "")))
	if value == "" {
		return fallback
	}
	if value == "1" || value == "true" || value == "yes" || value == "on" {
		return true
	}
	if value == "0" || value == "false" || value == "no" || value == "off" {
		return false
	}
	return fallback
}
