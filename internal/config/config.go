package config

import (
	"os"
	"strings"
	"time"
)

type Config struct {
	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// School billing API
	BillingBaseURL string
	BillingAPIKey  string
	BillingTimeout time.Duration

	// Twilio WhatsApp channel
	TwilioAccountSID   string
	TwilioAuthToken    string
	TwilioWhatsAppFrom string
	DefaultCountryCode string

	// Artifact storage
	S3Bucket string
	S3Region string
	TempDir  string

	// Public base URL for verify links and delivery-status callbacks
	PublicBaseURL string

	// School identity printed on gate passes
	SchoolName string

	// Billing terms
	CurrentTerm  string
	TermEndDates map[string]time.Time

	// Scheduled sweeps (cron specs)
	ProfileSyncCron  string
	ReminderCron     string
	PaymentSweepCron string

	// Admin
	AdminToken string

	// Server
	Port        string
	CORSOrigins string
}

func Load() *Config {
	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "gatepass_db"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		BillingBaseURL: getEnv("BILLING_API_BASE_URL", ""),
		BillingAPIKey:  getEnv("BILLING_API_KEY", ""),
		BillingTimeout: parseDuration(getEnv("BILLING_TIMEOUT", "10s")),

		TwilioAccountSID:   getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:    getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioWhatsAppFrom: getEnv("TWILIO_WHATSAPP_NUMBER", ""),
		DefaultCountryCode: getEnv("DEFAULT_COUNTRY_CODE", "263"),

		S3Bucket: getEnv("S3_BUCKET", "shining-smiles-gatepasses"),
		S3Region: getEnv("S3_REGION", "us-east-1"),
		TempDir:  getEnv("TEMP_DIR", "temp"),

		PublicBaseURL: getEnv("PUBLIC_BASE_URL", "http://localhost:8080"),

		SchoolName: getEnv("SCHOOL_NAME", "SHINING SMILES GROUP OF SCHOOLS"),

		CurrentTerm:  getEnv("CURRENT_TERM", "2025-1"),
		TermEndDates: parseTermEndDates(getEnv("TERM_END_DATES", "2025-1=2025-03-31,2025-2=2025-07-31,2025-3=2025-11-30")),

		ProfileSyncCron:  getEnv("PROFILE_SYNC_CRON", "0 2 * * *"),
		ReminderCron:     getEnv("REMINDER_CRON", "0 9 * * 1"),
		PaymentSweepCron: getEnv("PAYMENT_SWEEP_CRON", "0 8 * * *"),

		AdminToken: getEnv("ADMIN_TOKEN", ""),

		Port:        getEnv("PORT", "8080"),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),
	}
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

// TermEnd returns the fixed end date for a billing term. Unknown terms fall
// back to the current term's end date.
func (c *Config) TermEnd(term string) time.Time {
	if end, ok := c.TermEndDates[term]; ok {
		return end
	}
	return c.TermEndDates[c.CurrentTerm]
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// parseTermEndDates parses "term=YYYY-MM-DD" pairs separated by commas.
// Malformed pairs are skipped.
func parseTermEndDates(s string) map[string]time.Time {
	out := make(map[string]time.Time)
	for _, pair := range strings.Split(s, ",") {
		parts := strings.SplitN(strings.TrimSpace(pair), "=", 2)
		if len(parts) != 2 {
			continue
		}
		end, err := time.Parse("2006-01-02", parts[1])
		if err != nil {
			continue
		}
		// End of day UTC so a pass stays valid through the term's last day.
		out[parts[0]] = end.Add(24*time.Hour - time.Second)
	}
	return out
}
