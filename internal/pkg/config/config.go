package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// -----------------------------------------------------------------------------
// Environment variable configuration guidelines:
// - required: Values that differ between environments (port, credentials, calendar ID, etc.)
// - default: Values common across all environments (timezone, timeout, endpoints, etc.)
// -----------------------------------------------------------------------------

type Config struct {
	Server      ServerConfig
	DB          DBConfig
	CORS        CORSConfig
	Log         LogConfig
	Trigger     TriggerConfig
	Auth        AuthConfig
	Calendar    CalendarConfig
	Notify      NotifyConfig
	Email       EmailConfig
	Pipeline    PipelineConfig
	Idempotency IdempotencyConfig
}

type ServerConfig struct {
	Port string `envconfig:"PORT" required:"true"`
}

// Postgres backs the duplicate-trigger guard and the notification log.
// Neither is available when Enabled is false.
type DBConfig struct {
	Enabled  bool   `envconfig:"DB_ENABLED" default:"false"`
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER"`
	Password string `envconfig:"DB_PASSWORD"`
	DBName   string `envconfig:"DB_NAME" default:"delivery_scheduler"`
	SSLMode  string `envconfig:"DB_SSL_MODE" default:"disable"`
	TimeZone string `envconfig:"DB_TIMEZONE" default:"America/New_York"`
}

type CORSConfig struct {
	AllowOrigins     []string      `envconfig:"CORS_ALLOW_ORIGINS" default:"http://localhost:3000,http://localhost:8080"`
	AllowMethods     []string      `envconfig:"CORS_ALLOW_METHODS" default:"GET,POST,OPTIONS"`
	AllowHeaders     []string      `envconfig:"CORS_ALLOW_HEADERS" default:"Origin,Content-Type,Accept,Authorization"`
	ExposeHeaders    []string      `envconfig:"CORS_EXPOSE_HEADERS" default:"Content-Length"`
	AllowCredentials bool          `envconfig:"CORS_ALLOW_CREDENTIALS" default:"false"`
	MaxAge           time.Duration `envconfig:"CORS_MAX_AGE" default:"12h"`
}

type LogConfig struct {
	Level          string `envconfig:"LOG_LEVEL" default:"info"`
	TimeZone       string `envconfig:"LOG_TIMEZONE" default:"America/New_York"`
	TimeFormat     string `envconfig:"LOG_TIME_FORMAT" default:"2006-01-02 15:04:05.000"`
	TimeZoneOffset int    `envconfig:"LOG_TIMEZONE_OFFSET" default:"-18000"` // -5*60*60
}

// Empty token disables the bearer check on the trigger endpoint.
type TriggerConfig struct {
	Token string `envconfig:"TRIGGER_TOKEN"`
}

type AuthConfig struct {
	ServiceAccount    string        `envconfig:"SERVICE_ACCOUNT" required:"true"`
	PrivateKey        string        `envconfig:"PRIVATE_KEY" required:"true"`
	KeyID             string        `envconfig:"KID" required:"true"`
	TokenURI          string        `envconfig:"AUTH_TOKEN_URI" default:"https://www.googleapis.com/oauth2/v4/token"`
	Scope             string        `envconfig:"AUTH_SCOPE" default:"https://www.googleapis.com/auth/calendar"`
	AssertionLifetime time.Duration `envconfig:"AUTH_ASSERTION_LIFETIME" default:"59m"`
}

type CalendarConfig struct {
	ID       string `envconfig:"CALENDAR_ID" required:"true"`
	BaseURL  string `envconfig:"CALENDAR_BASE_URL" default:"https://www.googleapis.com/calendar/v3"`
	TimeZone string `envconfig:"CALENDAR_TIMEZONE" default:"America/New_York"`
}

type NotifyConfig struct {
	RedisAddr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
	Topic         string `envconfig:"NOTIFY_TOPIC" required:"true"`
}

type EmailConfig struct {
	SMTPHost     string `envconfig:"SMTP_HOST" default:"localhost"`
	SMTPPort     int    `envconfig:"SMTP_PORT" default:"587"`
	SMTPUser     string `envconfig:"SMTP_USER"`
	SMTPPassword string `envconfig:"SMTP_PASSWORD"`
	From         string `envconfig:"EMAIL_FROM" required:"true"`
	Bcc          string `envconfig:"EMAIL_BCC"`
	Subject      string `envconfig:"EMAIL_SUBJECT" default:"Your delivery window is confirmed"`
}

type PipelineConfig struct {
	WindowLengthHours int           `envconfig:"WINDOW_LENGTH_HOURS" default:"2"`
	CallTimeout       time.Duration `envconfig:"PIPELINE_CALL_TIMEOUT" default:"10s"`
}

// The guard only takes effect when DB.Enabled is set.
type IdempotencyConfig struct {
	Enabled bool          `envconfig:"IDEMPOTENCY_ENABLED" default:"true"`
	TTL     time.Duration `envconfig:"IDEMPOTENCY_TTL" default:"24h"`
}

func (c *DBConfig) BuildDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s&timezone=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode, c.TimeZone,
	)
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("failed to process env config: %w", err)
	}
	if cfg.Pipeline.WindowLengthHours <= 0 {
		return Config{}, fmt.Errorf("WINDOW_LENGTH_HOURS must be positive, got %d", cfg.Pipeline.WindowLengthHours)
	}
	return cfg, nil
}

func NewTestConfig() Config {
	return Config{
		Server: ServerConfig{
			Port: "8889", // Test port
		},
		DB: DBConfig{
			Host:     "localhost",
			Port:     "15433", // Test DB port
			User:     "test",
			Password: "test",
			DBName:   "test_db",
			SSLMode:  "disable",
			TimeZone: "America/New_York",
		},
		Log: LogConfig{
			Level:          "error", // Error level only for tests
			TimeZone:       "America/New_York",
			TimeFormat:     "2006-01-02 15:04:05.000",
			TimeZoneOffset: -18000,
		},
		Auth: AuthConfig{
			ServiceAccount:    "scheduler@test-project.iam.gserviceaccount.com",
			KeyID:             "test-kid",
			TokenURI:          "http://localhost/token",
			Scope:             "https://www.googleapis.com/auth/calendar",
			AssertionLifetime: 59 * time.Minute,
		},
		Calendar: CalendarConfig{
			ID:       "deliveries@group.calendar.google.com",
			BaseURL:  "http://localhost/calendar/v3",
			TimeZone: "America/New_York",
		},
		Notify: NotifyConfig{
			RedisAddr: "localhost:6379",
			Topic:     "deliveries.scheduled",
		},
		Email: EmailConfig{
			SMTPHost: "localhost",
			SMTPPort: 2525,
			From:     "dispatch@example.com",
			Bcc:      "ops@example.com",
			Subject:  "Your delivery window is confirmed",
		},
		Pipeline: PipelineConfig{
			WindowLengthHours: 2,
			CallTimeout:       5 * time.Second,
		},
		Idempotency: IdempotencyConfig{
			Enabled: true,
			TTL:     24 * time.Hour,
		},
	}
}
