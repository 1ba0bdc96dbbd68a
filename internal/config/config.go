package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/genesisthayy-cmyk/PROYECTO-MEDUCA/internal/domain"
)

// Store backends.
const (
	BackendPostgres  = "postgres"
	BackendFirestore = "firestore"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Store        StoreConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Firestore    FirestoreConfig
	Blob         BlobConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Tickets      TicketsConfig
	Live         LiveConfig
	UI           UIConfig
	Notification NotificationConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
	BodyLimitMB           int
}

// StoreConfig selects the document store holding tickets and users.
type StoreConfig struct {
	Backend string
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	MigrationsDir  string
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// FirestoreConfig names the project and collections used by the firestore backend.
type FirestoreConfig struct {
	ProjectID          string
	TicketsCollection  string
	UsersCollection    string
	CountersCollection string
}

// BlobConfig configures attachment storage.
type BlobConfig struct {
	Bucket        string
	PublicBaseURL string
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret               string
	AccessTokenTTLMinutes   int
	PasswordResetTTLMinutes int
	BcryptCost              int
	AllowSupportSignup      bool
}

// TicketsConfig holds the ticket catalog and submission limits.
type TicketsConfig struct {
	MaxAttachments    int
	UploadConcurrency int
	NumberPrefix      string
	Technicians       []string
	ProblemTypes      []string
	Departments       []string
	ChangeChannel     string
}

// LiveConfig tunes the live observation streams.
type LiveConfig struct {
	KeepAliveSeconds int
	RetrySeconds     int
}

// UIConfig carries user preference defaults.
type UIConfig struct {
	DefaultDarkMode bool
}

// NotificationConfig holds stub notification endpoints.
type NotificationConfig struct {
	EmailFrom  string
	WebhookURL string
	// ResetURL is the page that accepts a reset token; the token is appended as ?token=.
	ResetURL string
	SMTP     SMTPConfig
}

// SMTPConfig points at the outgoing mail server. An empty Host keeps email log-only.
type SMTPConfig struct {
	Host       string
	Port       int
	User       string
	Password   string
	AuthType   string
	TLS        bool
	SkipVerify bool
}

// Enabled reports whether a mail server is configured.
func (s SMTPConfig) Enabled() bool {
	return strings.TrimSpace(s.Host) != ""
}

var defaultTechnicians = []string{
	"Ricardo Fosatti",
	"Humberto Núñez",
	"Laura Arosemena",
	"Jan González",
	"Andy Emerick",
	"Practicantes",
}

var defaultProblemTypes = []string{
	"Internet",
	"Impresora/Scanner",
	"PC/Laptop",
	"Teléfono",
	"Software",
	"Correo institucional",
	"Otro",
}

var defaultDepartments = []string{
	"Soporte Tecnico",
	"Recursos Humanos",
	"Almacén",
	"Contraloría",
	"Arte y Cultura",
	"Planificación",
	"Asesoria Legal",
	"Asunto Estudiantil",
	"Bienes Patrimoniales",
	"Cisco Educativo",
	"Compras",
	"Contabilidad",
	"Depósito a la Orden",
	"Secretaria Dirección",
	"Equiparación de Oportunidades",
	"Estadística",
	"Evaluación Educativa",
	"FECE",
	"Padre de Familia",
	"Fondo Agropecuario",
	"Gestión De Riesgo",
	"Ingieneria y Arquitectura",
	"Lenguas Extranjeras",
	"Matrícula",
	"Nutrición",
	"Supervisión",
	"Pagos",
	"Perfeccionamiento",
	"Relaciones Públicas",
	"Robótica",
	"SIACE",
	"Subdirección técnico Administrativo",
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "meduca-helpdesk"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
			BodyLimitMB:           getEnvAsInt("HTTP_BODY_LIMIT_MB", 50),
		},
		Store: StoreConfig{
			Backend: strings.ToLower(getEnv("STORE_BACKEND", BackendPostgres)),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			MigrationsDir:  getEnv("POSTGRES_MIGRATIONS_DIR", "migrations"),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Firestore: FirestoreConfig{
			ProjectID:          os.Getenv("FIRESTORE_PROJECT_ID"),
			TicketsCollection:  getEnv("FIRESTORE_TICKETS_COLLECTION", "tickets"),
			UsersCollection:    getEnv("FIRESTORE_USERS_COLLECTION", "usuarios"),
			CountersCollection: getEnv("FIRESTORE_COUNTERS_COLLECTION", "contadores"),
		},
		Blob: BlobConfig{
			Bucket:        os.Getenv("BLOB_BUCKET"),
			PublicBaseURL: os.Getenv("BLOB_PUBLIC_BASE_URL"),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:               getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes:   getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			PasswordResetTTLMinutes: getEnvAsInt("AUTH_PASSWORD_RESET_TTL_MINUTES", 30),
			BcryptCost:              getEnvAsInt("AUTH_BCRYPT_COST", 12),
			AllowSupportSignup:      getEnvAsBool("AUTH_ALLOW_SUPPORT_SIGNUP", true),
		},
		Tickets: TicketsConfig{
			MaxAttachments:    getEnvAsInt("TICKETS_MAX_ATTACHMENTS", domain.MaxAttachments),
			UploadConcurrency: getEnvAsInt("TICKETS_UPLOAD_CONCURRENCY", 5),
			NumberPrefix:      getEnv("TICKETS_NUMBER_PREFIX", "T"),
			Technicians:       getEnvAsList("TICKETS_TECHNICIANS", defaultTechnicians),
			ProblemTypes:      getEnvAsList("TICKETS_PROBLEM_TYPES", defaultProblemTypes),
			Departments:       getEnvAsList("TICKETS_DEPARTMENTS", defaultDepartments),
			ChangeChannel:     getEnv("TICKETS_CHANGE_CHANNEL", "tickets:changes"),
		},
		Live: LiveConfig{
			KeepAliveSeconds: getEnvAsInt("LIVE_KEEPALIVE_SECONDS", 25),
			RetrySeconds:     getEnvAsInt("LIVE_RETRY_SECONDS", 5),
		},
		UI: UIConfig{
			DefaultDarkMode: getEnvAsBool("UI_DEFAULT_DARK_MODE", false),
		},
		Notification: NotificationConfig{
			EmailFrom:  getEnv("NOTIFY_EMAIL_FROM", "noreply@meduca.gob.pa"),
			WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
			ResetURL:   getEnv("NOTIFY_RESET_URL", ""),
			SMTP: SMTPConfig{
				Host:       getEnv("NOTIFY_SMTP_HOST", ""),
				Port:       getEnvAsInt("NOTIFY_SMTP_PORT", 587),
				User:       getEnv("NOTIFY_SMTP_USER", ""),
				Password:   getEnv("NOTIFY_SMTP_PASSWORD", ""),
				AuthType:   strings.ToLower(getEnv("NOTIFY_SMTP_AUTH", "plain")),
				TLS:        getEnvAsBool("NOTIFY_SMTP_TLS", true),
				SkipVerify: getEnvAsBool("NOTIFY_SMTP_SKIP_VERIFY", false),
			},
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Store.Backend {
	case BackendPostgres:
	case BackendFirestore:
		if c.Firestore.ProjectID == "" {
			return fmt.Errorf("FIRESTORE_PROJECT_ID is required when STORE_BACKEND=%s", BackendFirestore)
		}
	default:
		return fmt.Errorf("invalid STORE_BACKEND %q", c.Store.Backend)
	}
	if c.Tickets.MaxAttachments <= 0 || c.Tickets.MaxAttachments > domain.MaxAttachments {
		return fmt.Errorf("TICKETS_MAX_ATTACHMENTS must be between 1 and %d", domain.MaxAttachments)
	}
	if len(c.Tickets.ProblemTypes) == 0 {
		return fmt.Errorf("TICKETS_PROBLEM_TYPES must not be empty")
	}
	if smtp := c.Notification.SMTP; smtp.Enabled() {
		if smtp.Port <= 0 {
			return fmt.Errorf("NOTIFY_SMTP_PORT must be positive")
		}
		if c.Notification.EmailFrom == "" {
			return fmt.Errorf("NOTIFY_EMAIL_FROM is required when NOTIFY_SMTP_HOST is set")
		}
		switch smtp.AuthType {
		case "plain", "login", "none":
		default:
			return fmt.Errorf("invalid NOTIFY_SMTP_AUTH %q", smtp.AuthType)
		}
	}
	return nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// BodyLimit returns the maximum request body size in bytes.
func (a AppConfig) BodyLimit() int {
	if a.BodyLimitMB <= 0 {
		return 4 * 1024 * 1024
	}
	return a.BodyLimitMB * 1024 * 1024
}

// KeepAlive returns the interval between stream keep-alive comments.
func (l LiveConfig) KeepAlive() time.Duration {
	if l.KeepAliveSeconds <= 0 {
		return 25 * time.Second
	}
	return time.Duration(l.KeepAliveSeconds) * time.Second
}

// RetryDelay returns the pause before a failed watcher is restarted.
func (l LiveConfig) RetryDelay() time.Duration {
	if l.RetrySeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(l.RetrySeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if strings.TrimSpace(val) == "" {
		return append([]string(nil), fallback...)
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
