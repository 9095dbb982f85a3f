package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// StorageKind selects which storage backend persists uploaded and generated images.
type StorageKind string

const (
	StorageLocal StorageKind = "local"
	StorageS3    StorageKind = "s3"
)

// Environment names accepted in APP_ENV.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTesting     = "testing"
)

// S3Config holds object storage settings, only read when the backend is s3.
type S3Config struct {
	Bucket          string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	EndpointURL     string // custom endpoint for LocalStack/MinIO
	Prefix          string
}

// StorageConfig describes the configured storage backend.
type StorageConfig struct {
	Backend StorageKind
	Path    string // base directory of the local backend
	S3      S3Config
}

// MailConfig holds SMTP settings for transactional email.
type MailConfig struct {
	Server        string
	Port          int
	Username      string
	Password      string
	DefaultSender string
	SuppressSend  bool
}

// Config is the application configuration.
type Config struct {
	Env         string
	Port        string
	DatabaseURL string
	SecretKey   string
	SessionTTL  time.Duration
	LogLevel    string
	LogFormat   string // json or console

	Storage StorageConfig
	Mail    MailConfig

	PasswordResetExpiry time.Duration
	MaxUploadBytes      int
	AllowedExtensions   []string

	PublicBaseURL  string
	RabbitMQURL    string
	BootstrapAdmin string
}

// Load reads configuration from an optional .env file and the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", EnvDevelopment)
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("DATABASE_URL", "inventory.db")
	v.SetDefault("SECRET_KEY", "")
	v.SetDefault("SESSION_TTL", "24h")
	v.SetDefault("LOG_LEVEL", "info")

	v.SetDefault("STORAGE_BACKEND", string(StorageLocal))
	v.SetDefault("STORAGE_PATH", "static")
	v.SetDefault("S3_BUCKET_NAME", "")
	v.SetDefault("S3_REGION", "eu-west-2")
	v.SetDefault("AWS_ACCESS_KEY_ID", "")
	v.SetDefault("AWS_SECRET_ACCESS_KEY", "")
	v.SetDefault("S3_ENDPOINT_URL", "")
	v.SetDefault("S3_PREFIX", "garage-inventory")

	v.SetDefault("MAIL_SERVER", "smtp.gmail.com")
	v.SetDefault("MAIL_PORT", 587)
	v.SetDefault("MAIL_USERNAME", "")
	v.SetDefault("MAIL_PASSWORD", "")
	v.SetDefault("MAIL_DEFAULT_SENDER", "noreply@garage-inventory.com")

	v.SetDefault("PASSWORD_RESET_EXPIRY", 3600)
	v.SetDefault("MAX_UPLOAD_BYTES", 16*1024*1024)
	v.SetDefault("ALLOWED_EXTENSIONS", "png,jpg,jpeg,gif,webp")

	v.SetDefault("PUBLIC_BASE_URL", "http://localhost:8080")
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("BOOTSTRAP_ADMIN", "")
}

func fromViper(v *viper.Viper) (*Config, error) {
	env := strings.ToLower(v.GetString("APP_ENV"))

	cfg := &Config{
		Env:         env,
		Port:        v.GetString("APP_PORT"),
		DatabaseURL: v.GetString("DATABASE_URL"),
		SecretKey:   v.GetString("SECRET_KEY"),
		SessionTTL:  v.GetDuration("SESSION_TTL"),
		LogLevel:    v.GetString("LOG_LEVEL"),
		LogFormat:   "json",
		Storage: StorageConfig{
			Backend: StorageKind(strings.ToLower(v.GetString("STORAGE_BACKEND"))),
			Path:    v.GetString("STORAGE_PATH"),
			S3: S3Config{
				Bucket:          v.GetString("S3_BUCKET_NAME"),
				Region:          v.GetString("S3_REGION"),
				AccessKeyID:     v.GetString("AWS_ACCESS_KEY_ID"),
				SecretAccessKey: v.GetString("AWS_SECRET_ACCESS_KEY"),
				EndpointURL:     strings.TrimRight(v.GetString("S3_ENDPOINT_URL"), "/"),
				Prefix:          strings.Trim(v.GetString("S3_PREFIX"), "/"),
			},
		},
		Mail: MailConfig{
			Server:        v.GetString("MAIL_SERVER"),
			Port:          v.GetInt("MAIL_PORT"),
			Username:      v.GetString("MAIL_USERNAME"),
			Password:      v.GetString("MAIL_PASSWORD"),
			DefaultSender: v.GetString("MAIL_DEFAULT_SENDER"),
		},
		PasswordResetExpiry: time.Duration(v.GetInt("PASSWORD_RESET_EXPIRY")) * time.Second,
		MaxUploadBytes:      v.GetInt("MAX_UPLOAD_BYTES"),
		AllowedExtensions:   parseExtensions(v.GetString("ALLOWED_EXTENSIONS")),
		PublicBaseURL:       strings.TrimRight(v.GetString("PUBLIC_BASE_URL"), "/"),
		RabbitMQURL:         v.GetString("RABBITMQ_URL"),
		BootstrapAdmin:      v.GetString("BOOTSTRAP_ADMIN"),
	}

	// Outside production mail is printed and logs are meant for humans, unless overridden.
	if env != EnvProduction {
		cfg.Mail.SuppressSend = true
		cfg.LogFormat = "console"
	}
	if v.IsSet("MAIL_SUPPRESS_SEND") {
		cfg.Mail.SuppressSend = v.GetBool("MAIL_SUPPRESS_SEND")
	}
	if v.IsSet("LOG_FORMAT") {
		cfg.LogFormat = strings.ToLower(v.GetString("LOG_FORMAT"))
	}
	if cfg.SecretKey == "" && env != EnvProduction {
		cfg.SecretKey = "dev-secret-key-change-in-production"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports settings that would make the deployment unusable.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case StorageLocal, StorageS3:
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q (expected %q or %q)", c.Storage.Backend, StorageLocal, StorageS3)
	}

	if c.Env != EnvProduction {
		return nil
	}

	var missing []string
	if c.SecretKey == "" {
		missing = append(missing, "SECRET_KEY")
	}
	if c.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if c.Storage.Backend == StorageS3 {
		if c.Storage.S3.Bucket == "" {
			missing = append(missing, "S3_BUCKET_NAME")
		}
		if c.Storage.S3.Region == "" {
			missing = append(missing, "S3_REGION")
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required production config: %s", strings.Join(missing, ", "))
	}
	return nil
}

func parseExtensions(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(part), "."))
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
