package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Env             string
	Port            string
	DatabaseURL     string
	MigrateOnStart  bool
	JWTSecret       string
	AccessTokenTTL  time.Duration
	TempTokenTTL    time.Duration
	GoogleAudience  string
	AllowOrigins    []string
	LogstashTCPAddr string
	RollbarToken    string
	CodeVersion     string

	MinIOEndpoint          string
	MinIOAccessKey         string
	MinIOSecretKey         string
	MinIOUseSSL            bool
	MinIOPublicURL         string
	MinIOBucketSubmissions string
	MinIOBucketImports     string

	MailProvider   string
	MailFrom       string
	MailFromName   string
	SMTPHost       string
	SMTPPort       int
	SMTPUsername   string
	SMTPPassword   string
	SMTPUseTLS     bool
	SendGridAPIKey string

	ChangeOTPTTL time.Duration
	ResetOTPTTL  time.Duration

	SubmissionMaxBytes     int64
	SubmissionAllowedTypes []string
	ImageMaxDimension      int
	FFmpegPath             string

	RosterMaxRows  int
	RosterMaxBytes int64
}

// Load reads .env (if present) and the process environment.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}
	return FromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetTypeByDefaultValue(true)
	v.AutomaticEnv()

	v.SetDefault("ENV", "development")
	v.SetDefault("PORT", "8080")
	v.SetDefault("MIGRATE_ON_START", false)
	v.SetDefault("ACCESS_TOKEN_TTL", 24*time.Hour)
	v.SetDefault("TEMP_TOKEN_TTL", 10*time.Minute)
	v.SetDefault("GOOGLE_AUDIENCE", "")
	v.SetDefault("ALLOW_ORIGINS", "*")
	v.SetDefault("LOGSTASH_TCP_ADDR", "")
	v.SetDefault("ROLLBAR_TOKEN", "")
	v.SetDefault("CODE_VERSION", "dev")

	v.SetDefault("MINIO_ENDPOINT", "")
	v.SetDefault("MINIO_ACCESS_KEY", "")
	v.SetDefault("MINIO_SECRET_KEY", "")
	v.SetDefault("MINIO_USE_SSL", false)
	v.SetDefault("MINIO_PUBLIC_URL", "")
	v.SetDefault("MINIO_BUCKET_SUBMISSIONS", "lms-submissions")
	v.SetDefault("MINIO_BUCKET_IMPORTS", "lms-imports")

	v.SetDefault("EMAIL_PROVIDER", "")
	v.SetDefault("MAIL_FROM", "")
	v.SetDefault("MAIL_FROM_NAME", "CodeCamp")
	v.SetDefault("SMTP_HOST", "")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_USERNAME", "")
	v.SetDefault("SMTP_PASSWORD", "")
	v.SetDefault("SMTP_USE_TLS", false)
	v.SetDefault("SENDGRID_API_KEY", "")

	v.SetDefault("CHANGE_OTP_TTL", 15*time.Minute)
	v.SetDefault("PASSWORD_RESET_TTL", 10*time.Minute)

	v.SetDefault("SUBMISSION_MAX_BYTES", int64(10*1024*1024))
	v.SetDefault("SUBMISSION_ALLOWED_TYPES", "")
	v.SetDefault("IMAGE_MAX_DIMENSION", 2048)
	v.SetDefault("FFMPEG_PATH", "")

	v.SetDefault("ROSTER_MAX_ROWS", 500)
	v.SetDefault("ROSTER_MAX_BYTES", int64(2*1024*1024))
	return v
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) Config {
	return Config{
		Env:             v.GetString("ENV"),
		Port:            v.GetString("PORT"),
		DatabaseURL:     must(v, "DATABASE_URL"),
		MigrateOnStart:  v.GetBool("MIGRATE_ON_START"),
		JWTSecret:       must(v, "JWT_SECRET"),
		AccessTokenTTL:  v.GetDuration("ACCESS_TOKEN_TTL"),
		TempTokenTTL:    v.GetDuration("TEMP_TOKEN_TTL"),
		GoogleAudience:  v.GetString("GOOGLE_AUDIENCE"),
		AllowOrigins:    splitAndTrim(v.GetString("ALLOW_ORIGINS"), []string{"*"}),
		LogstashTCPAddr: v.GetString("LOGSTASH_TCP_ADDR"),
		RollbarToken:    v.GetString("ROLLBAR_TOKEN"),
		CodeVersion:     v.GetString("CODE_VERSION"),

		MinIOEndpoint:          v.GetString("MINIO_ENDPOINT"),
		MinIOAccessKey:         v.GetString("MINIO_ACCESS_KEY"),
		MinIOSecretKey:         v.GetString("MINIO_SECRET_KEY"),
		MinIOUseSSL:            v.GetBool("MINIO_USE_SSL"),
		MinIOPublicURL:         v.GetString("MINIO_PUBLIC_URL"),
		MinIOBucketSubmissions: v.GetString("MINIO_BUCKET_SUBMISSIONS"),
		MinIOBucketImports:     v.GetString("MINIO_BUCKET_IMPORTS"),

		MailProvider:   v.GetString("EMAIL_PROVIDER"),
		MailFrom:       v.GetString("MAIL_FROM"),
		MailFromName:   v.GetString("MAIL_FROM_NAME"),
		SMTPHost:       v.GetString("SMTP_HOST"),
		SMTPPort:       v.GetInt("SMTP_PORT"),
		SMTPUsername:   v.GetString("SMTP_USERNAME"),
		SMTPPassword:   v.GetString("SMTP_PASSWORD"),
		SMTPUseTLS:     v.GetBool("SMTP_USE_TLS"),
		SendGridAPIKey: v.GetString("SENDGRID_API_KEY"),

		ChangeOTPTTL: v.GetDuration("CHANGE_OTP_TTL"),
		ResetOTPTTL:  v.GetDuration("PASSWORD_RESET_TTL"),

		SubmissionMaxBytes:     v.GetInt64("SUBMISSION_MAX_BYTES"),
		SubmissionAllowedTypes: splitAndTrim(v.GetString("SUBMISSION_ALLOWED_TYPES"), nil),
		ImageMaxDimension:      v.GetInt("IMAGE_MAX_DIMENSION"),
		FFmpegPath:             v.GetString("FFMPEG_PATH"),

		RosterMaxRows:  v.GetInt("ROSTER_MAX_ROWS"),
		RosterMaxBytes: v.GetInt64("ROSTER_MAX_BYTES"),
	}
}

// StorageEnabled reports whether MinIO credentials were provided.
func (c Config) StorageEnabled() bool {
	return c.MinIOEndpoint != "" && c.MinIOAccessKey != "" && c.MinIOSecretKey != ""
}

func splitAndTrim(input string, fallback []string) []string {
	parts := strings.Split(input, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

func must(v *viper.Viper, key string) string {
	value := strings.TrimSpace(v.GetString(key))
	if value == "" {
		panic("missing env: " + key)
	}
	return value
}
