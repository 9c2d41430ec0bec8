package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort string
	AppEnv  string

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string

	DynamoTables DynamoTables

	S3BucketName string
	// StreamURLTTL bounds the lifetime of presigned song stream URLs handed
	// to kiosks and the web player.
	StreamURLTTL time.Duration

	JWTPrivateKeyPath string
	JWTPublicKeyPath  string
	JWTExpiry         time.Duration
	RefreshTokenDur   time.Duration

	GoogleClientID string

	SMTPHost     string
	SMTPPort     string
	SMTPFrom     string
	SMTPUsername string
	SMTPPassword string

	SNSRegion string

	AllowedOrigins []string
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Users             string
	Sessions          string
	Devices           string
	ClaimCodes        string
	Commands          string
	Tags              string
	Playlists         string
	Songs             string
	Purchases         string
	UserVerifications string
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort: getEnv("APP_PORT", "3000"),
		AppEnv:  getEnv("APP_ENV", "development"),

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),

		DynamoTables: DynamoTables{
			Users:             getEnv("DYNAMO_TABLE_USERS", "users"),
			Sessions:          getEnv("DYNAMO_TABLE_SESSIONS", "sessions"),
			Devices:           getEnv("DYNAMO_TABLE_DEVICES", "devices"),
			ClaimCodes:        getEnv("DYNAMO_TABLE_CLAIM_CODES", "claim_codes"),
			Commands:          getEnv("DYNAMO_TABLE_COMMANDS", "commands"),
			Tags:              getEnv("DYNAMO_TABLE_TAGS", "nfc_tags"),
			Playlists:         getEnv("DYNAMO_TABLE_PLAYLISTS", "playlists"),
			Songs:             getEnv("DYNAMO_TABLE_SONGS", "songs"),
			Purchases:         getEnv("DYNAMO_TABLE_PURCHASES", "purchases"),
			UserVerifications: getEnv("DYNAMO_TABLE_USER_VERIFICATIONS", "user_verifications"),
		},

		S3BucketName: getEnv("S3_BUCKET_NAME", "taptone-media"),
		StreamURLTTL: time.Duration(getEnvInt("STREAM_URL_TTL_MINUTES", 60)) * time.Minute,

		JWTPrivateKeyPath: getEnv("JWT_PRIVATE_KEY_PATH", "./private_key.pem"),
		JWTPublicKeyPath:  getEnv("JWT_PUBLIC_KEY_PATH", "./public_key.pem"),
		JWTExpiry:         time.Duration(getEnvInt("JWT_EXPIRY_DAYS", 7)) * 24 * time.Hour,
		RefreshTokenDur:   time.Duration(getEnvInt("REFRESH_TOKEN_EXPIRY_DAYS", 30)) * 24 * time.Hour,

		GoogleClientID: getEnv("GOOGLE_CLIENT_ID", ""),

		SMTPHost:     getEnv("SMTP_HOST", "localhost"),
		SMTPPort:     getEnv("SMTP_PORT", "1025"),
		SMTPFrom:     getEnv("SMTP_FROM", "noreply@taptone.local"),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),

		SNSRegion: getEnv("SNS_REGION", "us-east-1"),

		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
