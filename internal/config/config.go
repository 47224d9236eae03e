package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// ----------------------------
	// Logging
	// ----------------------------
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// ----------------------------
	// SMTP
	// ----------------------------
	SMTPHost          string  `envconfig:"SMTP_HOST" default:"localhost"`
	SMTPPort          int     `envconfig:"SMTP_PORT" default:"587"`
	SMTPUser          string  `envconfig:"SMTP_USER" default:""`
	SMTPPassword      string  `envconfig:"SMTP_PASSWORD" default:""`
	SMTPFrom          string  `envconfig:"SMTP_FROM" default:"noreply@postline.local"`
	SMTPRateLimit     float64 `envconfig:"SMTP_RATE_LIMIT" default:"10"`
	SMTPRetryAttempts uint64  `envconfig:"SMTP_RETRY_ATTEMPTS" default:"0"`

	// ----------------------------
	// Outbox
	// ----------------------------
	OutboxPollInterval     time.Duration `envconfig:"OUTBOX_POLL_INTERVAL" default:"1m"`
	OutboxRecoveryInterval time.Duration `envconfig:"OUTBOX_RECOVERY_INTERVAL" default:"5m"`
	OutboxStaleAfter       time.Duration `envconfig:"OUTBOX_STALE_AFTER" default:"10m"`

	// ----------------------------
	// HTTP API
	// ----------------------------
	APIPort          string `envconfig:"API_PORT" default:"8080"`
	MaxUploadBytes   int64  `envconfig:"MAX_UPLOAD_BYTES" default:"10485760"`
	BroadcastMaxRows int    `envconfig:"BROADCAST_MAX_ROWS" default:"1000"`

	// ----------------------------
	// Auth
	// ----------------------------
	JWTSecret string        `envconfig:"JWT_SECRET" required:"true"`
	JWTTTL    time.Duration `envconfig:"JWT_TTL" default:"30m"`

	// ----------------------------
	// Auth rate limiting (disabled without Redis)
	// ----------------------------
	RedisAddr         string        `envconfig:"REDIS_ADDR" default:""`
	RedisPassword     string        `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB           int           `envconfig:"REDIS_DB" default:"0"`
	AuthRateCapacity  int           `envconfig:"AUTH_RATE_CAPACITY" default:"10"`
	AuthRateRefill    float64       `envconfig:"AUTH_RATE_REFILL_PER_SEC" default:"0.2"`
	AuthRateBucketTTL time.Duration `envconfig:"AUTH_RATE_BUCKET_TTL" default:"1h"`

	// ----------------------------
	// Uploads
	// ----------------------------
	UploadDir         string `envconfig:"UPLOAD_DIR" default:"uploads"`
	UploadS3Bucket    string `envconfig:"UPLOAD_S3_BUCKET" default:""`
	UploadS3Region    string `envconfig:"UPLOAD_S3_REGION" default:"us-east-1"`
	UploadS3Endpoint  string `envconfig:"UPLOAD_S3_ENDPOINT" default:""`
	UploadS3PathStyle bool   `envconfig:"UPLOAD_S3_PATH_STYLE" default:"false"`

	// ----------------------------
	// Hotel provider (LiteAPI)
	// ----------------------------
	LiteAPIURL     string        `envconfig:"LITEAPI_URL" default:"https://api.liteapi.travel/v3.0/data"`
	LiteAPIKey     string        `envconfig:"LITEAPI_KEY" default:""`
	LiteAPITimeout time.Duration `envconfig:"LITEAPI_TIMEOUT" default:"6s"`

	// ----------------------------
	// Task messages provider
	// ----------------------------
	TaskAPILoginURL           string        `envconfig:"TASK_API_LOGIN_URL" default:"https://iot.electems.com/task/api/api/auth/users"`
	TaskAPIMessagesURL        string        `envconfig:"TASK_API_MESSAGES_URL" default:"https://iot.electems.com/task/api/messages"`
	TaskAPIUsername           string        `envconfig:"TASK_API_USERNAME" default:"ravi"`
	TaskAPIInsecureSkipVerify bool          `envconfig:"TASK_API_INSECURE_SKIP_VERIFY" default:"false"`
	TaskAPITimeout            time.Duration `envconfig:"TASK_API_TIMEOUT" default:"10s"`

	// Retries for outbound provider calls.
	HTTPRetryAttempts uint64 `envconfig:"HTTP_RETRY_ATTEMPTS" default:"2"`

	// ----------------------------
	// Metrics
	// ----------------------------
	MetricsPort string `envconfig:"METRICS_PORT" default:"9090"`

	// ----------------------------
	// Database
	// ----------------------------
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
}

func Load() (*Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return &cfg, err
}
