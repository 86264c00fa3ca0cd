package app

import (
	"fmt"
	"time"

	"github.com/courseloom/courseloom-backend/internal/platform/envutil"
	"github.com/courseloom/courseloom-backend/internal/platform/logger"
)

type Config struct {
	Port        string
	Environment string
	Version     string

	DocstoreDriver string
	DocstoreDSN    string
	MongoURI       string
	MongoDatabase  string

	RedisAddr string

	TranscodeStatusBase   string
	CDNPublicBase         string
	TranscodePollInterval time.Duration
	TranscodeMaxAttempts  int

	CompletionThreshold float64

	JWTSecretKey string

	SeedFile    string
	MetricsAddr string
}

func LoadConfig(log *logger.Logger) Config {
	cfg := Config{
		Port:        envutil.String("PORT", "8080"),
		Environment: envutil.String("APP_ENV", "development"),
		Version:     envutil.String("APP_VERSION", "dev"),

		DocstoreDriver: envutil.String("DOCSTORE_DRIVER", "memory"),
		DocstoreDSN:    envutil.String("DOCSTORE_DSN", ""),
		MongoURI:       envutil.String("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:  envutil.String("MONGO_DB", "courseloom"),

		RedisAddr: envutil.String("REDIS_ADDR", ""),

		TranscodeStatusBase:   envutil.String("TRANSCODE_STATUS_BASE", "http://localhost:4000"),
		CDNPublicBase:         envutil.String("CDN_PUBLIC_BASE", "http://localhost:9000"),
		TranscodePollInterval: envutil.Duration("TRANSCODE_POLL_INTERVAL", 5*time.Second),
		TranscodeMaxAttempts:  envutil.Int("TRANSCODE_MAX_ATTEMPTS", 60),

		CompletionThreshold: envutil.Float("PROGRESS_COMPLETION_THRESHOLD", 0.9),

		JWTSecretKey: envutil.String("JWT_SECRET_KEY", "defaultsecret"),

		SeedFile:    envutil.String("SEED_FILE", ""),
		MetricsAddr: envutil.String("METRICS_ADDR", ":9091"),
	}

	// Piecewise postgres envs let compose files set host/user/password
	// without assembling a DSN by hand.
	if cfg.DocstoreDriver == "postgres" && cfg.DocstoreDSN == "" {
		host := envutil.String("POSTGRES_HOST", "localhost")
		port := envutil.String("POSTGRES_PORT", "5432")
		user := envutil.String("POSTGRES_USER", "postgres")
		password := envutil.String("POSTGRES_PASSWORD", "")
		name := envutil.String("POSTGRES_NAME", "courseloom")
		cfg.DocstoreDSN = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, password, host, port, name)
	}

	log.Info("Config loaded",
		"port", cfg.Port,
		"docstore_driver", cfg.DocstoreDriver,
		"transcode_poll_interval", cfg.TranscodePollInterval,
		"transcode_max_attempts", cfg.TranscodeMaxAttempts,
	)
	return cfg
}
