package docstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/courseloom/courseloom-backend/internal/platform/logger"
)

type Config struct {
	Driver        string
	DSN           string
	MongoURI      string
	MongoDatabase string
}

// Open selects a backend from cfg.Driver: "memory" (default), "postgres",
// "sqlite" or "mongo". Memory keeps a bare checkout runnable without any
// infrastructure.
func Open(ctx context.Context, cfg Config, log *logger.Logger) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", "memory":
		return NewMemoryStore(), nil
	case "postgres":
		return OpenSQL("postgres", cfg.DSN, log)
	case "sqlite":
		return OpenSQL("sqlite", cfg.DSN, log)
	case "mongo":
		return NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDatabase, log)
	default:
		return nil, fmt.Errorf("docstore: unknown driver %q", cfg.Driver)
	}
}
