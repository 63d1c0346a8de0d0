package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"journalsummarizer/internal/prompt"
	"strings"
	"time"
)

// Cache stores generated summaries keyed by prompt.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, summary string, ttl time.Duration) error
}

// Key identifies a completion by model and message pair. It returns "" when
// there is nothing worth caching.
func Key(model string, msgs prompt.Messages) string {
	model = strings.TrimSpace(model)
	if model == "" || strings.TrimSpace(msgs.User) == "" {
		return ""
	}

	h := sha256.New()
	for _, part := range []string{model, msgs.System, msgs.User} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}

	return model + "|" + hex.EncodeToString(h.Sum(nil))
}
