package outbound

import (
	"context"
	"time"

	"github.com/textguard/textguard/internal/domain/guard"
)

// ResultCache maps a text fingerprint to a cached CheckResult. It is a pure
// performance optimization: Get returns (zero, false) on miss or on any
// backend error, and Put errors are logged and swallowed by the caller. The
// matcher remains authoritative and the system operates correctly with the
// cache disabled entirely.
type ResultCache interface {
	Get(ctx context.Context, fingerprint string) (guard.CheckResult, bool)
	Put(ctx context.Context, fingerprint string, result guard.CheckResult, ttl time.Duration)
}
