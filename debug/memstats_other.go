//go:build !windows

package debug

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// StartMemLogger logs Go heap stats every interval until ctx is done. RSS
// is reported as zero on this platform.
func StartMemLogger(ctx context.Context, interval time.Duration, logger *slog.Logger) {
	startMemLogger(ctx, interval, logger, func() (uint64, error) {
		return 0, errors.New("rss unavailable")
	})
}
