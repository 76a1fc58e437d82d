package debug

import (
	"context"
	"log/slog"
	"runtime"
	"time"
)

// startMemLogger is best-effort; a failing rss query is logged once and
// then suppressed.
func startMemLogger(ctx context.Context, interval time.Duration, logger *slog.Logger, rss func() (uint64, error)) {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		var rssErrLogged bool
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			var ms runtime.MemStats
			runtime.ReadMemStats(&ms)
			resident, err := rss()
			if err != nil && !rssErrLogged {
				logger.Warn("memlog: rss query failed", slog.String("err", err.Error()))
				rssErrLogged = true
			}
			logger.Info("memstats",
				slog.Int("goroutines", runtime.NumGoroutine()),
				slog.Uint64("heap_alloc", ms.HeapAlloc),
				slog.Uint64("heap_inuse", ms.HeapInuse),
				slog.Uint64("heap_idle", ms.HeapIdle),
				slog.Uint64("heap_sys", ms.HeapSys),
				slog.Uint64("next_gc", ms.NextGC),
				slog.Uint64("rss", resident),
				slog.Uint64("num_gc", uint64(ms.NumGC)),
			)
		}
	}()
}
