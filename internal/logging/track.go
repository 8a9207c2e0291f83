package logging

import (
	"log/slog"
	"time"
)

// DefaultSlowThreshold is the duration above which an operation is logged
// as slow.
const DefaultSlowThreshold = time.Second

// Track instruments one operation. Call it at the start and defer the
// returned func with a pointer to the named error result:
//
//	defer logging.Track(log, "analyze_day", slow)(&err)
//
// Failures are logged at error level with the elapsed time, operations
// slower than slow at warn level, everything else at debug level.
func Track(log *slog.Logger, op string, slow time.Duration) func(*error) {
	if slow <= 0 {
		slow = DefaultSlowThreshold
	}
	start := time.Now()

	return func(errp *error) {
		elapsed := time.Since(start)

		var err error
		if errp != nil {
			err = *errp
		}

		switch {
		case err != nil:
			log.Error("Operation failed",
				"op", op, "elapsed", elapsed, "error", err,
			)
		case elapsed > slow:
			log.Warn("Slow operation",
				"op", op, "elapsed", elapsed, "threshold", slow,
			)
		default:
			log.Debug("Operation completed", "op", op, "elapsed", elapsed)
		}
	}
}
