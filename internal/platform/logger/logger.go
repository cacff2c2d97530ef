package logger

import (
	"log/slog"
	"os"
)

// New returns the process-wide structured logger. JSON output so log
// aggregation can index the attrs services attach (report_id, checkpoint,
// request_id).
func New() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}
