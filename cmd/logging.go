package cmd

import (
	"io"
	"log/slog"
	"os"

	"github.com/charmbracelet/log"
	slogmulti "github.com/samber/slog-multi"
)

func parseLevel(levelStr string) log.Level {
	switch levelStr {
	case "debug":
		return log.DebugLevel
	case "warn":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// SetupLogging configures slog with charmbracelet/log for colorful output.
func SetupLogging(levelStr string) {
	slog.SetDefault(slog.New(consoleHandler(os.Stderr, parseLevel(levelStr))))
}

// SetupLoggingWithFile also writes JSON records to logFile. The returned
// cleanup closes the file. When the file cannot be opened only the console
// is used.
func SetupLoggingWithFile(levelStr, logFile string) func() error {
	level := parseLevel(levelStr)
	console := consoleHandler(os.Stderr, level)
	if logFile == "" {
		slog.SetDefault(slog.New(console))
		return func() error { return nil }
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		slog.SetDefault(slog.New(console))
		slog.Error("failed to open log file, using stderr only", "error", err, "file", logFile)
		return func() error { return nil }
	}

	slog.SetDefault(newFanoutLogger(os.Stderr, file, level))
	return file.Close
}

// newFanoutLogger sends records to the console handler and a JSON handler.
func newFanoutLogger(stderr, file io.Writer, level log.Level) *slog.Logger {
	fileHandler := slog.NewJSONHandler(file, &slog.HandlerOptions{Level: slog.Level(level)})
	return slog.New(slogmulti.Fanout(consoleHandler(stderr, level), fileHandler))
}

func consoleHandler(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Level:           level,
		ReportTimestamp: true,
	})
}
