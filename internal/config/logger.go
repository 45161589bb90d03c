package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/simp-lee/logger"
)

// Accepted log.level and log.format values. Validate and SetupLogger share
// these tables.
var (
	logLevels = map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	logFormats = map[string]logger.OutputFormat{
		"text": logger.FormatText,
		"json": logger.FormatJSON,
	}
)

// SetupLogger builds the application logger from cfg and installs it as the
// slog default. The caller must Close it. An unknown level means info and an
// unknown format means the logger's custom console layout.
func SetupLogger(cfg *LogConfig) (*logger.Logger, error) {
	if cfg == nil {
		return nil, errors.New("log config is nil")
	}

	log, err := logger.New(loggerOptions(cfg)...)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	log.SetDefault()
	return log, nil
}

func loggerOptions(cfg *LogConfig) []logger.Option {
	format := logFormat(cfg.Format)
	opts := []logger.Option{
		logger.WithLevel(logLevel(cfg.Level)),
		// Attributes stored with logger.WithContextAttrs, such as the
		// request id, are added to every record logged with that context.
		logger.WithMiddleware(logger.ContextMiddleware()),
		logger.WithConsoleFormat(format),
		logger.WithConsoleColor(cfg.Color == nil || *cfg.Color),
	}
	if cfg.FilePath == "" {
		return opts
	}

	opts = append(opts, logger.WithFilePath(cfg.FilePath), logger.WithFileFormat(format))
	if cfg.MaxSizeMB > 0 {
		opts = append(opts, logger.WithMaxSizeMB(cfg.MaxSizeMB))
	}
	if cfg.RetentionDays > 0 {
		opts = append(opts, logger.WithRetentionDays(cfg.RetentionDays))
	}
	if cfg.MaxBackups > 0 {
		opts = append(opts, logger.WithMaxBackups(cfg.MaxBackups))
	}
	if cfg.CompressRotated != nil {
		opts = append(opts, logger.WithCompressRotated(*cfg.CompressRotated))
	}
	return opts
}

func logLevel(s string) slog.Level {
	if level, ok := logLevels[strings.ToLower(s)]; ok {
		return level
	}
	return slog.LevelInfo
}

func logFormat(s string) logger.OutputFormat {
	if format, ok := logFormats[strings.ToLower(s)]; ok {
		return format
	}
	return logger.FormatCustom
}
