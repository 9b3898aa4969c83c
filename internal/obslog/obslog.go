package obslog

import (
    "fmt"
    "os"
    "path/filepath"
    "strings"

    "go.uber.org/zap"
    "go.uber.org/zap/zapcore"
)

var globalLogger *zap.Logger = zap.NewNop()

// L returns the process logger. It is a no-op logger until Init runs.
func L() *zap.Logger { return globalLogger }

// Replace swaps the global logger and returns a func restoring the previous one.
func Replace(l *zap.Logger) func() {
    prev := globalLogger
    if l == nil {
        l = zap.NewNop()
    }
    globalLogger = l
    return func() { globalLogger = prev }
}

// Options controls the log sinks.
type Options struct {
    Level   string
    Format  string // legacy | json | console
    Console bool
    ToFile  bool
    File    string
    Caller  bool
}

// OptionsFromEnv reads LOG_LEVEL, LOG_FORMAT, LOG_TO_CONSOLE, LOG_TO_FILE, LOG_FILE, LOG_CALLER.
func OptionsFromEnv() Options {
    return Options{
        Level:   getenvDefault("LOG_LEVEL", "info"),
        Format:  getenvDefault("LOG_FORMAT", "legacy"),
        Console: strings.EqualFold(getenvDefault("LOG_TO_CONSOLE", "true"), "true"),
        ToFile:  strings.EqualFold(getenvDefault("LOG_TO_FILE", "false"), "true"),
        File:    getenvDefault("LOG_FILE", filepath.Join("logs", "arena.log")),
        Caller:  strings.EqualFold(getenvDefault("LOG_CALLER", "false"), "true"),
    }
}

func InitFromEnv() error { return Init(OptionsFromEnv()) }

// Init builds the global logger from opts.
func Init(opts Options) error {
    level := parseLevel(opts.Level)
    format := strings.ToLower(strings.TrimSpace(opts.Format))
    if format != "legacy" && format != "json" && format != "console" {
        format = "legacy"
    }

    var cores []zapcore.Core
    if opts.Console {
        cores = append(cores, zapcore.NewCore(encoderFor(format), zapcore.AddSync(os.Stdout), level))
    }
    if opts.ToFile {
        path := strings.TrimSpace(opts.File)
        if err := ensureDir(filepath.Dir(path)); err != nil { return err }
        f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
        if err != nil { return fmt.Errorf("open log file: %w", err) }
        cores = append(cores, zapcore.NewCore(encoderFor(format), zapcore.AddSync(f), level))
    }
    if len(cores) == 0 {
        cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()), zapcore.AddSync(os.Stdout), level))
    }

    logger := zap.New(zapcore.NewTee(cores...))
    if opts.Caller || format == "legacy" {
        logger = logger.WithOptions(zap.AddCaller())
    }
    globalLogger = logger.WithOptions(zap.AddStacktrace(zapcore.ErrorLevel))
    return nil
}

func encoderFor(format string) zapcore.Encoder {
    switch format {
    case "json":
        cfg := zap.NewProductionEncoderConfig()
        cfg.EncodeTime = zapcore.ISO8601TimeEncoder
        cfg.EncodeLevel = zapcore.LowercaseLevelEncoder
        return zapcore.NewJSONEncoder(cfg)
    case "console":
        cfg := zap.NewProductionEncoderConfig()
        cfg.EncodeTime = zapcore.ISO8601TimeEncoder
        cfg.EncodeLevel = zapcore.CapitalLevelEncoder
        return zapcore.NewConsoleEncoder(cfg)
    default:
        cfg := zap.NewProductionEncoderConfig()
        cfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")
        cfg.EncodeLevel = zapcore.CapitalLevelEncoder
        cfg.ConsoleSeparator = " | "
        return zapcore.NewConsoleEncoder(cfg)
    }
}

func ensureDir(dir string) error {
    if strings.TrimSpace(dir) == "" || dir == "." { return nil }
    if _, err := os.Stat(dir); err == nil { return nil }
    return os.MkdirAll(dir, 0o755)
}

func parseLevel(s string) zapcore.Level {
    switch strings.ToLower(strings.TrimSpace(s)) {
    case "debug":
        return zapcore.DebugLevel
    case "warn", "warning":
        return zapcore.WarnLevel
    case "error":
        return zapcore.ErrorLevel
    default:
        return zapcore.InfoLevel
    }
}

func getenvDefault(k, def string) string {
    v := os.Getenv(k)
    if strings.TrimSpace(v) == "" { return def }
    return v
}
