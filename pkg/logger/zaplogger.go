package pkg

import (
	"io"
	"log"
	"os"
	"strings"

	"github.com/ScrpTrx-Go/GoAnchorScan/internal/config"
	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type ZapLogger struct {
	sugar *zap.SugaredLogger
	file  *os.File
}

var _ Logger = (*ZapLogger)(nil)

// NewZapLogger logs to stderr and, when cfg.FilePath is set, to a JSON file as
// well. Stdout is left alone so scan output can be piped.
func NewZapLogger(cfg config.LoggerConfig) (*ZapLogger, error) {
	return NewZapLoggerTo(cfg, os.Stderr)
}

// NewZapLoggerTo is NewZapLogger with the console core on the given writer.
// Levels are colored only when the writer is a terminal.
func NewZapLoggerTo(cfg config.LoggerConfig, console io.Writer) (*ZapLogger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(strings.ToLower(cfg.Level))); err != nil {
		log.Printf("Invalid log level %q: %v. Falling back to default level: Info", cfg.Level, err)
		level = zapcore.InfoLevel
	}

	baseEncoderCfg := zapcore.EncoderConfig{
		TimeKey:        "T",
		LevelKey:       "L",
		NameKey:        "N",
		CallerKey:      "C",
		MessageKey:     "M",
		StacktraceKey:  "S",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalColorLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	consoleCfg := baseEncoderCfg
	consoleCfg.ConsoleSeparator = " | "
	if cfg.Production || !isTerminal(console) {
		consoleCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	}

	fileCfg := baseEncoderCfg
	fileCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	consoleEncoder := zapcore.NewConsoleEncoder(consoleCfg)
	cores := []zapcore.Core{zapcore.NewCore(consoleEncoder, zapcore.AddSync(console), level)}

	var file *os.File
	if cfg.FilePath != "" {
		f, err := os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
		if err != nil {
			return nil, err
		}
		file = f
		fileEncoder := zapcore.NewJSONEncoder(fileCfg)
		cores = append(cores, zapcore.NewCore(fileEncoder, zapcore.AddSync(f), level))
	}

	core := zapcore.NewTee(cores...)
	logger := zap.New(core, zap.AddStacktrace(zapcore.DPanicLevel))

	return &ZapLogger{sugar: logger.Sugar(), file: file}, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

func NewNopLogger() *ZapLogger {
	return &ZapLogger{sugar: zap.NewNop().Sugar()}
}

func (l *ZapLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.sugar.Debugw(msg, keysAndValues...)
}

func (l *ZapLogger) Info(msg string, keysAndValues ...interface{}) {
	l.sugar.Infow(msg, keysAndValues...)
}

func (l *ZapLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.sugar.Warnw(msg, keysAndValues...)
}

func (l *ZapLogger) Error(msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, keysAndValues...)
}

func (l *ZapLogger) WithPackage(name string) Logger {
	return &ZapLogger{sugar: l.sugar.With("package", name)}
}

// Sync flushes buffered entries and closes the log file, if any.
func (l *ZapLogger) Sync() error {
	err := l.sugar.Sync()
	if l.file != nil {
		if cerr := l.file.Close(); err == nil {
			err = cerr
		}
		l.file = nil
	}
	return err
}
