package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"
)

// AppName names the root logger and the tracer.
const AppName = "autofit"

type LoggerConfig struct {
	Level       string `yaml:"level" validate:"required,oneof=none debug normal"`
	Destination string `yaml:"destination,omitempty" sanitize:"path_clean,assure_dir_exists_for_file" validate:"omitempty,filepath"`
	Mode        string `yaml:"mode,omitempty" validate:"omitempty,oneof=append overwrite"`
}

type LoggingConfig struct {
	FileLogger    LoggerConfig `yaml:"file"`
	ConsoleLogger LoggerConfig `yaml:"console"`
}

// Prepare returns the configured zap logger. The caller owns the returned
// closer, which flushes and releases the log file if one was opened.
func (conf *LoggingConfig) Prepare() (*zap.Logger, io.Closer, error) {
	return conf.prepare(os.Stdout, os.Stderr)
}

func (conf *LoggingConfig) prepare(stdout, stderr *os.File) (*zap.Logger, io.Closer, error) {
	// Console - split stdout and stderr, colors only on terminals

	consoleLP := zapcore.NewConsoleEncoder(consoleEncoderConfig(stdout))
	consoleHP := newEncoder(consoleEncoderConfig(stderr))

	highPriority := zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
		return lvl >= zapcore.ErrorLevel
	})

	var consoleCoreHP, consoleCoreLP zapcore.Core
	switch conf.ConsoleLogger.Level {
	case "normal", "debug":
		low := zapcore.InfoLevel
		if conf.ConsoleLogger.Level == "debug" {
			low = zapcore.DebugLevel
		}
		consoleCoreLP = zapcore.NewCore(consoleLP, zapcore.Lock(stdout),
			zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
				return low <= lvl && lvl < zapcore.ErrorLevel
			}))
		consoleCoreHP = zapcore.NewCore(consoleHP, zapcore.Lock(stderr), highPriority)
	default:
		consoleCoreLP = zapcore.NewNopCore()
		consoleCoreHP = zapcore.NewNopCore()
	}

	// File

	var (
		fileCore zapcore.Core = zapcore.NewNopCore()
		closer   io.Closer    = nopCloser{}
		level    zap.AtomicLevel
	)
	switch conf.FileLogger.Level {
	case "debug":
		level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "normal":
		level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	if conf.FileLogger.Level == "debug" || conf.FileLogger.Level == "normal" {
		if conf.FileLogger.Destination == "" {
			return nil, nil, errors.New("file logger requires destination")
		}
		flags := os.O_CREATE | os.O_WRONLY
		if conf.FileLogger.Mode == "append" {
			flags |= os.O_APPEND
		} else {
			flags |= os.O_TRUNC
		}
		f, err := os.OpenFile(conf.FileLogger.Destination, flags, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("unable to access file log destination (%s): %w", conf.FileLogger.Destination, err)
		}
		fileCore = zapcore.NewCore(zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()), zapcore.Lock(f), level)
		closer = f
	}

	log := zap.New(zapcore.NewTee(consoleCoreHP, consoleCoreLP, fileCore), zap.AddCaller())
	return log.Named(AppName), syncCloser{log: log, c: closer}, nil
}

func consoleEncoderConfig(stream *os.File) zapcore.EncoderConfig {
	ec := zap.NewDevelopmentEncoderConfig()
	ec.EncodeCaller = nil
	if EnableColorOutput(stream) {
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
		ec.TimeKey = zapcore.OmitKey
	} else {
		ec.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	return ec
}

// EnableColorOutput checks if colorized output is possible.
func EnableColorOutput(stream *os.File) bool {
	return term.IsTerminal(int(stream.Fd()))
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

type syncCloser struct {
	log *zap.Logger
	c   io.Closer
}

func (s syncCloser) Close() error {
	// Sync on a console fd fails with EINVAL on some systems, ignore it
	_ = s.log.Sync()
	return s.c.Close()
}

// When logging error to console - do not output verbose message.

type consoleEnc struct {
	zapcore.Encoder
}

func newEncoder(cfg zapcore.EncoderConfig) zapcore.Encoder {
	return consoleEnc{zapcore.NewConsoleEncoder(cfg)}
}

func (c consoleEnc) Clone() zapcore.Encoder {
	return consoleEnc{c.Encoder.Clone()}
}

func (c consoleEnc) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	newFields := make([]zapcore.Field, 0, len(fields))
	for _, f := range fields {
		if f.Type == zapcore.ErrorType {
			e := f.Interface.(error)
			f.Interface = errors.New(e.Error())
		}
		newFields = append(newFields, f)
	}
	return c.Encoder.EncodeEntry(ent, newFields)
}
