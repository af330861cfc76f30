package logx

import (
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	infraconfig "price-tracker/internal/infrastructure/config"
)

var (
	mu     sync.RWMutex
	logger *zap.Logger
)

func init() {
	logger = zap.New(zapcore.NewCore(encoder(), zapcore.Lock(os.Stderr), zap.InfoLevel), zap.AddCaller())
}

func encoder() zapcore.Encoder {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	return zapcore.NewJSONEncoder(encCfg)
}

// Init replaces the package logger with one writing to stderr and, when file
// is not empty, to a size-rotated log file. The returned func flushes both.
func Init(level, file string) (*zap.Logger, func(), error) {
	lvl := zap.NewAtomicLevelAt(zap.InfoLevel)
	if level != "" {
		if err := lvl.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
			return nil, func() {}, err
		}
	}

	cores := []zapcore.Core{zapcore.NewCore(encoder(), zapcore.Lock(os.Stderr), lvl)}
	var rotator *lumberjack.Logger
	if file != "" {
		rotator = &lumberjack.Logger{
			Filename:   file,
			MaxSize:    infraconfig.DefaultLogMaxSizeMB,
			MaxBackups: infraconfig.DefaultLogMaxBackups,
		}
		cores = append(cores, zapcore.NewCore(encoder(), zapcore.AddSync(rotator), lvl))
	}

	l := zap.New(zapcore.NewTee(cores...), zap.AddCaller())
	mu.Lock()
	logger = l
	mu.Unlock()

	cleanup := func() {
		_ = l.Sync()
		if rotator != nil {
			_ = rotator.Close()
		}
	}
	return l, cleanup, nil
}

// L returns the package-level logger instance.
func L() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}
