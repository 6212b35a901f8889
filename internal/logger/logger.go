package logger

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Logger struct {
	atomicLevel zap.AtomicLevel
	logger      *zap.Logger
	mu          sync.RWMutex
}

var (
	instance *Logger   //nolint:gochecknoglobals // Singleton pattern for logger
	once     sync.Once //nolint:gochecknoglobals // Singleton pattern for logger
)

// initLogger builds the shared console logger. Diagnostics go to stderr so that
// command output on stdout stays machine readable.
func initLogger() {
	instance = &Logger{
		atomicLevel: zap.NewAtomicLevelAt(zap.InfoLevel),
	}

	encoderCfg := zap.NewDevelopmentEncoderConfig()
	encoderCfg.TimeKey = "timestamp"
	encoderCfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000") // HH:MM:SS.mmm format
	encoderCfg.CallerKey = ""                                           // remove caller
	encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderCfg),
		zapcore.AddSync(os.Stderr),
		instance.atomicLevel,
	)

	instance.logger = zap.New(core)
}

func GetLogger() *zap.Logger {
	once.Do(initLogger)

	instance.mu.RLock()
	defer instance.mu.RUnlock()
	return instance.logger
}

func SetLevel(level zapcore.Level) {
	once.Do(initLogger)

	instance.mu.Lock()
	defer instance.mu.Unlock()
	instance.atomicLevel.SetLevel(level)
}

// Level reports the current level of the shared logger
func Level() zapcore.Level {
	once.Do(initLogger)

	instance.mu.RLock()
	defer instance.mu.RUnlock()
	return instance.atomicLevel.Level()
}

// ParseLevel maps a logging.level value such as "debug" or "WARN" to a zap level
func ParseLevel(name string) (zapcore.Level, error) {
	if strings.TrimSpace(name) == "" {
		return zapcore.InfoLevel, nil
	}
	level, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(name)))
	if err != nil {
		return zapcore.InfoLevel, fmt.Errorf("invalid log level %q: %w", name, err)
	}
	return level, nil
}
