package logger

import (
	"fmt"

	"go.uber.org/zap"
)

var (
	base        *zap.Logger
	serviceName = "trader"
)

// Init builds the process-wide zap logger. Call once from main before any
// component logs.
func Init(service string) error {
	cfg := zap.NewProductionConfig()
	cfg.DisableStacktrace = true
	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return err
	}
	base = l
	serviceName = service
	return nil
}

func SetServiceName(newName string) string {
	oldName := serviceName
	serviceName = newName
	return oldName
}

func Sync() {
	if base != nil {
		_ = base.Sync()
	}
}

func log() *zap.Logger {
	if base == nil {
		base = zap.Must(zap.NewProduction(zap.AddCallerSkip(1)))
	}
	return base.With(zap.String("service", serviceName))
}

func Debug(format string, args ...interface{}) {
	log().Debug(fmt.Sprintf(format, args...))
}

func Info(format string, args ...interface{}) {
	log().Info(fmt.Sprintf(format, args...))
}

func Warn(format string, args ...interface{}) {
	log().Warn(fmt.Sprintf(format, args...))
}

func Error(format string, args ...interface{}) {
	log().Error(fmt.Sprintf(format, args...))
}

func Fatal(format string, args ...interface{}) {
	log().Fatal(fmt.Sprintf(format, args...))
}
