package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// InitLogger 构建全局日志器，返回的函数用于退出前刷新缓冲
func InitLogger(logLevel string) func() {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level.SetLevel(parseLevel(logLevel))

	lgr, err := cfg.Build()
	if err != nil {
		panic(fmt.Errorf("构建日志器失败: %w", err))
	}

	lgr = lgr.With(zap.String("service", "mystery-train"))

	zap.ReplaceGlobals(lgr)

	return func() {
		_ = lgr.Sync()
	}
}

func parseLevel(logLevel string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(logLevel)) {
	case "debug":
		return zap.DebugLevel
	case "warn":
		return zap.WarnLevel
	case "error":
		return zap.ErrorLevel
	default:
		return zap.InfoLevel
	}
}
