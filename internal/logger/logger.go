// Package logger собирает zap-логгер приложения.
package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// New создаёт production-логгер. При непустом filePath лог дублируется
// в файл с ротацией.
func New(filePath string) (*zap.Logger, error) {
	if filePath == "" {
		return zap.NewProduction()
	}

	encoder := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())

	fileSink := zapcore.AddSync(&lumberjack.Logger{
		Filename:   filePath,
		MaxSize:    100, // мегабайт
		MaxBackups: 3,
		MaxAge:     28, // дней
		Compress:   true,
	})

	core := zapcore.NewTee(
		zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), zapcore.InfoLevel),
		zapcore.NewCore(encoder, fileSink, zapcore.InfoLevel),
	)

	return zap.New(core), nil
}
