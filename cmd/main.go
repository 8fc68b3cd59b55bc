package main

import (
	"go.uber.org/zap"

	"github.com/neonwave/radioboard/internal/app"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	srv, err := app.NewServer(logger)
	if err != nil {
		logger.Fatal("startup failed", zap.Error(err))
	}
	if err := srv.Run(); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}
