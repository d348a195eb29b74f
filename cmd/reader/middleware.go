package main

import (
	"github.com/JaimeStill/pdf-reader/internal/config"
	"github.com/JaimeStill/pdf-reader/internal/logger"
	"github.com/JaimeStill/pdf-reader/internal/middleware"
)

func buildMiddleware(loggerSys logger.System, cfg *config.Config) middleware.System {
	middlewareSys := middleware.New()
	middlewareSys.Use(middleware.TrimSlash())
	middlewareSys.Use(middleware.Logger(loggerSys.Logger()))
	middlewareSys.Use(middleware.CORS(&cfg.CORS))
	return middlewareSys
}
