package main

import (
	"fmt"
	"time"

	"github.com/JaimeStill/pdf-reader/internal/config"
	"github.com/JaimeStill/pdf-reader/internal/lifecycle"
	"github.com/JaimeStill/pdf-reader/internal/logger"
	"github.com/JaimeStill/pdf-reader/internal/pipeline"
	"github.com/JaimeStill/pdf-reader/internal/routes"
	"github.com/JaimeStill/pdf-reader/internal/server"
	"github.com/JaimeStill/pdf-reader/internal/storage"
)

// Service coordinates the lifecycle of all subsystems.
type Service struct {
	lifecycle *lifecycle.Coordinator
	logger    logger.System
	storage   storage.System
	pipeline  *pipeline.Controller
	server    server.System
}

func NewService(cfg *config.Config) (*Service, error) {
	lc := lifecycle.New()
	loggerSys := logger.New(&cfg.Logging)
	log := loggerSys.Logger()

	storageSys, err := storage.New(&cfg.Storage, log)
	if err != nil {
		return nil, fmt.Errorf("storage init failed: %w", err)
	}

	ctrl, err := buildPipeline(cfg, storageSys, log)
	if err != nil {
		return nil, fmt.Errorf("pipeline init failed: %w", err)
	}

	handler := pipeline.NewHandler(ctrl, storageSys, cfg.Storage.MaxFileSizeBytes(), log)

	routeSys := routes.New(log)
	registerRoutes(routeSys, handler, lc)

	middlewareSys := buildMiddleware(loggerSys, cfg)
	serverSys := server.New(&cfg.Server, middlewareSys.Apply(routeSys.Build()), log)

	return &Service{
		lifecycle: lc,
		logger:    loggerSys,
		storage:   storageSys,
		pipeline:  ctrl,
		server:    serverSys,
	}, nil
}

// Start starts every subsystem and blocks until startup hooks complete.
func (s *Service) Start() error {
	s.logger.Logger().Info("starting service")

	if err := s.storage.Start(s.lifecycle); err != nil {
		return fmt.Errorf("storage start failed: %w", err)
	}
	if err := s.pipeline.Start(s.lifecycle); err != nil {
		return fmt.Errorf("pipeline start failed: %w", err)
	}
	if err := s.server.Start(s.lifecycle); err != nil {
		return fmt.Errorf("server start failed: %w", err)
	}

	s.lifecycle.WaitForStartup()
	s.logger.Logger().Info("service started", "addr", s.server.Addr())
	return nil
}

func (s *Service) Shutdown(timeout time.Duration) error {
	s.logger.Logger().Info("initiating shutdown")

	if err := s.lifecycle.Shutdown(timeout); err != nil {
		return err
	}

	s.logger.Logger().Info("all subsystems shut down successfully")
	return nil
}
