package main

import (
	"log/slog"

	"github.com/JaimeStill/pdf-reader/internal/config"
	"github.com/JaimeStill/pdf-reader/internal/document"
	"github.com/JaimeStill/pdf-reader/internal/pipeline"
	"github.com/JaimeStill/pdf-reader/internal/render"
	"github.com/JaimeStill/pdf-reader/internal/source"
	"github.com/JaimeStill/pdf-reader/internal/storage"
)

// buildPipeline wires the read, decode, and render stages into a Controller.
// Backend configuration errors surface here, before any selection is accepted.
func buildPipeline(cfg *config.Config, store storage.System, logger *slog.Logger) (*pipeline.Controller, error) {
	rasterizer, err := render.NewRasterizer(&cfg.Render, store, logger)
	if err != nil {
		return nil, err
	}

	renderer, err := render.NewRenderer(rasterizer, cfg.Render.Density, cfg.Render.RenderTimeoutDuration(), logger)
	if err != nil {
		return nil, err
	}

	loader, err := document.NewLoader(document.NewPDFCPU(), cfg.Render.DecodeTimeoutDuration(), logger)
	if err != nil {
		return nil, err
	}

	reader := source.NewReader(cfg.Storage.MaxFileSizeBytes(), logger)

	return pipeline.New(reader, loader, renderer, cfg.Render.Scale, logger)
}
