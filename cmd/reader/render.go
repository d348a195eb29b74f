package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/JaimeStill/pdf-reader/internal/config"
	"github.com/JaimeStill/pdf-reader/internal/lifecycle"
	"github.com/JaimeStill/pdf-reader/internal/logger"
	"github.com/JaimeStill/pdf-reader/internal/pipeline"
	"github.com/JaimeStill/pdf-reader/internal/source"
	"github.com/JaimeStill/pdf-reader/internal/storage"
	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type renderOptions struct {
	output      string
	backend     string
	scale       float64
	density     float64
	credentials string
	verbose     bool
}

func newRenderCmd(root *rootOptions) *cobra.Command {
	opts := &renderOptions{}

	cmd := &cobra.Command{
		Use:   "render <file.pdf | gs://bucket/object>",
		Short: "Render the first page of a PDF to a PNG image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(root.configFile)
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("backend") {
				cfg.Render.Backend = opts.backend
			}
			if flags.Changed("scale") {
				cfg.Render.Scale = opts.scale
			}
			if flags.Changed("density") {
				cfg.Render.Density = opts.density
			}
			if err := cfg.Render.Validate(); err != nil {
				return fmt.Errorf("render flags: %w", err)
			}
			if !opts.verbose {
				cfg.Logging.Level = config.LogLevelWarn
			}

			return runRender(cmd.Context(), cfg, opts, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output PNG path (default: <name>.png)")
	cmd.Flags().StringVar(&opts.backend, "backend", config.BackendFitz, "rasterizer backend: fitz or imagemagick")
	cmd.Flags().Float64Var(&opts.scale, "scale", 1.0, "viewport scale")
	cmd.Flags().Float64Var(&opts.density, "density", 1.0, "device pixel density")
	cmd.Flags().StringVar(&opts.credentials, "credentials", "", "service account file for gs:// sources")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "log pipeline stages")

	return cmd
}

func runRender(ctx context.Context, cfg *config.Config, opts *renderOptions, target string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	log := logger.NewWithWriter(&cfg.Logging, os.Stderr).Logger()
	lc := lifecycle.New()
	defer lc.Shutdown(cfg.ShutdownTimeoutDuration())

	store, err := storage.New(&cfg.Storage, log)
	if err != nil {
		return err
	}
	if err := store.Start(lc); err != nil {
		return err
	}

	ctrl, err := buildPipeline(cfg, store, log)
	if err != nil {
		return err
	}
	defer ctrl.Close()

	handle, err := resolveSource(ctx, target, opts.credentials)
	if err != nil {
		printFailure(err.Error())
		return reported(err)
	}

	sp := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	sp.Writer = os.Stderr
	sp.Suffix = " " + pipeline.Idle().Readout()

	states, unsubscribe := ctrl.Subscribe(4)
	var final pipeline.State

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		for s := range states {
			sp.Lock()
			sp.Suffix = " " + s.Readout()
			sp.Unlock()
		}
		return nil
	})

	g.Go(func() error {
		defer unsubscribe()

		token, err := ctrl.Select(gctx, handle)
		if err != nil {
			if handle.Release != nil {
				handle.Release()
			}
			return err
		}

		sp.Start()
		final, err = ctrl.Wait(gctx, token)

		var stageErr *pipeline.StageError
		if errors.As(err, &stageErr) {
			return nil
		}
		return err
	})

	err = g.Wait()
	sp.Stop()

	if err != nil {
		if errors.Is(err, pipeline.ErrValidation) {
			color.New(color.FgYellow).Fprintf(os.Stderr, "⚠ %s\n", err)
		} else {
			printFailure(err.Error())
		}
		return reported(err)
	}

	if final.Status == pipeline.StatusError {
		printFailure(final.Readout())
		return reported(errors.New(final.Message))
	}

	color.New(color.FgGreen).Printf("✓ %s\n", final.Readout())

	surface := ctrl.Surface()
	if surface.Blank() {
		color.New(color.FgCyan).Println("ℹ document has no pages; nothing rendered")
		return nil
	}

	out := opts.output
	if out == "" {
		out = strings.TrimSuffix(filepath.Base(handle.Name), filepath.Ext(handle.Name)) + ".png"
	}

	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("create %s: %w", out, err)
	}
	defer f.Close()

	if err := surface.EncodePNG(f); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}

	b := surface.Bounds()
	color.New(color.FgBlue).Printf("→ %s (%dx%d px, density %g)\n", out, b.Dx(), b.Dy(), surface.Density())
	return nil
}

func resolveSource(ctx context.Context, target, credentials string) (source.FileHandle, error) {
	if !source.IsGCSURI(target) {
		return source.FromPath(target)
	}

	gcs, err := source.NewGCS(ctx, credentials)
	if err != nil {
		return source.FileHandle{}, err
	}

	handle, err := gcs.Handle(ctx, target)
	if err != nil {
		gcs.Close()
		return source.FileHandle{}, err
	}

	release := handle.Release
	handle.Release = func() {
		if release != nil {
			release()
		}
		gcs.Close()
	}
	return handle, nil
}

func printFailure(msg string) {
	color.New(color.FgRed).Fprintf(os.Stderr, "✗ %s\n", msg)
}

// reportedError wraps a failure that has already been printed.
type reportedError struct {
	error
}

func (e reportedError) Unwrap() error {
	return e.error
}

func reported(err error) error {
	return reportedError{err}
}
