package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/thinhvd77/Tax/internal/config"
	"github.com/thinhvd77/Tax/internal/model"
	"github.com/thinhvd77/Tax/internal/server"
	"github.com/thinhvd77/Tax/internal/service/payroll"
	"github.com/thinhvd77/Tax/internal/util"
)

var (
	port      = flag.Int("port", 0, "listen port (config.toml wins when it sets one)")
	devMode   = flag.Bool("dev", false, "development mode")
	dataDir   = flag.String("dataDir", "", "data directory (overrides config)")
	out       = flag.String("out", "", "report path in file mode (default Bang_luong_<month>.xlsx)")
	month     = flag.String("month", "", "month label used in the report filename")
	noBrowser = flag.Bool("no-browser", false, "do not open the browser on start")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage:\n  %s [flags]                 serve the web UI and API\n  %s [flags] file.xlsx ...  consolidate files and write the report\n\nflags:\n", os.Args[0], os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	// .env is optional
	_ = godotenv.Load()

	cfg, info, cfgErr := config.LoadConfigWithInfo()
	if cfgErr != nil {
		cfg = config.DefaultConfig()
		info = config.LoadConfigInfo{}
	}
	if *port > 0 && !info.PortSpecified {
		cfg.Server.Port = *port
	}
	if *devMode {
		cfg.Server.DevMode = true
	}
	if *dataDir != "" {
		cfg.Data.DataDir = *dataDir
	}

	log, err := newLogger(cfg.Server.DevMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()
	zap.ReplaceGlobals(log)

	if cfgErr != nil {
		log.Warn("failed to load config, using defaults", zap.Error(cfgErr))
	} else if info.FileFound {
		log.Info("config loaded", zap.String("path", info.Path))
	}

	if flag.NArg() > 0 {
		if err := runFiles(cfg, log, flag.Args()); err != nil {
			log.Error("consolidation failed", zap.Error(err))
			os.Exit(1)
		}
		return
	}
	serve(cfg, log)
}

func newLogger(dev bool) (*zap.Logger, error) {
	if dev {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// runFiles consolidates local files without the HTTP server or run history
func runFiles(cfg *config.AppConfig, log *zap.Logger, paths []string) error {
	files := make([]model.UploadedFile, 0, len(paths))
	for _, p := range paths {
		buf, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("read %s: %w", p, err)
		}
		files = append(files, model.NewUploadedFile(filepath.Base(p), buf))
	}

	svc := payroll.NewService(payroll.Options{
		Policy:     cfg.Policy(),
		Thresholds: cfg.Thresholds(),
		SheetName:  cfg.Report.SheetName,
		Logger:     log.Named("payroll"),
	})
	rep, err := svc.Calculate(context.Background(), files, *month)
	if err != nil {
		return err
	}

	target := *out
	if target == "" {
		target = rep.Filename
	}
	if err := os.WriteFile(target, rep.Buffer, 0644); err != nil {
		return fmt.Errorf("write %s: %w", target, err)
	}
	for _, w := range rep.Warnings {
		log.Warn("review", zap.String("kind", string(w.Kind)), zap.String("source", w.Source), zap.String("message", w.Message))
	}
	log.Info("report written", zap.String("path", target), zap.Int("warnings", len(rep.Warnings)))
	return nil
}

func serve(cfg *config.AppConfig, log *zap.Logger) {
	srv := server.NewServer(cfg, log)
	defer func() {
		if err := srv.Close(); err != nil {
			log.Warn("failed to close store", zap.Error(err))
		}
	}()

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	url := fmt.Sprintf("http://localhost:%d", cfg.Server.Port)

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", zap.Int("port", cfg.Server.Port))
		errCh <- srv.Run(addr)
	}()

	if !cfg.Server.DevMode && !*noBrowser {
		if err := util.OpenBrowserWithFallback(url); err != nil {
			log.Info("open the browser manually", zap.String("url", url))
		}
	} else {
		log.Info("listening", zap.String("url", url))
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
		log.Info("shutting down")
	case err := <-errCh:
		log.Error("server stopped", zap.Error(err))
	}
}
