package main

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/wastesort/wastesort/internal/analysis"
	"github.com/wastesort/wastesort/internal/classifier"
	"github.com/wastesort/wastesort/internal/config"
	"github.com/wastesort/wastesort/internal/handlers"
	"github.com/wastesort/wastesort/internal/metrics"
	"github.com/wastesort/wastesort/internal/model"
	"github.com/wastesort/wastesort/internal/preprocess"
	"github.com/wastesort/wastesort/internal/recommend"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if cfg.LogFilePath != "" {
		logFile, err := openLogFile(cfg.LogFilePath)
		if err != nil {
			log.Fatalf("Failed to open log file: %v", err)
		}
		defer logFile.Close()
		log.SetOutput(io.MultiWriter(os.Stderr, logFile))
	}

	labels, err := classifier.LoadLabels(cfg.LabelsPath)
	if err != nil {
		log.Fatalf("Failed to load labels: %v", err)
	}

	actions := recommend.DefaultMap()
	if cfg.RecommendationsPath != "" {
		actions, err = recommend.LoadMap(cfg.RecommendationsPath, cfg.ReplaceActions)
		if err != nil {
			log.Fatalf("Failed to load recommendations: %v", err)
		}
	}

	log.Printf("Loading model from: %s", cfg.ModelPath)

	modelServer, err := model.NewServer(cfg.ModelPath, cfg.MetadataPath, cfg.OrtLibraryPath)
	if err != nil {
		log.Fatalf("Failed to initialize model server: %v", err)
	}
	defer modelServer.Close()

	c, err := classifier.New(modelServer, labels)
	if err != nil {
		var cfgErr *classifier.ConfigurationError
		if errors.As(err, &cfgErr) {
			log.Fatalf("Model %s and labels %s are incompatible: %v", cfg.ModelPath, cfg.LabelsPath, err)
		}
		log.Fatalf("Failed to initialize classifier: %v", err)
	}

	imageSize := modelServer.ImageSize()
	if imageSize != cfg.ImageSize {
		log.Printf("Warning: image_size %d overridden by model metadata (%d)", cfg.ImageSize, imageSize)
	}
	preprocessor := preprocess.NewPreprocessor(imageSize)
	preprocessor.MaxPixels = cfg.MaxImagePixels

	m := metrics.New()
	analyzer := analysis.New(preprocessor, c, recommend.NewResolver(actions), m)
	handler := handlers.NewHandler(analyzer, c, handlers.Info{
		Model:     filepath.Base(cfg.ModelPath),
		ImageSize: imageSize,
		Classes:   labels,
	}, cfg.MaxUploadBytes)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler.Routes(m.Handler()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Printf("Server starting on port %s", cfg.Port)
	log.Printf("Classes: %v", labels)
	log.Printf("Recommendations: %d entries, fallback %q", actions.Len(), actions.Fallback())
	log.Println("Endpoints:")
	log.Println("  GET  /              - Upload page")
	log.Println("  POST /analyze       - Analyze uploaded image (HTML)")
	log.Println("  POST /predict/image - Analyze uploaded image (JSON)")
	log.Println("  POST /predict       - Raw tensor prediction")
	log.Println("  GET  /health        - Health check")
	log.Println("  GET  /metrics       - Prometheus metrics")

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}
