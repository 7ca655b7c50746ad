package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/reflection"

	"github.com/dasmlab/lingosense/pkg/pipeline"
	"github.com/dasmlab/lingosense/pkg/profile"
	"github.com/dasmlab/lingosense/pkg/server"
	"github.com/dasmlab/lingosense/pkg/service"
	"github.com/dasmlab/lingosense/pkg/translate"
	"github.com/sirupsen/logrus"
)

var (
	// Server configuration flags
	port     = flag.Int("port", 50051, "gRPC server port")
	httpPort = flag.Int("http-port", 8080, "HTTP server port for the REST API, job status, SSE and metrics")

	// Translation engine configuration
	mtEngine     = flag.String("mt-engine", "libretranslate", "Translation engine: libretranslate, argos, nllb, subprocess, openai or static")
	mtURL        = flag.String("mt-url", "", "Base URL for HTTP translation engines (libretranslate, argos, openai)")
	mtModel      = flag.String("mt-model", "", "Model name: NLLB checkpoint for nllb, chat model for openai")
	mtCommand    = flag.String("mt-command", "", "Command line for the subprocess engine")
	workers      = flag.Int("workers", 2, "Number of NLLB worker processes")
	pythonPath   = flag.String("python", "python3", "Python interpreter for NLLB workers")
	workerScript = flag.String("worker-script", "", "Path to the NLLB worker script")
	chunkSize    = flag.Int("chunk-size", translate.DefaultChunkSize, "Split translation requests longer than this many bytes (0 disables)")

	// Pipeline configuration
	profilesPath     = flag.String("profiles", "", "YAML file with language profiles (built-in profiles when empty)")
	strategy         = flag.String("strategy", "bridge", "Target translation strategy: bridge or direct")
	concurrency      = flag.Int("concurrency", 4, "Maximum parallel target translations per request")
	translateTimeout = flag.Duration("translate-timeout", 2*time.Minute, "Timeout for a single translation call")
	jobMaxAge        = flag.Duration("job-max-age", time.Hour, "How long finished jobs are kept")

	// Logging configuration
	logLevel = flag.String("log-level", "info", "Log level: debug, info, warn, error")
)

func main() {
	flag.Parse()

	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})

	level, err := logrus.ParseLevel(*logLevel)
	if err != nil {
		logger.WithError(err).Warn("Invalid log level, using info")
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	logger.WithFields(logrus.Fields{
		"port":        *port,
		"http_port":   *httpPort,
		"mt_engine":   *mtEngine,
		"mt_url":      *mtURL,
		"strategy":    *strategy,
		"concurrency": *concurrency,
		"log_level":   level.String(),
	}).Info("Starting LingoSense server")

	registry, err := loadProfiles(*profilesPath)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load language profiles")
	}
	languages := make([]string, 0)
	for _, p := range registry.Profiles() {
		languages = append(languages, p.ModelTag())
	}
	logger.WithFields(logrus.Fields{
		"languages": languages,
	}).Info("Language profiles loaded")

	// Parsed before any worker process is started.
	strat, err := pipeline.ParseStrategy(*strategy)
	if err != nil {
		logger.WithError(err).Fatal("Invalid strategy")
	}

	engineType, err := translate.ParseEngineType(*mtEngine)
	if err != nil {
		logger.WithError(err).Fatal("Failed to parse translation engine type")
	}

	translator, err := translate.NewTranslator(translate.Config{
		Engine:       engineType,
		BaseURL:      *mtURL,
		Model:        *mtModel,
		APIKey:       os.Getenv("OPENAI_API_KEY"),
		Workers:      *workers,
		PythonPath:   *pythonPath,
		WorkerScript: *workerScript,
		Command:      strings.Fields(*mtCommand),
		Languages:    languages,
		ChunkSize:    *chunkSize,
		Logger:       logger,
	})
	if err != nil {
		logger.WithError(err).Fatal("Failed to create translator")
	}
	defer translator.Close()

	// Verify translator is healthy
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	logger.Info("Checking translator health...")
	if err := translator.CheckHealth(ctx); err != nil {
		logger.WithError(err).Warn("Translator health check failed, but continuing anyway")
		logger.Warn("Server will start, but translation requests may fail until translator is ready")
	} else {
		logger.Info("Translator health check passed")
	}
	cancel()

	pipe, err := newPipeline(pipeline.Config{
		Registry:         registry,
		Translator:       translator,
		Strategy:         strat,
		Concurrency:      *concurrency,
		TranslateTimeout: *translateTimeout,
		Logger:           logger,
	})
	if err != nil {
		logger.WithError(err).Fatal("Failed to create pipeline")
	}

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", *port))
	if err != nil {
		// Fatal skips deferred calls.
		translator.Close()
		logger.WithError(err).WithFields(logrus.Fields{
			"port": *port,
		}).Fatal("Failed to listen on port")
	}

	// Keepalive enforcement matches clients that ping every 30s.
	opts := []grpc.ServerOption{
		grpc.Creds(insecure.NewCredentials()),
		grpc.KeepaliveEnforcementPolicy(keepalive.EnforcementPolicy{
			MinTime:             15 * time.Second,
			PermitWithoutStream: true,
		}),
		grpc.KeepaliveParams(keepalive.ServerParameters{
			MaxConnectionIdle:     5 * time.Minute,
			MaxConnectionAge:      30 * time.Minute,
			MaxConnectionAgeGrace: 5 * time.Second,
			Time:                  30 * time.Second,
			Timeout:               10 * time.Second,
		}),
	}

	s := grpc.NewServer(opts...)

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(s, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(service.PipelineServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	service.RegisterPipelineServiceServer(s, service.NewPipelineService(pipe, logger))

	// Enable reflection for grpcurl/debugging
	reflection.Register(s)

	// Async jobs and the HTTP surface
	jobQueue := service.NewJobQueue(logger)
	jobQueue.SetProcessor(service.NewJobProcessor(pipe, logger, service.DefaultJobTimeout))
	httpServer := server.NewHTTPServer(pipe, translator, jobQueue, logger, *httpPort)

	bgCtx, bgCancel := context.WithCancel(context.Background())
	defer bgCancel()

	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				jobQueue.CleanupOldJobs(*jobMaxAge)
			case <-bgCtx.Done():
				return
			}
		}
	}()
	logger.WithFields(logrus.Fields{
		"cleanup_interval": "5m",
		"max_age":          jobMaxAge.String(),
	}).Info("Started job cleanup goroutine")

	// Periodic translator health, reflected in the gRPC health service
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(bgCtx, 10*time.Second)
				err := translator.CheckHealth(ctx)
				cancel()
				servingStatus := grpc_health_v1.HealthCheckResponse_SERVING
				if err != nil {
					logger.WithError(err).Warn("Translator health check failed")
					servingStatus = grpc_health_v1.HealthCheckResponse_NOT_SERVING
				}
				healthServer.SetServingStatus(service.PipelineServiceName, servingStatus)
				logger.WithFields(logrus.Fields{
					"jobs": jobQueue.Len(),
				}).Debug("Server metrics")
			case <-bgCtx.Done():
				return
			}
		}
	}()

	errChan := make(chan error, 2)
	go func() {
		logger.WithFields(logrus.Fields{
			"port": *port,
		}).Info("gRPC server listening")
		if err := s.Serve(lis); err != nil {
			errChan <- fmt.Errorf("failed to serve gRPC: %w", err)
		}
	}()
	go func() {
		if err := httpServer.Start(); err != nil {
			errChan <- fmt.Errorf("failed to serve HTTP: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		logger.WithError(err).Error("Server error")
	case sig := <-sigChan:
		logger.WithFields(logrus.Fields{
			"signal": sig.String(),
		}).Info("Received signal, shutting down gracefully...")
	}

	ctx, cancel = context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	healthServer.Shutdown()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.WithError(err).Warn("HTTP server shutdown failed")
	}

	stopped := make(chan struct{})
	go func() {
		s.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopped:
		logger.Info("Server stopped gracefully")
	case <-ctx.Done():
		logger.Warn("Graceful shutdown timeout, forcing stop...")
		s.Stop()
	}
}

func loadProfiles(path string) (*profile.Registry, error) {
	if path == "" {
		return profile.Default()
	}
	return profile.Load(path)
}

// newPipeline builds the pipeline and closes cfg.Translator when that fails,
// so worker processes do not outlive a fatal exit.
func newPipeline(cfg pipeline.Config) (*pipeline.Pipeline, error) {
	p, err := pipeline.New(cfg)
	if err != nil {
		if cfg.Translator != nil {
			cfg.Translator.Close()
		}
		return nil, err
	}
	return p, nil
}
