package menuservice

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/menucockpit/server/internal/api"
	"github.com/menucockpit/server/internal/chat"
	"github.com/menucockpit/server/internal/config"
	"github.com/menucockpit/server/internal/docstore"
	"github.com/menucockpit/server/internal/driveindex"
	"github.com/menucockpit/server/internal/drivejob"
	"github.com/menucockpit/server/internal/health"
	"github.com/menucockpit/server/internal/llm"
	"github.com/menucockpit/server/internal/logger"
	"github.com/menucockpit/server/internal/recipe"
	"github.com/menucockpit/server/internal/week"
)

// Run starts the menu service HTTP server and blocks until shutdown or error.
func Run() error {
	log := logger.New("menu-service")

	cfg, err := config.New()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		return err
	}

	log.Info().
		Int("http_port", cfg.HTTPPort).
		Str("data_dir", cfg.DataDir).
		Str("drive_index", cfg.DriveIndexFile).
		Str("llm_model", cfg.LLMModel).
		Msg("Menu service starting")

	// Create cancellable root context bound to SIGINT/SIGTERM
	ctx, stop := newServerContext()
	defer stop()

	if err := ensureDataDirs(cfg); err != nil {
		log.Error().Stack().Err(err).Msg("Data directories unavailable")
		return err
	}

	router := buildRouter(ctx, cfg, log)

	// Liveness is tied to the data root staying writable; everything else
	// (drive index, LLM) degrades rather than failing the service.
	dirChecker := health.NewDataDirChecker(cfg.DataDir, log)
	go dirChecker.Start(ctx, 30*time.Second)
	svcHealth := health.NewServiceHealthChecker(log, dirChecker)
	go svcHealth.Start(ctx, 30*time.Second)
	api.BindServiceHealth(svcHealth.IsHealthy)

	server := newHTTPServer(ctx, cfg, router)
	errCh := serveHTTP(server, log, cfg)

	// Graceful shutdown on context cancel or server error
	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down server")
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctxShutdown); err != nil {
			log.Error().Stack().Err(err).Msg("Server forced to shutdown")
			return err
		}
		log.Info().Msg("Server exited")
		return nil
	case err := <-errCh:
		log.Error().Stack().Err(err).Msg("HTTP server failed")
		return err
	}
}

// buildRouter wires the document store, drive index, job tracker and domain
// services into the HTTP router.
func buildRouter(ctx context.Context, cfg *config.Config, log zerolog.Logger) http.Handler {
	store := docstore.New()

	idx := driveindex.New(cfg.DriveIndexFile, store, log)
	idx.Reload()
	go func() {
		if err := idx.Watch(ctx); err != nil {
			log.Warn().Err(err).Msg("drive index watcher unavailable")
		}
	}()

	tracker := drivejob.New(store, cfg.RescanScript, cfg.UploadScript,
		cfg.JobsDir, cfg.LogsDir,
		time.Duration(cfg.RescanMinIntervalSec)*time.Second,
		time.Duration(cfg.JobMaxRuntimeSec)*time.Second, log)

	recipes := recipe.NewService(store, idx, tracker, cfg.RecipesDir, log)
	weeks := week.NewService(store, recipes, cfg.WeeksDir, cfg.RulesFile, cfg.Timezone, log)
	gen := llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel,
		time.Duration(cfg.LLMTimeoutSec)*time.Second)
	chats := chat.NewService(store, gen, cfg.ChatsDir, log)

	return api.NewRouter(weeks, recipes, chats, tracker)
}

// ensureDataDirs creates the document directories up front so the first
// request never races directory creation.
func ensureDataDirs(cfg *config.Config) error {
	for _, dir := range []string{cfg.DataDir, cfg.WeeksDir, cfg.RecipesDir, cfg.ChatsDir, cfg.JobsDir, cfg.LogsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}

func newHTTPServer(ctx context.Context, cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
}

func serveHTTP(server *http.Server, log zerolog.Logger, cfg *config.Config) <-chan error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.HTTPPort).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	return errCh
}

// newServerContext returns a cancellable context that is cancelled on SIGINT/SIGTERM.
func newServerContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
