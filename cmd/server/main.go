package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/quangtran/tubequeue/internal/app"
	"github.com/quangtran/tubequeue/internal/config"
	"github.com/quangtran/tubequeue/internal/constants"
	"github.com/quangtran/tubequeue/internal/downloader"
	"github.com/quangtran/tubequeue/internal/events"
	"github.com/quangtran/tubequeue/internal/fetcher"
	"github.com/quangtran/tubequeue/internal/handlers"
	"github.com/quangtran/tubequeue/internal/logger"
	"github.com/quangtran/tubequeue/internal/netinfo"
	"github.com/quangtran/tubequeue/internal/queue"
	"github.com/quangtran/tubequeue/internal/store"
)

func main() {
	cfg := config.Load()

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	// Initialize Logger
	appLogger := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})

	// Initialize DB
	db, err := store.NewSQLiteDB(cfg.DBPath)
	if err != nil {
		appLogger.Error("Failed to init DB", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := os.MkdirAll(cfg.DownloadsDir, constants.DirPermissions); err != nil {
		appLogger.Error("Failed to create downloads directory", "dir", cfg.DownloadsDir, "error", err)
		os.Exit(1)
	}

	// Initialize core components
	q := queue.NewStore(netinfo.NewResolver())
	hub := events.NewHub()
	history := app.NewHistoryService(db, appLogger)
	ytdlp := fetcher.NewYTDLP()

	w := downloader.NewWorker(q, db, ytdlp, hub, cfg, appLogger)
	defer w.Stop()

	// Initialize Router
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	h := handlers.NewHandler(q, w, history, hub, ytdlp, cfg, appLogger)
	h.RegisterRoutes(r)

	// Bind the configured port, falling back to the next free one.
	listener, port, err := listenWithFallback(cfg.Port)
	if err != nil {
		appLogger.Error("Failed to bind a port", "port", cfg.Port, "error", err)
		os.Exit(1)
	}

	srv := &http.Server{Handler: r}

	go func() {
		appLogger.Info("Server listening", "addr", listener.Addr().String())
		if err := srv.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	if cfg.OpenBrowser {
		go func() {
			time.Sleep(constants.BrowserOpenDelay)
			openBrowser(fmt.Sprintf("http://localhost:%d", port), appLogger)
		}()
	}

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	appLogger.Info("Server exiting")
}

// listenWithFallback binds the requested port, probing successive ports
// when it is taken.
func listenWithFallback(portStr string) (net.Listener, int, error) {
	start, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, 0, fmt.Errorf("invalid port %q: %w", portStr, err)
	}

	var lastErr error
	for port := start; port < start+constants.MaxPortProbes && port <= 65535; port++ {
		listener, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
		if err == nil {
			return listener, port, nil
		}
		lastErr = err
	}
	return nil, 0, fmt.Errorf("no free port in [%d, %d): %w", start, start+constants.MaxPortProbes, lastErr)
}

func openBrowser(url string, log *logger.Logger) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}

	if err := cmd.Start(); err != nil {
		log.Warn("Failed to open browser", "url", url, "error", err)
	}
}
