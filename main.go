package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"anistream/api"
	"anistream/config"
	"anistream/handlers"
	"anistream/internal/mediaresolve"
	"anistream/services/catalog"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"gopkg.in/natefinch/lumberjack.v2"
)

func main() {
	configFlag := flag.String("config", "", "path to an optional settings.json")
	portOverride := flag.Int("port", 0, "override server port from config")
	flag.Parse()

	fmt.Println("🚀 anistream backend starting...")

	// .env is optional; real environment variables win
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: could not read .env: %v", err)
	}

	configPath := *configFlag
	if configPath == "" {
		configPath = os.Getenv("ANISTREAM_CONFIG")
	}

	cfgManager := config.NewManager(configPath)
	settings, err := cfgManager.Load()
	if err != nil {
		log.Fatalf("failed to load settings: %v", err)
	}

	setupLogging(settings.Log)

	if *portOverride > 0 {
		settings.Server.Port = *portOverride
	}

	client := catalog.NewClient(settings.Upstream.BaseURL, settings.Upstream.Timeout(), nil)
	catalogService := catalog.NewService(client, settings.Upstream.DefaultServer, settings.Upstream.DefaultCategory)
	policy := mediaresolve.NewQualityPolicy(settings.Playback.QualityPriority)
	animeHandler := handlers.NewAnimeHandler(catalogService, policy)

	r := mux.NewRouter()
	api.Register(r, animeHandler, settings.Server.AllowedOrigins)

	addr := fmt.Sprintf("%s:%d", settings.Server.Host, settings.Server.Port)
	fmt.Printf("Server starting on %s\n", addr)
	fmt.Printf("Upstream catalog: %s (timeout %s)\n", client.BaseURL(), settings.Upstream.Timeout())
	fmt.Printf("Quality priority: %s\n", strings.Join(policy, ", "))

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-shutdownChan
	log.Println("🛑 Shutdown signal received, cleaning up...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("✅ Shutdown complete")
}

// setupLogging points the standard logger and slog at stdout, mirrored into
// a rotating file when one is configured.
func setupLogging(cfg config.LogConfig) {
	var out io.Writer = os.Stdout
	if cfg.File != "" {
		logDir := filepath.Dir(cfg.File)
		if err := os.MkdirAll(logDir, 0755); err != nil {
			log.Printf("Warning: could not create log directory %s: %v", logDir, err)
		} else {
			out = io.MultiWriter(os.Stdout, &lumberjack.Logger{
				Filename:   cfg.File,
				MaxSize:    cfg.MaxSize,
				MaxBackups: cfg.MaxBackups,
				MaxAge:     cfg.MaxAge,
				Compress:   cfg.Compress,
			})
		}
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})))

	// SetDefault reroutes the log package through slog; keep it writing directly.
	log.SetOutput(out)
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	if cfg.File != "" {
		log.Printf("Logging to file: %s", cfg.File)
	}
}
