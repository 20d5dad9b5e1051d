package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"gopkg.in/natefinch/lumberjack.v2"

	"nido/api"
	"nido/config"
	"nido/handlers"
	"nido/services/accounts"
	"nido/services/goals"
	"nido/services/metadata"
	"nido/services/plans"
	"nido/services/roulette"
	"nido/services/sessions"
	"nido/services/store"
	"nido/services/watchlist"
)

func main() {
	portFlag := flag.Int("port", 0, "listen port (overrides settings)")
	flag.Parse()

	configPath := os.Getenv("NIDO_CONFIG")
	if configPath == "" {
		configPath = "storage/settings.json"
	}

	configManager := config.NewManager(configPath)
	settings, err := configManager.Load()
	if err != nil {
		log.Fatalf("load settings: %v", err)
	}
	if *portFlag != 0 {
		settings.Server.Port = *portFlag
	}
	if key := os.Getenv("NIDO_TMDB_API_KEY"); key != "" {
		settings.Metadata.TMDBAPIKey = key
	}

	if err := os.MkdirAll(settings.Storage.Directory, 0o755); err != nil {
		log.Fatalf("create storage directory: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(settings.Log.File), 0o755); err != nil {
		log.Fatalf("create log directory: %v", err)
	}

	logWriter := &lumberjack.Logger{
		Filename:   settings.Log.File,
		MaxSize:    settings.Log.MaxSizeMB,
		MaxBackups: settings.Log.MaxBackups,
		MaxAge:     settings.Log.MaxAgeDays,
		Compress:   settings.Log.Compress,
	}
	log.SetOutput(io.MultiWriter(os.Stdout, logWriter))

	st, err := store.Open(settings.Database.Path)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}

	accountsSvc, err := accounts.NewService(settings.Storage.Directory)
	if err != nil {
		log.Fatalf("load accounts: %v", err)
	}
	sessionsSvc := sessions.NewService(time.Duration(settings.Sessions.TTLHours) * time.Hour)

	watchlistSvc := watchlist.NewService(st)
	plansSvc := plans.NewService(st)
	goalsSvc := goals.NewService(st)
	metadataSvc := metadata.NewService(settings.Metadata.TMDBAPIKey, settings.Metadata.Language, nil)
	rouletteSvc := roulette.NewService(plansSvc, watchlistSvc)

	authHandler := handlers.NewAuthHandler(accountsSvc, sessionsSvc)
	pagesHandler := handlers.NewPagesHandler(settings.App)

	r := mux.NewRouter()
	api.Register(r,
		authHandler,
		pagesHandler,
		handlers.NewWatchlistHandler(watchlistSvc),
		handlers.NewPlansHandler(plansSvc),
		handlers.NewGoalsHandler(goalsSvc),
		handlers.NewMetadataHandler(metadataSvc),
		handlers.NewRouletteHandler(rouletteSvc),
		handlers.NewEventsHandler(st),
	)

	addr := fmt.Sprintf("%s:%d", settings.Server.Host, settings.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.Printf("[nido] listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Println("[nido] shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("[nido] shutdown: %v", err)
	}

	rouletteSvc.Close()
	watchlistSvc.Close()
	plansSvc.Close()
	goalsSvc.Close()
	if err := st.Close(); err != nil {
		log.Printf("[nido] close store: %v", err)
	}
}
