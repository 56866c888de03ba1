// Followarr relays "new episode" webhooks from a media server into per-user
// Discord direct messages, gated by each user's show follows.
package main

import (
	"context"
	"errors"
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

	"golang.org/x/time/rate"
	"gopkg.in/natefinch/lumberjack.v2"

	"followarr/api"
	"followarr/config"
	"followarr/handlers"
	"followarr/internal/database"
	"followarr/services/discord"
	"followarr/services/follows"
	"followarr/services/metadata"
	"followarr/services/notify"
	"followarr/services/pipeline"
	"followarr/services/resolver"
	"followarr/utils"
)

const thumbsURLPrefix = "/media/thumbs"

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to config.toml")
	flag.Parse()

	if err := run(*configPath); err != nil {
		log.Fatalf("[main] %v", err)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if cfg.LogPath != "" {
		log.SetOutput(io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename:   cfg.LogPath,
			MaxSize:    20, // MB
			MaxBackups: 5,
			MaxAge:     30, // days
		}))
	}

	db, err := database.NewDB(database.Config{DatabasePath: cfg.DatabasePath})
	if err != nil {
		return err
	}
	defer db.Close()
	log.Printf("[main] database ready at %s", cfg.DatabasePath)

	metadataSvc := metadata.NewService(metadata.Options{APIKey: cfg.TVDBAPIKey})
	resolverSvc := resolver.NewService(db.Follows)
	messenger := discord.NewClient(cfg.DiscordBotToken, "")
	dispatcher := notify.NewDispatcher(messenger, time.Duration(cfg.DeliveryTimeoutSeconds)*time.Second)
	pipelineSvc := pipeline.NewService(resolverSvc, metadataSvc, dispatcher)
	followsSvc := follows.NewService(db.Follows, metadataSvc)

	thumbs, err := handlers.NewThumbnailStore(filepath.Join(cfg.DataDir, "thumbs"), cfg.PublicURL+thumbsURLPrefix)
	if err != nil {
		return err
	}

	router := utils.NewRouter()

	webhookHandler := handlers.NewWebhookHandler(pipelineSvc, thumbs)
	router.HandleFunc("/webhook/tautulli", webhookHandler.Tautulli).Methods(http.MethodPost)
	router.HandleFunc("/webhook/plex", webhookHandler.Plex).Methods(http.MethodPost)

	// 30 requests per minute per IP on the public follow API. Webhook routes
	// stay unlimited; the media server is a trusted caller.
	apiLimiter := api.NewIPRateLimiter(rate.Every(2*time.Second), 30)
	limited := func(h http.HandlerFunc) http.HandlerFunc {
		return api.RateLimitHandlerFunc(apiLimiter, h)
	}

	followsHandler := handlers.NewFollowsHandler(followsSvc)
	router.HandleFunc("/api/follows", limited(followsHandler.Follow)).Methods(http.MethodPost)
	router.HandleFunc("/api/follows", limited(followsHandler.Unfollow)).Methods(http.MethodDelete)
	router.HandleFunc("/api/users/{userID}/follows", limited(followsHandler.List)).Methods(http.MethodGet)

	router.PathPrefix(thumbsURLPrefix + "/").Handler(
		http.StripPrefix(thumbsURLPrefix+"/", http.FileServer(http.Dir(thumbs.Dir()))))

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[main] listening on %s", server.Addr)
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case sig := <-stop:
		log.Printf("[main] received %s, shutting down", sig)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("[main] server shutdown: %v", err)
	}

	// Let in-flight deliveries drain before closing the database.
	pipelineSvc.Wait()
	return nil
}
