package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"BotDeck/api"
	"BotDeck/config"
	"BotDeck/internal/identity"
	"BotDeck/internal/operations"
	"BotDeck/utils"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.ngrok.com/ngrok"
	ngrokconfig "golang.ngrok.com/ngrok/config"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP backend",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) (err error) {
	cfg, err := config.LoadEnv()
	if err != nil {
		return err
	}
	if err := cfg.ValidateServer(); err != nil {
		return err
	}
	logger, err := utils.NewLogger(cfg.Env)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openSeededStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, store.Close()) }()

	links, err := newLinking(cfg, store, logger)
	if err != nil {
		return err
	}

	server := api.NewServer(api.Deps{
		Store:      store,
		Linker:     links.linker,
		Calendar:   links.creator,
		Operations: operations.NewRunner(store, logger.Named("operations")),
		Identity:   identity.NewClient(cfg.Supabase.URL, cfg.Supabase.AnonKey, nil),
		AppURL:     cfg.AppURL,
		ServiceKey: cfg.Bot.APIKey,
		Logger:     logger.Named("api"),
	})

	srv := &http.Server{
		Handler:           SetupRouter(server, logger.Named("http")),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ln, err := listen(ctx, cfg, logger)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// listen opens an ngrok tunnel when NGROK_AUTHTOKEN is set, otherwise a
// local TCP listener on PORT.
func listen(ctx context.Context, cfg *config.Config, logger *zap.Logger) (net.Listener, error) {
	if cfg.Ngrok.AuthToken == "" {
		ln, err := net.Listen("tcp", ":"+cfg.Port)
		if err != nil {
			return nil, fmt.Errorf("listen on port %s: %w", cfg.Port, err)
		}
		logger.Info("Server running", zap.String("port", cfg.Port))
		return ln, nil
	}

	tun, err := ngrok.Listen(ctx, ngrokconfig.HTTPEndpoint(), ngrok.WithAuthtoken(cfg.Ngrok.AuthToken))
	if err != nil {
		return nil, fmt.Errorf("open ngrok tunnel: %w", err)
	}
	logger.Info("Server running behind ngrok",
		zap.String("url", tun.URL()),
		zap.String("oauth_redirect", tun.URL()+config.CallbackPath))
	if tun.URL()+config.CallbackPath != cfg.RedirectURL() {
		logger.Warn("BASE_URL does not match the tunnel, OAuth callbacks will not reach this server",
			zap.String("base_url", cfg.BaseURL))
	}
	return tun, nil
}
