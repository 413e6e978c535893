// Command recoserve 启动推荐 HTTP 服务。
//
//	recoserve -config config.yaml
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rushteam/recoserve/config"
	"github.com/rushteam/recoserve/pkg/logging"
	"github.com/rushteam/recoserve/server"
)

func main() {
	configPath := flag.String("config", "", "配置文件路径，为空时按 RECO_CONFIG 与默认路径查找")
	flag.Parse()

	if err := run(*configPath); err != nil {
		logging.Fatal().Err(err).Msg("recoserve exited")
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logging.Init(cfg.Logging)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := config.Build(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			logging.Warn().Err(err).Msg("close backends")
		}
	}()

	opts := server.Options{RequestTimeout: cfg.Server.RequestTimeout}
	if cfg.Server.Debug {
		opts.Debug = app.Index
	}
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           server.New(app.Recommender, []server.Backend{app.Index, app.Features}, opts).Handler(),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", srv.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logging.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
