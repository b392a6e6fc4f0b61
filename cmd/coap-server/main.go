// Command coap-server runs a standalone goapd listener with one
// example route registered, wiring configuration, logging, and
// lifecycle management into the server package.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/goapd/goapd/coap"
	"github.com/goapd/goapd/internal/config"
	"github.com/goapd/goapd/internal/obslog"
	"github.com/goapd/goapd/router"
	"github.com/goapd/goapd/server"
)

func main() {
	root := &cobra.Command{
		Use:          "coap-server",
		Short:        "Run a goapd CoAP server",
		SilenceUsage: true,
		RunE:         run,
	}
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := obslog.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	r := router.New()
	r.Register(coap.Get, "hello", helloHandler)

	srv := server.New(server.Config{
		ListenAddr:  cfg.ListenAddr,
		WorkerCount: cfg.Workers,
		ReadTimeout: cfg.ReadTimeout,
		Logger:      logger,
	}, server.RouterDispatcher(r))

	if err := srv.Start(); err != nil {
		return fmt.Errorf("start server: %w", err)
	}
	logger.Info("listening", zap.String("addr", cfg.ListenAddr))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-ctx.Done()
		srv.Stop()
		return nil
	})

	return g.Wait()
}

// helloHandler answers GET /hello with a fixed greeting, demonstrating
// the router-based dispatch path.
func helloHandler(req *router.Request) *coap.Message {
	if req.ResponseTemplate == nil {
		return nil
	}
	resp := *req.ResponseTemplate
	resp.Payload = []byte("hello")
	resp.SetContentFormat(coap.TextPlain)
	return &resp
}
