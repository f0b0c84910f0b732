// Command jarvisd runs the Jarvis agent execution service: the HTTP API,
// the browser session pool, the LLM provider facade, and (when configured)
// the async queue worker.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	_ "go.uber.org/automaxprocs"

	jarvis "github.com/jarvisrun/jarvis"
	"github.com/jarvisrun/jarvis/internal/jarvis/config"
	"github.com/jarvisrun/jarvis/internal/jarvis/options"
	"github.com/jarvisrun/jarvis/internal/jarvis/pkg/log"
)

func main() {
	opts := options.NewOptions()

	cmd := &cobra.Command{
		Use:   "jarvisd",
		Short: "Jarvis agent execution service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts)
		},
	}
	opts.AddFlags(cmd.Flags())

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(opts *options.Options) error {
	cfg, err := config.Load(opts)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg.WatchAndReload()

	srv, err := jarvis.New(cfg)
	if err != nil {
		return fmt.Errorf("build server: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		// A second signal forces an immediate exit instead of waiting on
		// graceful shutdown, for operators who need to kill a wedged process.
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		<-sigCh
		log.Warn("second interrupt received, forcing immediate exit")
		os.Exit(1)
	}()

	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("server run: %w", err)
	}
	return nil
}
