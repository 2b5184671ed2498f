// Package main runs the mock serial console multiplexer, a development
// stand-in for the firmware that serves simulated boards over WebSocket.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/universal-console/serialconsole/internal/logging"
	"github.com/universal-console/serialconsole/internal/mockserial"
)

type serverArgs struct {
	Addr        string
	Channels    int
	SilentPings bool
	Debug       int
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var args serverArgs

	cmd := &cobra.Command{
		Use:          "mockserial",
		Short:        "Serve simulated serial consoles over WebSocket",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), args)
		},
	}
	cmd.Flags().StringVar(&args.Addr, "addr", ":81", "listen address")
	cmd.Flags().IntVar(&args.Channels, "channels", mockserial.DefaultChannels, "number of simulated boards")
	cmd.Flags().BoolVar(&args.SilentPings, "silent-pings", false, "pass ping frames to the board like any other input instead of answering pong, like the firmware")
	cmd.Flags().IntVarP(&args.Debug, "debug", "d", 2, "log verbosity, 0 (errors) to 3 (everything)")
	return cmd
}

func serve(ctx context.Context, args serverArgs) error {
	logConfig := logging.DefaultConfig()
	logConfig.Level = logging.LevelFromVerbosity(args.Debug)
	logConfig.Component = "mockserial"
	if err := logging.InitGlobalLogger(logConfig); err != nil {
		return err
	}
	logger := logging.GetGlobalLogger().WithComponent("mockserial")

	opts := mockserial.DefaultOptions()
	opts.Channels = args.Channels
	opts.AnswerPings = !args.SilentPings
	srv := mockserial.NewServer(opts, logger)

	httpServer := &http.Server{
		Addr:              args.Addr,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Mock multiplexer listening", "addr", args.Addr, "channels", opts.Channels, "answer_pings", opts.AnswerPings)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen on %s: %w", args.Addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv.DropClients()
	return httpServer.Shutdown(shutdownCtx)
}
