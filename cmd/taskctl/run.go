package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"taskctl/internal/command"
	"taskctl/internal/config"
	"taskctl/internal/dispatch"
	"taskctl/internal/observability"
	"taskctl/internal/transport"
)

var errNoDevice = errors.New("no serial device specified (use --device or the config file)")

// runCommand opens the device, starts the duplex transport, dispatches one
// command, then keeps draining device output to stdout until interrupted.
func runCommand(cmd command.Command, cfg config.Config) error {
	if cfg.Device == "" {
		return errNoDevice
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	port, err := transport.Open(cfg.Device, cfg.Baud)
	if err != nil {
		return err
	}
	tr := transport.New(port, os.Stdout, cfg.Transport)
	if err := tr.Start(ctx); err != nil {
		return err
	}
	defer tr.Close()

	go logTransientErrors(ctx, tr.Errors())
	serveMetrics(cfg.MetricsAddr)

	d := dispatch.New(tr, cfg.DumpPath)
	if err := d.Dispatch(ctx, cmd); err != nil {
		return err
	}

	log.Info().
		Str("device", cfg.Device).
		Int("baud", cfg.Baud).
		Msg("command dispatched, draining device output (interrupt to exit)")
	<-ctx.Done()
	return nil
}

func logTransientErrors(ctx context.Context, errs <-chan error) {
	for {
		select {
		case err := <-errs:
			log.Warn().Err(err).Msg("transient transport error")
		case <-ctx.Done():
			return
		}
	}
}

func serveMetrics(addr string) {
	if addr == "" {
		return
	}
	observability.RegisterMetrics()
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Warn().Err(err).Str("addr", addr).Msg("metrics listener stopped")
		}
	}()
}
