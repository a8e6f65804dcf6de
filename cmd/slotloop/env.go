package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/joeycumines/go-slotloop/eventloop"
	"github.com/joeycumines/go-slotloop/prommetrics"
	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"
)

// env holds the dependencies shared by every command.
type env struct {
	logger  *logiface.Logger[logiface.Event]
	metrics eventloop.Metrics
	server  *http.Server
}

func newEnv(c *cli.Context) (*env, error) {
	level, err := parseLevel(c.String("log-level"))
	if err != nil {
		return nil, cli.Exit(err.Error(), 2)
	}

	e := &env{
		logger: stumpy.L.New(
			stumpy.L.WithStumpy(stumpy.WithWriter(c.App.ErrWriter)),
			stumpy.L.WithLevel(level),
		).Logger(),
	}

	if addr := c.String("metrics-addr"); addr != "" {
		if err := e.serveMetrics(addr); err != nil {
			return nil, err
		}
	}

	return e, nil
}

func (e *env) serveMetrics(addr string) error {
	reg := prom.NewRegistry()
	exporter, err := prommetrics.New(prommetrics.Options{Registerer: reg})
	if err != nil {
		return err
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("metrics listener: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	e.server = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	e.metrics = exporter

	go func() {
		if err := e.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			e.logger.Err().Err(err).Log(`metrics server failed`)
		}
	}()

	e.logger.Info().Str(`addr`, listener.Addr().String()).Log(`serving metrics`)

	return nil
}

// loopOptions returns the options common to every loop a command creates.
func (e *env) loopOptions(name string) []eventloop.LoopOption {
	return []eventloop.LoopOption{
		eventloop.WithName(name),
		eventloop.WithLogger(e.logger),
		eventloop.WithMetrics(e.metrics),
	}
}

func (e *env) Close() error {
	if e.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	return e.server.Shutdown(ctx)
}

func parseLevel(s string) (logiface.Level, error) {
	for level := logiface.LevelDisabled; level <= logiface.LevelTrace; level++ {
		if level.String() == s {
			return level, nil
		}
	}
	return 0, fmt.Errorf("invalid log level: %q", s)
}
