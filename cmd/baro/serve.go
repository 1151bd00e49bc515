package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"

	"github.com/mklimuk/baro/cmd/baro/console"
	"github.com/mklimuk/baro/exporter"
)

var serveCmd = cli.Command{
	Name:  "serve",
	Usage: "expose readings as a Prometheus exporter",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "listen",
			Value: ":9120",
			Usage: "exporter address",
		},
		&cli.DurationFlag{
			Name:  "max-age",
			Value: time.Second,
			Usage: "reuse a sample younger than this across scrapes",
		},
		&cli.DurationFlag{
			Name:  "sample-timeout",
			Value: 2 * time.Second,
			Usage: "give up a measurement after this long",
		},
	},
	Action: func(c *cli.Context) error {
		s, err := openSession(c)
		if err != nil {
			return err
		}
		defer s.Close()
		cal, err := s.calibrated()
		if err != nil {
			return console.ExitErr("sensor initialization error", err)
		}
		sampler := exporter.NewSampler(cal,
			exporter.WithSeaLevel(s.file.seaLevel()),
			exporter.WithMaxAge(c.Duration("max-age")),
		)
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector())
		exporter.Register(reg, sampler, c.Duration("sample-timeout"))

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		srv := &http.Server{
			Addr:              c.String("listen"),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			<-s.ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		slog.Info("serving metrics", "addr", srv.Addr)
		err = srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return console.ExitErr("exporter error", err)
		}
		return nil
	},
}
