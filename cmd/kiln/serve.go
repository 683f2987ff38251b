package main

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/urfave/cli/v3"

	"kiln/internal/api"
)

func serveCmd() *cli.Command {
	var (
		addr        string
		readTimeout time.Duration
		rps         float64
	)

	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the generation REST API",
		Flags: append(commonFlags(),
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "listen address",
				Value:       "127.0.0.1:8080",
				Destination: &addr,
			},
			&cli.DurationFlag{
				Name:        "read-timeout",
				Usage:       "read timeout",
				Value:       30 * time.Second,
				Destination: &readTimeout,
			},
			&cli.Float64Flag{
				Name:        "rps",
				Usage:       "max generation requests per second (0 = unlimited)",
				Destination: &rps,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := newLogger()
			cfg := loadFileConfig(log)
			applyFileConfig(cmd, cfg)
			if cfg.ServerAddress != "" && !cmd.IsSet("addr") {
				addr = cfg.ServerAddress
			}

			engine, err := buildEngine(log)
			if err != nil {
				return err
			}

			server := api.NewServer(engine, rps)
			e := echo.New()
			e.Use(middleware.RequestLogger())
			e.Use(middleware.Recover())
			server.Register(e)

			log.Info("starting server", "address", addr)
			sc := echo.StartConfig{
				Address: addr,
				BeforeServeFunc: func(srv *http.Server) error {
					srv.ReadHeaderTimeout = readTimeout
					return nil
				},
			}
			return sc.Start(ctx, e)
		},
	}
}
