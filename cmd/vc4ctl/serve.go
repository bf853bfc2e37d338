//go:build linux

package main

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/urfave/cli/v3"

	"github.com/rpihpc/vc4"
	"github.com/rpihpc/vc4/internal/logger"
)

// serveCmd exposes device diagnostics over HTTP, for fleets of boards
// monitored remotely.
func serveCmd() *cli.Command {
	var (
		addr        string
		readTimeout time.Duration
	)

	return &cli.Command{
		Name:  "serve",
		Usage: "Serve device diagnostics over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "listen address",
				Value:       "127.0.0.1:9173",
				Destination: &addr,
			},
			&cli.DurationFlag{
				Name:        "read-timeout",
				Usage:       "read header timeout",
				Value:       10 * time.Second,
				Destination: &readTimeout,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			applyGlobalConfig(cmd, cfg)
			if cfg.ServerAddress != "" && !cmd.IsSet("addr") {
				addr = cfg.ServerAddress
			}

			log := logger.Default(logger.ParseLevel(logLevel))

			dev, err := vc4.OpenPaths(mailboxPath, memPath)
			if err != nil {
				return err
			}
			defer dev.Close()

			e := echo.New()
			e.Use(middleware.RequestLogger())
			e.Use(middleware.Recover())

			e.GET("/healthz", func(c *echo.Context) error {
				return c.String(http.StatusOK, "ok")
			})
			e.GET("/v1/info", func(c *echo.Context) error {
				info, err := dev.Info()
				if err != nil {
					return echo.NewHTTPError(http.StatusBadGateway, err.Error())
				}
				return c.JSON(http.StatusOK, info)
			})
			e.GET("/v1/host", func(c *echo.Context) error {
				return c.JSON(http.StatusOK, collectHostInfo())
			})

			log.Info("starting diagnostics server", "address", addr)
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
