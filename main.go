package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"sheetbridge/auth"
	"sheetbridge/config"
	"sheetbridge/drive"
	"sheetbridge/gateway"
	"sheetbridge/sheets"
)

func main() {
	app := &cli.App{
		Name:    "sheetbridge",
		Usage:   "Google Sheets and Drive operations as HTTP-invokable tools",
		Version: gateway.VERSION,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP gateway (manifest, dispatch, oauth exchange)",
				Action: runServe,
			},
			{
				Name:   "stdio",
				Usage:  "Serve the tool registry over newline-delimited JSON-RPC on stdin/stdout",
				Action: runStdio,
			},
			{
				Name:   "login",
				Usage:  "Obtain and store OAuth credentials for the stdio transport",
				Action: runLogin,
			},
			{
				Name:  "example-config",
				Usage: "Write an example config.json",
				Action: func(c *cli.Context) error {
					path := c.Args().First()
					if path == "" {
						path = "config.json"
					}
					return config.SaveExample(path)
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logrus.Fatal(err)
	}
}

func setup() (*config.Config, *logrus.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	level, err := logrus.ParseLevel(cfg.Global.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	return cfg, logger, nil
}

func newGateway(cfg *config.Config, logger *logrus.Logger) *gateway.Gateway {
	gw := gateway.New(cfg, logger)
	gw.RegisterService("sheets", sheets.NewHandler())
	gw.RegisterService("drive", drive.NewHandler())
	return gw
}

func runServe(c *cli.Context) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return newGateway(cfg, logger).ListenAndServe(ctx)
}

func runStdio(c *cli.Context) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	// stdio carries the protocol, so nothing may log to stdout.
	token, err := auth.LoadToken(cfg.OAuth)
	if err != nil {
		return err
	}

	return newGateway(cfg, logger).ServeStdio(context.Background(), token.AccessToken)
}

func runLogin(c *cli.Context) error {
	cfg, _, err := setup()
	if err != nil {
		return err
	}

	_, err = auth.Login(context.Background(), cfg.OAuth)
	return err
}
