package main

import (
	"github.com/spf13/cobra"

	"github.com/insuregraph/insuregraph/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the InsureGraph query service",
	Long: `Starts the HTTP service exposing POST /v1/query for policy questions
and GET /healthz for component health.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	rt, err := buildRuntime(ctx, cfg)
	if err != nil {
		return err
	}
	defer rt.close(ctx)

	srv := server.New(rt.pipeline, rt.components, rt.registry, rt.logger, server.Options{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		AllowedOrigins:  cfg.Server.AllowedOrigins,
	})

	return srv.Start(ctx)
}
