package main

import (
	"path/filepath"

	"github.com/spf13/cobra"

	clierrors "legal_chunker/internal/errors"
	"legal_chunker/internal/server"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var (
		addr  string
		flags chunkFlags
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the chunking and search HTTP API",
		Long: `Serve the HTTP API:

  POST /api/v1/chunk       chunk text from a JSON body
  POST /api/v1/documents   upload and index a document (multipart field "file")
  GET  /api/v1/search      search indexed chunks (?q=...&k=...)
  GET  /ws/chunk           stream chunks over a websocket
  GET  /healthz, /metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			defaults, err := flags.resolve(cmd.Flags(), root.cfg.ChunkOptions())
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				root.cfg.HTTPAddr = addr
			}

			a, err := root.openApp(cmd)
			if err != nil {
				return err
			}
			srv := server.New(a, server.Options{
				Defaults:  defaults,
				UploadDir: filepath.Join(root.cfg.DataDir, "uploads"),
				Logger:    root.logger,
				Metrics:   root.metrics,
			})
			if err := srv.Run(cmd.Context(), root.cfg.HTTPAddr); err != nil {
				return clierrors.NewNetworkError("HTTP server stopped", err.Error(), "Check that "+root.cfg.HTTPAddr+" is free", err)
			}
			return nil
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&addr, "addr", "", "Listen address (env HTTP_ADDR)")
	bindChunkFlags(fs, &flags)
	return cmd
}
