package main

import (
	"github.com/spf13/cobra"
)

func newInteractiveCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "interactive",
		Short: "Ingest paths and run searches typed on stdin",
		Long: `Read one line at a time from stdin. A line naming an existing file or
directory is ingested; any other line is run as a search query.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := root.openApp(cmd)
			if err != nil {
				return err
			}
			return a.Run(cmd.Context())
		},
	}
}
