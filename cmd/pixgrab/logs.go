package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/five82/pixgrab/internal/config"
	"github.com/five82/pixgrab/internal/logtail"
)

func newLogsCmd(configPath *string) *cobra.Command {
	var (
		lines   int
		noColor bool
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the end of the terminal interface log",
		Long: `The terminal interface writes its log to log_file instead of the screen.
logs prints the last lines of that file in readable form.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			tail, err := logtail.Read(cfg.LogFile, lines)
			if err != nil {
				return err
			}
			return logtail.Write(cmd.OutOrStdout(), tail, noColor)
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "number of lines to show (0 for all)")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "disable colored output")

	return cmd
}
