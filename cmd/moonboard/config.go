package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/coreman2200/funtimes-moonboard/internal/config"
)

func newConfigCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage config.yaml",
	}
	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration to --config",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(g.cfgPath); err == nil && !force {
				return fmt.Errorf("%s exists, use --force to overwrite", g.cfgPath)
			}
			c := config.Default()
			if err := config.Save(g.cfgPath, &c); err != nil {
				return fmt.Errorf("write %s: %w", g.cfgPath, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", g.cfgPath)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	cmd.AddCommand(initCmd)
	return cmd
}
