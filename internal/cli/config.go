package cli

import (
	"github.com/spf13/cobra"

	"RevealBoard/internal/config"
)

func (c *CLI) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create configuration files",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "init [path]",
		Short: "Write the default configuration to a new file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "revealboard.toml"
			if len(args) == 1 {
				path = args[0]
			}
			if err := config.Default().WriteFile(path); err != nil {
				return err
			}
			printSuccess(c.Out, "Wrote default configuration")
			printFile(c.Out, path)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			return cfg.Write(c.Out)
		},
	})

	return cmd
}
