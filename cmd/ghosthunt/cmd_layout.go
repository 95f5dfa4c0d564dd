package main

import (
	"github.com/spf13/cobra"

	"github.com/MRamiBalles/CasaEmbrujada/internal/layout"
)

func newLayoutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Print the active house layout",
		Long: `Print the layout runs will use: the file named by layout.path, or the
built-in house. The output can be edited and loaded back.

Examples:
  ghosthunt layout > house.toml
  ghosthunt layout --format yaml > house.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := setup(cmd, nil)
			if err != nil {
				return err
			}
			spec, err := layout.LoadOrDefault(cfg.Layout.Path)
			if err != nil {
				return err
			}
			if err := spec.Validate(); err != nil {
				return err
			}
			format, _ := cmd.Flags().GetString("format")
			return layout.Encode(cmd.OutOrStdout(), spec, format)
		},
	}

	cmd.Flags().String("format", "toml", "Output format: toml or yaml")
	return cmd
}
