package main

import (
	"fmt"

	"github.com/aretw0/espalier/internal/presentation/graph"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph <profile-id>",
	Short: "Export the resolved catalog as a diagram",
	Long:  `Resolves the profile and outputs a Mermaid diagram (graph TD) of its groups and controls.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadSettings(cmd)
		if err != nil {
			return err
		}
		params, _ := cmd.Flags().GetBool("params")
		highlight, _ := cmd.Flags().GetStringSlice("highlight")

		r, err := openResolver(cfg)
		if err != nil {
			return fmt.Errorf("error initializing espalier: %w", err)
		}
		out, err := r.Resolve(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		overlay := &graph.Overlay{Highlight: highlight}
		if params {
			overlay.Required = out.Required
			if overlay.Required == nil {
				overlay.Required = []string{}
			}
		}
		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(out.Catalog, overlay))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().Bool("params", false, "Draw the required parameters")
	graphCmd.Flags().StringSlice("highlight", nil, "Control IDs to highlight")
}
