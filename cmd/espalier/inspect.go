package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/espalier"
	"github.com/aretw0/espalier/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <profile-id>",
	Short: "Summarize a resolved profile",
	Long:  `Resolves the profile and prints its statistics, control tree and required parameters.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadSettings(cmd)
		if err != nil {
			return err
		}
		r, err := openResolver(cfg)
		if err != nil {
			return fmt.Errorf("error initializing espalier: %w", err)
		}
		out, err := r.Resolve(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		if quiet, _ := cmd.Flags().GetBool("quiet"); !quiet {
			tui.PrintBanner(w, strings.TrimSpace(espalier.Version))
		}
		rendered, err := tui.NewRenderer(w)(tui.Summary(args[0], out))
		if err != nil {
			return err
		}
		fmt.Fprint(w, rendered)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().BoolP("quiet", "q", false, "Omit the banner")
}
