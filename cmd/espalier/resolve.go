package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/espalier/pkg/adapters/file"
	"github.com/aretw0/espalier/pkg/codec"
	"github.com/spf13/cobra"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <profile-id>",
	Short: "Resolve a profile into a catalog",
	Long: `Resolves the profile and writes the resulting catalog to stdout, or to the
file given with --output. The format follows --format, or the output file extension.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadSettings(cmd)
		if err != nil {
			return err
		}
		output, _ := cmd.Flags().GetString("output")
		formatName, _ := cmd.Flags().GetString("format")

		format := codec.FormatFromPath(output)
		if cmd.Flags().Changed("format") || output == "" {
			if format, err = codec.ParseFormat(formatName); err != nil {
				return err
			}
		}

		r, err := openResolver(cfg)
		if err != nil {
			return fmt.Errorf("error initializing espalier: %w", err)
		}
		out, err := r.Resolve(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		if output == "" {
			data, err := codec.EncodeCatalog(out.Catalog, format)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		}
		if err := file.WriteCatalog(output, out.Catalog, format); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s (%d controls", output, len(out.Catalog.AllControls()))
		if len(out.Required) > 0 {
			fmt.Fprintf(cmd.ErrOrStderr(), ", required params: %s", strings.Join(out.Required, ", "))
		}
		fmt.Fprintln(cmd.ErrOrStderr(), ")")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resolveCmd)
	resolveCmd.Flags().StringP("output", "o", "", "Write the catalog to this file instead of stdout")
	resolveCmd.Flags().StringP("format", "f", "json", "Output format: json or yaml")
}
