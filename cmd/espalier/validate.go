package main

import (
	"errors"
	"fmt"

	"github.com/aretw0/espalier/internal/validator"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [profile-id...]",
	Short: "Check profiles for consistency",
	Long: `Crawls the import graph of each profile, resolves it and checks the result.
Reports import cycles, missing profiles, duplicate IDs and missing parameters.
Without arguments every profile in the repository is checked.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadSettings(cmd)
		if err != nil {
			return err
		}
		r, err := openResolver(cfg)
		if err != nil {
			return fmt.Errorf("error initializing espalier: %w", err)
		}

		ids := args
		if len(ids) == 0 {
			if ids, err = r.Profiles(cmd.Context()); err != nil {
				return err
			}
		}

		w := cmd.OutOrStdout()
		failed := 0
		for _, id := range ids {
			err := r.Validate(cmd.Context(), id)
			if err == nil {
				fmt.Fprintf(w, "✅ %s\n", id)
				continue
			}
			failed++
			fmt.Fprintf(w, "❌ %s\n", id)
			var agg *validator.AggregateError
			if errors.As(err, &agg) {
				for _, issue := range agg.Errors {
					fmt.Fprintf(w, "   - %v\n", issue)
				}
			} else {
				fmt.Fprintf(w, "   - %v\n", err)
			}
		}
		if failed > 0 {
			return fmt.Errorf("validation failed for %d of %d profiles", failed, len(ids))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
