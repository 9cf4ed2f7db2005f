package cmd

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// ErrInvalidFrame is returned by commands that found rule violations, after
// the violations themselves have been printed.
var ErrInvalidFrame = errors.New("frame is invalid")

func newValidateCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "validate [frame.json|plan.hcl]",
		Short: "Check a quota frame against the frame rules",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := a.loadFrame(args[0])
			if err != nil {
				return err
			}

			res := a.validator().Validate(f)
			a.logger.Info("frame validated",
				zap.String("path", args[0]),
				zap.Bool("valid", res.IsValid),
				zap.Int("errors", len(res.Errors)),
			)

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(res); err != nil {
					return err
				}
			} else {
				printResult(cmd.OutOrStdout(), res)
			}

			if !res.IsValid {
				return fmt.Errorf("%s: %w (%d errors)", args[0], ErrInvalidFrame, len(res.Errors))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	return cmd
}
