package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newBuildCmd(a *app) *cobra.Command {
	var (
		output string
		force  bool
	)

	cmd := &cobra.Command{
		Use:   "build [plan.hcl]",
		Short: "Build a quota frame from an HCL plan and write it as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			start := time.Now()

			// 1. Plan -> frame
			f, err := a.loadFrame(args[0])
			if err != nil {
				return err
			}

			// 2. Refuse to write invalid frames unless forced
			res := a.validator().Validate(f)
			if !res.IsValid {
				if !force {
					printResult(cmd.ErrOrStderr(), res)
					return fmt.Errorf("%s: %w (%d errors)", args[0], ErrInvalidFrame, len(res.Errors))
				}
				a.logger.Warn("writing invalid frame", zap.Int("errors", len(res.Errors)))
			}

			// 3. Write
			if err := a.writeFrame(cmd.OutOrStdout(), f, output); err != nil {
				return err
			}
			a.logger.Info("frame built",
				zap.String("plan", args[0]),
				zap.Int("definitions", f.Definitions.Len()),
				zap.Duration("took", time.Since(start)),
			)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the frame to this file instead of stdout")
	cmd.Flags().BoolVar(&force, "force", false, "Write the frame even if it is invalid")
	return cmd
}
