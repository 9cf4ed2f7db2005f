package cmd

import (
	"fmt"

	"github.com/agentic-research/quotaframe/internal/codec"
	"github.com/ohler55/ojg"
	"github.com/ohler55/ojg/oj"
	"github.com/spf13/cobra"
)

const queryExample = `  quotaframe query frame.json '$.variableDefinitions[*].name'
  quotaframe query plan.hcl '$..levels[?(@.target > 100)].name'`

func newQueryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "query [frame.json|plan.hcl] [jsonpath]",
		Short:   "Select parts of a frame document with JSONPath",
		Example: queryExample,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := a.loadFrame(args[0])
			if err != nil {
				return err
			}
			doc, err := codec.Marshal(f, a.codecOptions())
			if err != nil {
				return err
			}
			matches, err := codec.Query(doc, args[1])
			if err != nil {
				return err
			}
			for _, m := range matches {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), oj.JSON(m, &ojg.Options{Sort: true})); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
