package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/agentic-research/quotaframe/internal/store"
	"github.com/spf13/cobra"
)

func (a *app) openStore() (*store.Store, error) {
	return store.Open(a.cfg.Store.Path,
		store.WithLogger(a.logger),
		store.WithValidator(a.validator()),
	)
}

func newStoreCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Manage frames in the SQLite store (see --db)",
	}
	cmd.AddCommand(
		newStorePutCmd(a),
		newStoreGetCmd(a),
		newStoreListCmd(a),
		newStoreNodesCmd(a),
		newStoreRmCmd(a),
	)
	return cmd
}

func newStorePutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "put [name] [frame.json|plan.hcl]",
		Short: "Validate a frame and store it under a name",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := a.loadFrame(args[1])
			if err != nil {
				return err
			}
			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			res, err := s.Put(cmd.Context(), args[0], f)
			if err != nil {
				return err
			}
			printResult(cmd.OutOrStdout(), res)
			return nil
		},
	}
}

func newStoreGetCmd(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "get [name]",
		Short: "Print a stored frame as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			f, err := s.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.writeFrame(cmd.OutOrStdout(), f, output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the frame to this file instead of stdout")
	return cmd
}

func newStoreListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored frames",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			frames, err := s.List(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "NAME\tVALID\tERRORS\tNODES\tUPDATED")
			for _, sum := range frames {
				_, _ = fmt.Fprintf(w, "%s\t%t\t%d\t%d\t%s\n",
					sum.Name, sum.Valid, sum.ErrorCount, sum.NodeCount, sum.Updated.Format(time.RFC3339))
			}
			return w.Flush()
		},
	}
}

func newStoreNodesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "nodes [name]",
		Short: "Print the flattened variables and levels of a stored frame",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			nodes, err := s.Nodes(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "SEQ\tKIND\tNAME\tID\tPARENT\tTARGET\tMAX")
			for _, n := range nodes {
				_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
					n.Seq, n.Kind, n.Name, n.ID, n.ParentID, count(n.Target), count(n.MaxTarget))
			}
			return w.Flush()
		},
	}
}

func newStoreRmCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "rm [name]",
		Aliases: []string{"delete"},
		Short:   "Remove a stored frame",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()
			return s.Delete(cmd.Context(), args[0])
		},
	}
}

func count(n *int) string {
	if n == nil {
		return "-"
	}
	return fmt.Sprint(*n)
}
