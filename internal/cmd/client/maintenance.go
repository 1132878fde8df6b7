package client

import (
	"github.com/spf13/cobra"

	runsvc "github.com/runlog/runlog/internal/services/runs"
)

// NewConsolidateCommand constructs the `consolidate` command.
func NewConsolidateCommand(open OpenFunc) *cobra.Command {
	consolidateCmd := &cobra.Command{
		Use:   "consolidate",
		Short: "Merge a run's events into one line-delimited archive",
		RunE: func(cmd *cobra.Command, _ []string) error {
			runID, _ := cmd.Flags().GetString("run")
			compression, _ := cmd.Flags().GetString("compression")
			return withService(open, func(svc *runsvc.Service) error {
				res := svc.Consolidate(runID, compression)
				return printResult(cmd, res.Result, res)
			})
		},
	}
	consolidateCmd.Flags().StringP("run", "r", "", "Run id (org/project/uuid)")
	consolidateCmd.Flags().String("compression", "", "Archive compression: none|zstd")
	_ = consolidateCmd.MarkFlagRequired("run")
	return consolidateCmd
}

// NewIndexCommand constructs the `index` command group.
func NewIndexCommand(open OpenFunc) *cobra.Command {
	indexCmd := &cobra.Command{Use: "index", Short: "Run index operations"}

	rebuildCmd := &cobra.Command{
		Use:   "rebuild",
		Short: "Recompute the run listing index from the run directories",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withService(open, func(svc *runsvc.Service) error {
				res := svc.RebuildIndex()
				return printResult(cmd, res, res)
			})
		},
	}
	indexCmd.AddCommand(rebuildCmd)
	return indexCmd
}
