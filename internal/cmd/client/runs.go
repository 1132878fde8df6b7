package client

import (
	"github.com/spf13/cobra"

	"github.com/runlog/runlog/internal/index"
	runsvc "github.com/runlog/runlog/internal/services/runs"
)

// NewRunsCommand constructs the `runs` command group and subcommands.
func NewRunsCommand(open OpenFunc) *cobra.Command {
	runsCmd := &cobra.Command{Use: "runs", Short: "Run operations"}

	runsCmd.AddCommand(
		newRunsCreateCommand(open),
		newRunsGetCommand(open),
		newRunsEventsCommand(open),
		newRunsListCommand(open),
	)

	return runsCmd
}

// newRunsCreateCommand constructs the `runs create` subcommand.
func newRunsCreateCommand(open OpenFunc) *cobra.Command {
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Provision a run directory",
		RunE: func(cmd *cobra.Command, _ []string) error {
			runID, _ := cmd.Flags().GetString("run")
			workID, _ := cmd.Flags().GetString("work-id")
			plan, _ := cmd.Flags().GetString("plan")
			return withService(open, func(svc *runsvc.Service) error {
				res := svc.CreateRun(runID, workID, plan)
				return printResult(cmd, res.Result, res)
			})
		},
	}
	createCmd.Flags().StringP("run", "r", "", "Run id (org/project/uuid)")
	createCmd.Flags().String("work-id", "", "Work item identifier")
	createCmd.Flags().String("plan", "", "Plan name")
	_ = createCmd.MarkFlagRequired("run")
	return createCmd
}

// newRunsGetCommand constructs the `runs get` subcommand.
func newRunsGetCommand(open OpenFunc) *cobra.Command {
	getCmd := &cobra.Command{
		Use:   "get",
		Short: "Show a run's metadata and state",
		RunE: func(cmd *cobra.Command, _ []string) error {
			runID, _ := cmd.Flags().GetString("run")
			includeEvents, _ := cmd.Flags().GetBool("include-events")
			return withService(open, func(svc *runsvc.Service) error {
				res := svc.GetRun(runID, includeEvents)
				return printResult(cmd, res.Result, res)
			})
		},
	}
	getCmd.Flags().StringP("run", "r", "", "Run id (org/project/uuid)")
	getCmd.Flags().Bool("include-events", false, "Include the committed event count")
	_ = getCmd.MarkFlagRequired("run")
	return getCmd
}

// newRunsEventsCommand constructs the `runs events` subcommand.
func newRunsEventsCommand(open OpenFunc) *cobra.Command {
	eventsCmd := &cobra.Command{
		Use:   "events",
		Short: "List a run's events in id order",
		RunE: func(cmd *cobra.Command, _ []string) error {
			runID, _ := cmd.Flags().GetString("run")
			filter, _ := cmd.Flags().GetString("filter")
			reverse, _ := cmd.Flags().GetBool("reverse")
			limit, _ := cmd.Flags().GetInt("limit")
			return withService(open, func(svc *runsvc.Service) error {
				res := svc.GetEvents(runID, runsvc.SearchOptions{
					Filter:  filter,
					Reverse: reverse,
					Limit:   limit,
				})
				return printResult(cmd, res.Result, res)
			})
		},
	}
	eventsCmd.Flags().StringP("run", "r", "", "Run id (org/project/uuid)")
	eventsCmd.Flags().String("filter", "", "CEL filter over event fields")
	eventsCmd.Flags().Bool("reverse", false, "Newest first")
	eventsCmd.Flags().Int("limit", 0, "Stop after N events (0 = all)")
	_ = eventsCmd.MarkFlagRequired("run")
	return eventsCmd
}

// newRunsListCommand constructs the `runs list` subcommand.
func newRunsListCommand(open OpenFunc) *cobra.Command {
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List runs, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			workID, _ := cmd.Flags().GetString("work-id")
			status, _ := cmd.Flags().GetString("status")
			org, _ := cmd.Flags().GetString("organization")
			project, _ := cmd.Flags().GetString("project")
			limit, _ := cmd.Flags().GetInt("limit")
			return withService(open, func(svc *runsvc.Service) error {
				res := svc.ListRuns(index.Filters{
					WorkID:       workID,
					Status:       status,
					Organization: org,
					Project:      project,
					Limit:        limit,
				})
				return printResult(cmd, res.Result, res)
			})
		},
	}
	listCmd.Flags().String("work-id", "", "Filter by work id")
	listCmd.Flags().String("status", "", "Filter by status")
	listCmd.Flags().String("organization", "", "Filter by organization")
	listCmd.Flags().String("project", "", "Filter by project")
	listCmd.Flags().Int("limit", 0, "Page size (0 = default)")
	return listCmd
}
