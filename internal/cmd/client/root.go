// Package client contains Cobra CLI commands for runlog.
package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	runsvc "github.com/runlog/runlog/internal/services/runs"
)

// OpenFunc opens the run store the commands operate on. The returned cleanup
// is invoked after the command completes.
type OpenFunc func() (*runsvc.Service, func(), error)

// Register adds all store command groups to the root command.
func Register(root *cobra.Command, open OpenFunc) {
	root.AddCommand(
		NewEmitCommand(open),
		NewRunsCommand(open),
		NewConsolidateCommand(open),
		NewIndexCommand(open),
	)
}

// printResult renders a service result as indented JSON on stdout. When the
// envelope reports an error the command still prints the body, then fails so
// scripts see a non-zero exit.
func printResult(cmd *cobra.Command, res runsvc.Result, body any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(body); err != nil {
		return err
	}
	if !res.OK() {
		return fmt.Errorf("%s: %s", res.Code, res.ErrorMessage)
	}
	return nil
}

// withService opens the store, runs fn, and releases resources.
func withService(open OpenFunc, fn func(*runsvc.Service) error) error {
	svc, cleanup, err := open()
	if err != nil {
		return err
	}
	defer cleanup()
	return fn(svc)
}
