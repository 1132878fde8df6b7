package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	runsvc "github.com/runlog/runlog/internal/services/runs"
)

// NewEmitCommand constructs the `emit` command.
func NewEmitCommand(open OpenFunc) *cobra.Command {
	emitCmd := &cobra.Command{
		Use:   "emit",
		Short: "Append one event to a run",
		RunE: func(cmd *cobra.Command, _ []string) error {
			runID, _ := cmd.Flags().GetString("run")
			typ, _ := cmd.Flags().GetString("type")
			phase, _ := cmd.Flags().GetString("phase")
			step, _ := cmd.Flags().GetString("step")
			status, _ := cmd.Flags().GetString("status")
			user, _ := cmd.Flags().GetString("user")
			source, _ := cmd.Flags().GetString("source")
			message, _ := cmd.Flags().GetString("message")
			errMsg, _ := cmd.Flags().GetString("error")
			metadataJSON, _ := cmd.Flags().GetString("metadata")
			artifacts, _ := cmd.Flags().GetStringSlice("artifact")
			durationMs, _ := cmd.Flags().GetInt64("duration-ms")

			req := runsvc.EmitRequest{
				RunID:     runID,
				Type:      typ,
				Phase:     phase,
				Step:      step,
				Status:    status,
				User:      user,
				Source:    source,
				Message:   message,
				Error:     errMsg,
				Artifacts: artifacts,
			}
			if cmd.Flags().Changed("duration-ms") {
				req.DurationMs = &durationMs
			}
			if metadataJSON != "" {
				if err := json.Unmarshal([]byte(metadataJSON), &req.Metadata); err != nil {
					return fmt.Errorf("invalid --metadata: %w", err)
				}
			}

			return withService(open, func(svc *runsvc.Service) error {
				res := svc.EmitEvent(req)
				return printResult(cmd, res.Result, res)
			})
		},
	}
	emitCmd.Flags().StringP("run", "r", "", "Run id (org/project/uuid)")
	emitCmd.Flags().StringP("type", "t", "", "Event type")
	emitCmd.Flags().String("phase", "", "Phase name")
	emitCmd.Flags().String("step", "", "Step name")
	emitCmd.Flags().String("status", "", "Status value")
	emitCmd.Flags().String("user", "", "User override")
	emitCmd.Flags().String("source", "", "Source override")
	emitCmd.Flags().StringP("message", "m", "", "Human-readable message")
	emitCmd.Flags().String("error", "", "Error description")
	emitCmd.Flags().String("metadata", "", "Metadata as a JSON object")
	emitCmd.Flags().StringSlice("artifact", nil, "Artifact path (repeatable)")
	emitCmd.Flags().Int64("duration-ms", 0, "Duration in milliseconds")
	_ = emitCmd.MarkFlagRequired("run")
	_ = emitCmd.MarkFlagRequired("type")
	return emitCmd
}
