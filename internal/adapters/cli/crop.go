package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	grpcAdapter "github.com/andrescamacho/microgreens-go/internal/adapters/grpc"
	lifecycleCommands "github.com/andrescamacho/microgreens-go/internal/application/lifecycle/commands"
	lifecycleQueries "github.com/andrescamacho/microgreens-go/internal/application/lifecycle/queries"
)

// NewCropCommand creates the crop command with subcommands
func NewCropCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crop",
		Short: "Advance, revert and inspect individual crops",
		Long: `Move individual trays one stage forward or back and read their history.

Each call reports per-crop outcomes; crops that cannot move are listed with
the reason and the rest still move.

Examples:
  greens crop advance <crop-id> <crop-id> --expect germination
  greens crop revert <crop-id> --reason "advanced the wrong tray"
  greens crop history <crop-id>`,
	}

	cmd.AddCommand(newCropAdvanceCommand())
	cmd.AddCommand(newCropRevertCommand())
	cmd.AddCommand(newCropHistoryCommand())

	return cmd
}

func newCropAdvanceCommand() *cobra.Command {
	var (
		at     string
		expect string
	)

	cmd := &cobra.Command{
		Use:   "advance <crop-id>...",
		Short: "Advance crops to their next stage",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			when, err := parseAt(at)
			if err != nil {
				return err
			}
			var resp lifecycleCommands.TransitionResponse
			err = callDaemon(grpcAdapter.MethodAdvanceCrops, &lifecycleCommands.AdvanceCropsCommand{
				CropIDs:       args,
				At:            when,
				Actor:         actor,
				ExpectedStage: expect,
			}, &resp)
			if err != nil {
				return err
			}
			return printTransition(&resp)
		},
	}

	cmd.Flags().StringVar(&at, "at", "", "Transition time (RFC3339, default now)")
	cmd.Flags().StringVar(&expect, "expect", "", "Fail crops that are not currently in this stage")
	return cmd
}

func newCropRevertCommand() *cobra.Command {
	var (
		at     string
		reason string
	)

	cmd := &cobra.Command{
		Use:   "revert <crop-id>...",
		Short: "Revert crops to their previous stage",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			when, err := parseAt(at)
			if err != nil {
				return err
			}
			var resp lifecycleCommands.TransitionResponse
			err = callDaemon(grpcAdapter.MethodRevertCrops, &lifecycleCommands.RevertCropsCommand{
				CropIDs: args,
				Reason:  reason,
				At:      when,
				Actor:   actor,
			}, &resp)
			if err != nil {
				return err
			}
			return printTransition(&resp)
		},
	}

	cmd.Flags().StringVar(&at, "at", "", "Transition time (RFC3339, default now)")
	cmd.Flags().StringVar(&reason, "reason", "", "Why the crops go back (required for the revert to apply)")
	return cmd
}

func newCropHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history <crop-id>",
		Short: "Show a crop's stage history and tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var history lifecycleQueries.CropHistory
			if err := callDaemon(grpcAdapter.MethodGetCropHistory, &lifecycleQueries.GetCropHistoryQuery{CropID: args[0]}, &history); err != nil {
				return err
			}
			if outputJSON {
				return printJSON(history)
			}

			fmt.Printf("Crop %s, currently %s\n\n", history.CropID, history.CurrentStage)

			w := newTable()
			fmt.Fprintln(w, "STAGE\tENTERED\tEXITED\tBY\tNOTES")
			for _, e := range history.Entries {
				entered := e.EnteredAt
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", e.StageCode, formatTime(&entered), formatTime(e.ExitedAt), orDash(e.CreatedBy), e.Notes)
			}
			w.Flush()

			if len(history.Tasks) > 0 {
				fmt.Println()
				w = newTable()
				fmt.Fprintln(w, "TASK\tTYPE\tSTAGE\tSCHEDULED\tSTATUS")
				for _, t := range history.Tasks {
					scheduled := t.ScheduledAt
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", t.ID, t.TaskType, t.StageCode, formatTime(&scheduled), t.Status)
				}
				w.Flush()
			}
			return nil
		},
	}
	return cmd
}
