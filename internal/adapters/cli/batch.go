package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	grpcAdapter "github.com/andrescamacho/microgreens-go/internal/adapters/grpc"
	lifecycleCommands "github.com/andrescamacho/microgreens-go/internal/application/lifecycle/commands"
	lifecycleQueries "github.com/andrescamacho/microgreens-go/internal/application/lifecycle/queries"
)

// NewBatchCommand creates the batch command with subcommands
func NewBatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Create batches and move them through stages",
		Long: `Create crop batches, inspect their current state and advance or revert
every crop of a batch in one call.

Examples:
  greens batch create --recipe sunflower-std --trays 12 --order ORD-7
  greens batch state <batch-id>
  greens batch advance <batch-id> --stage germination
  greens batch revert <batch-id> --stage blackout --reason "lights failed"`,
	}

	cmd.AddCommand(newBatchCreateCommand())
	cmd.AddCommand(newBatchStateCommand())
	cmd.AddCommand(newBatchAdvanceCommand())
	cmd.AddCommand(newBatchRevertCommand())

	return cmd
}

func newBatchCreateCommand() *cobra.Command {
	var (
		recipeID string
		trays    int
		orderID  string
		planID   string
		at       string
		notes    string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a batch of trays for a recipe",
		RunE: func(cmd *cobra.Command, args []string) error {
			when, err := parseAt(at)
			if err != nil {
				return err
			}

			var resp lifecycleCommands.CreateBatchResponse
			err = callDaemon(grpcAdapter.MethodCreateBatch, &lifecycleCommands.CreateBatchCommand{
				RecipeID:   recipeID,
				TrayCount:  trays,
				OrderID:    orderID,
				CropPlanID: planID,
				At:         when,
				Actor:      actor,
				Notes:      notes,
			}, &resp)
			if err != nil {
				return err
			}
			if outputJSON {
				return printJSON(resp)
			}

			fmt.Printf("✓ Batch %s created\n", resp.BatchID)
			fmt.Printf("  Trays:           %d\n", len(resp.CropIDs))
			fmt.Printf("  Initial stage:   %s\n", resp.InitialStage)
			fmt.Printf("  Tasks scheduled: %d\n", resp.TasksScheduled)
			for _, warning := range resp.Warnings {
				fmt.Printf("Warning [%s] %s\n", warning.Kind, warning.Message)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&recipeID, "recipe", "", "Recipe ID (required)")
	cmd.Flags().IntVar(&trays, "trays", 1, "Number of trays")
	cmd.Flags().StringVar(&orderID, "order", "", "Order the batch is grown for")
	cmd.Flags().StringVar(&planID, "plan", "", "Crop plan the batch fulfils")
	cmd.Flags().StringVar(&at, "at", "", "Start time (RFC3339, default now)")
	cmd.Flags().StringVar(&notes, "notes", "", "Notes stored on every crop")
	cmd.MarkFlagRequired("recipe")

	return cmd
}

func newBatchStateCommand() *cobra.Command {
	var at string

	cmd := &cobra.Command{
		Use:   "state <batch-id>",
		Short: "Show the current state and timing of a batch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			now, err := parseAt(at)
			if err != nil {
				return err
			}

			var state lifecycleQueries.BatchState
			if err := callDaemon(grpcAdapter.MethodGetBatchState, &lifecycleQueries.GetBatchStateQuery{BatchID: args[0], Now: now}, &state); err != nil {
				return err
			}
			if outputJSON {
				return printJSON(state)
			}

			fmt.Printf("Batch %s (recipe %s)\n", state.BatchID, state.RecipeID)
			fmt.Printf("  Stage:            %s\n", state.CurrentStageCode)
			fmt.Printf("  In stage:         %s\n", state.DerivedTiming.StageAgeDisplay)
			fmt.Printf("  Next stage in:    %s\n", state.DerivedTiming.TimeToNextStageDisplay)
			fmt.Printf("  Total age:        %s\n", state.DerivedTiming.TotalAgeDisplay)
			fmt.Printf("  Expected harvest: %s\n", formatTime(state.DerivedTiming.ExpectedHarvestAt))
			fmt.Println()

			w := newTable()
			fmt.Fprintln(w, "TRAY\tCROP\tSTAGE\tIN STAGE\tNEXT IN\tWATERING")
			for _, c := range state.Crops {
				watering := "on"
				if c.WateringSuspendedAt != nil {
					watering = "suspended"
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
					c.TrayNumber, c.CropID, c.StageCode,
					c.Timing.StageAgeDisplay, c.Timing.TimeToNextStageDisplay, watering)
			}
			w.Flush()

			for _, warning := range state.Warnings {
				fmt.Printf("Warning [%s] %s\n", warning.Kind, warning.Message)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&at, "at", "", "Evaluate timing at this time (RFC3339, default now)")
	return cmd
}

func newBatchAdvanceCommand() *cobra.Command {
	var (
		stageCode string
		at        string
	)

	cmd := &cobra.Command{
		Use:   "advance <batch-id>",
		Short: "Advance every crop of a batch in a stage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			when, err := parseAt(at)
			if err != nil {
				return err
			}
			var resp lifecycleCommands.TransitionResponse
			err = callDaemon(grpcAdapter.MethodBulkAdvance, &lifecycleCommands.BulkAdvanceCommand{
				BatchID:   args[0],
				StageCode: stageCode,
				At:        when,
				Actor:     actor,
			}, &resp)
			if err != nil {
				return err
			}
			return printTransition(&resp)
		},
	}

	cmd.Flags().StringVar(&stageCode, "stage", "", "Only crops currently in this stage (default every crop)")
	cmd.Flags().StringVar(&at, "at", "", "Transition time (RFC3339, default now)")
	return cmd
}

func newBatchRevertCommand() *cobra.Command {
	var (
		stageCode string
		reason    string
		at        string
	)

	cmd := &cobra.Command{
		Use:   "revert <batch-id>",
		Short: "Revert every crop of a batch in a stage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			when, err := parseAt(at)
			if err != nil {
				return err
			}
			var resp lifecycleCommands.TransitionResponse
			err = callDaemon(grpcAdapter.MethodBulkRevert, &lifecycleCommands.BulkRevertCommand{
				BatchID:   args[0],
				StageCode: stageCode,
				Reason:    reason,
				At:        when,
				Actor:     actor,
			}, &resp)
			if err != nil {
				return err
			}
			return printTransition(&resp)
		},
	}

	cmd.Flags().StringVar(&stageCode, "stage", "", "Only crops currently in this stage (default every crop)")
	cmd.Flags().StringVar(&reason, "reason", "", "Why the crops go back (required for the revert to apply)")
	cmd.Flags().StringVar(&at, "at", "", "Transition time (RFC3339, default now)")
	return cmd
}
