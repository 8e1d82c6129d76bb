package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	grpcAdapter "github.com/andrescamacho/microgreens-go/internal/adapters/grpc"
	schedulingCommands "github.com/andrescamacho/microgreens-go/internal/application/scheduling/commands"
	schedulingQueries "github.com/andrescamacho/microgreens-go/internal/application/scheduling/queries"
)

// NewTaskCommand creates the task command with subcommands
func NewTaskCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "List and act on scheduled crop tasks",
		Long: `Tasks are scheduled when a crop enters a stage: end of stage, watering
suspension before harvest and the expected harvest.

Examples:
  greens task due
  greens task trigger <task-id>
  greens task dismiss <task-id> --reason "done by hand"
  greens task reconcile`,
	}

	cmd.AddCommand(newTaskDueCommand())
	cmd.AddCommand(newTaskTriggerCommand())
	cmd.AddCommand(newTaskDismissCommand())
	cmd.AddCommand(newTaskErrorCommand())
	cmd.AddCommand(newTaskReconcileCommand())

	return cmd
}

func newTaskDueCommand() *cobra.Command {
	var (
		at    string
		limit int
	)

	cmd := &cobra.Command{
		Use:   "due",
		Short: "List pending tasks whose time has come",
		RunE: func(cmd *cobra.Command, args []string) error {
			now, err := parseAt(at)
			if err != nil {
				return err
			}
			var resp schedulingQueries.DueTasksResponse
			if err := callDaemon(grpcAdapter.MethodDueTasks, &schedulingQueries.DueTasksQuery{Now: now, Limit: limit}, &resp); err != nil {
				return err
			}
			if outputJSON {
				return printJSON(resp)
			}
			if len(resp.Tasks) == 0 {
				fmt.Println("No tasks due")
				return nil
			}

			w := newTable()
			fmt.Fprintln(w, "TASK\tCROP\tTYPE\tSTAGE\tSCHEDULED")
			for _, t := range resp.Tasks {
				scheduled := t.ScheduledAt
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", t.ID, t.CropID, t.TaskType, t.StageCode, formatTime(&scheduled))
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&at, "at", "", "List tasks due at this time (RFC3339, default now)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of tasks (0 = all)")
	return cmd
}

func newTaskTriggerCommand() *cobra.Command {
	var at string

	cmd := &cobra.Command{
		Use:   "trigger <task-id>",
		Short: "Mark a task as triggered",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			when, err := parseAt(at)
			if err != nil {
				return err
			}
			var resp schedulingCommands.TaskStatusResponse
			if err := callDaemon(grpcAdapter.MethodTriggerTask, &schedulingCommands.TriggerTaskCommand{TaskID: args[0], At: when}, &resp); err != nil {
				return err
			}
			return printTaskStatus(&resp)
		},
	}

	cmd.Flags().StringVar(&at, "at", "", "Trigger time (RFC3339, default now)")
	return cmd
}

func newTaskDismissCommand() *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "dismiss <task-id>",
		Short: "Dismiss a pending task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp schedulingCommands.TaskStatusResponse
			if err := callDaemon(grpcAdapter.MethodDismissTask, &schedulingCommands.DismissTaskCommand{TaskID: args[0], Reason: reason}, &resp); err != nil {
				return err
			}
			return printTaskStatus(&resp)
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "", "Why the task is no longer needed")
	return cmd
}

func newTaskErrorCommand() *cobra.Command {
	var message string

	cmd := &cobra.Command{
		Use:   "error <task-id>",
		Short: "Record that a task could not be carried out",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp schedulingCommands.TaskStatusResponse
			if err := callDaemon(grpcAdapter.MethodMarkTaskError, &schedulingCommands.MarkTaskErrorCommand{TaskID: args[0], Message: message}, &resp); err != nil {
				return err
			}
			return printTaskStatus(&resp)
		},
	}

	cmd.Flags().StringVar(&message, "message", "", "What went wrong")
	return cmd
}

func newTaskReconcileCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Recreate missing tasks for every growing crop",
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp schedulingCommands.ReconcileTasksResponse
			if err := callDaemon(grpcAdapter.MethodReconcileTasks, &schedulingCommands.ReconcileTasksCommand{}, &resp); err != nil {
				return err
			}
			if outputJSON {
				return printJSON(resp)
			}
			fmt.Printf("Scanned %d crops, created %d tasks\n", resp.CropsScanned, resp.TasksCreated)
			for _, warning := range resp.Warnings {
				fmt.Printf("Warning [%s] %s\n", warning.Kind, warning.Message)
			}
			return nil
		},
	}
	return cmd
}

func printTaskStatus(resp *schedulingCommands.TaskStatusResponse) error {
	if outputJSON {
		return printJSON(resp)
	}
	if resp.Changed {
		fmt.Printf("✓ Task %s is now %s\n", resp.TaskID, resp.Status)
	} else {
		fmt.Printf("Task %s was already %s\n", resp.TaskID, resp.Status)
	}
	return nil
}
