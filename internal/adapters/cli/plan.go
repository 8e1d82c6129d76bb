package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	grpcAdapter "github.com/andrescamacho/microgreens-go/internal/adapters/grpc"
	planningCommands "github.com/andrescamacho/microgreens-go/internal/application/planning/commands"
	planningQueries "github.com/andrescamacho/microgreens-go/internal/application/planning/queries"
	"github.com/andrescamacho/microgreens-go/internal/domain/planning"
)

// NewPlanCommand creates the plan command with subcommands
func NewPlanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Aggregate order demand into crop plans",
		Long: `Group demand by variety and harvest date and compute how many trays to
plant and when.

Examples:
  greens plan aggregate --signal ORD-1,sunflower,450,2026-05-04 --signal ORD-2,sunflower,300,2026-05-04
  greens plan aggregate --file demand.json
  greens plan list --status draft
  greens plan status <plan-id> confirmed`,
	}

	cmd.AddCommand(newPlanAggregateCommand())
	cmd.AddCommand(newPlanListCommand())
	cmd.AddCommand(newPlanStatusCommand())

	return cmd
}

func newPlanAggregateCommand() *cobra.Command {
	var (
		signals      []string
		file         string
		gramsPerTray float64
	)

	cmd := &cobra.Command{
		Use:   "aggregate",
		Short: "Create or refresh draft plans from demand signals",
		RunE: func(cmd *cobra.Command, args []string) error {
			demand, err := loadSignals(signals, file)
			if err != nil {
				return err
			}

			var resp planningCommands.AggregateDemandResponse
			err = callDaemon(grpcAdapter.MethodAggregateDemand, &planningCommands.AggregateDemandCommand{
				Signals:      demand,
				GramsPerTray: gramsPerTray,
			}, &resp)
			if err != nil {
				return err
			}
			if outputJSON {
				return printJSON(resp)
			}

			printPlans(resp.Plans)
			for _, r := range resp.Rejected {
				fmt.Printf("Rejected %s@%s: %s\n", r.VarietyID, r.HarvestDate, r.Reason)
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&signals, "signal", nil, "Demand as ORDER,VARIETY,GRAMS,YYYY-MM-DD (repeatable)")
	cmd.Flags().StringVar(&file, "file", "", "JSON file with an array of demand signals")
	cmd.Flags().Float64Var(&gramsPerTray, "grams-per-tray", 0, "Override every recipe's expected yield per tray")
	return cmd
}

func newPlanListCommand() *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List crop plans",
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp planningQueries.ListPlansResponse
			if err := callDaemon(grpcAdapter.MethodListPlans, &planningQueries.ListPlansQuery{Status: status}, &resp); err != nil {
				return err
			}
			if outputJSON {
				return printJSON(resp)
			}
			if len(resp.Plans) == 0 {
				fmt.Println("No plans")
				return nil
			}
			printPlans(resp.Plans)
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Only plans in this status")
	return cmd
}

func newPlanStatusCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status <plan-id> <draft|confirmed|in_progress|completed>",
		Short: "Move a plan to another status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var plan planningQueries.PlanDTO
			if err := callDaemon(grpcAdapter.MethodUpdatePlanStatus, &planningCommands.UpdatePlanStatusCommand{PlanID: args[0], Status: args[1]}, &plan); err != nil {
				return err
			}
			if outputJSON {
				return printJSON(plan)
			}
			fmt.Printf("✓ Plan %s is now %s\n", plan.ID, plan.Status)
			return nil
		},
	}
	return cmd
}

func printPlans(plans []planningQueries.PlanDTO) {
	w := newTable()
	fmt.Fprintln(w, "PLAN\tVARIETY\tHARVEST\tGRAMS\tTRAYS\tPLANT\tSOAK\tSTATUS")
	for _, p := range plans {
		soak := "-"
		if p.SeedSoakDate != nil {
			soak = *p.SeedSoakDate
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%.0f\t%d\t%s\t%s\t%s\n",
			p.ID, p.VarietyID, p.HarvestDate, p.TotalGramsNeeded, p.TotalTraysNeeded, p.PlantDate, soak, p.Status)
	}
	w.Flush()
}

// loadSignals reads demand from --signal flags and an optional JSON file
func loadSignals(flags []string, file string) ([]planning.DemandSignal, error) {
	var out []planning.DemandSignal

	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", file, err)
		}
		var fromFile []planning.DemandSignal
		if err := json.Unmarshal(data, &fromFile); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", file, err)
		}
		out = append(out, fromFile...)
	}

	for _, raw := range flags {
		s, err := parseSignal(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("no demand given: use --signal or --file")
	}
	return out, nil
}

func parseSignal(raw string) (planning.DemandSignal, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 4 {
		return planning.DemandSignal{}, fmt.Errorf("invalid signal %q: want ORDER,VARIETY,GRAMS,YYYY-MM-DD", raw)
	}
	grams, err := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
	if err != nil {
		return planning.DemandSignal{}, fmt.Errorf("invalid grams in %q: %w", raw, err)
	}
	date, err := time.Parse(planning.DateLayout, strings.TrimSpace(parts[3]))
	if err != nil {
		return planning.DemandSignal{}, fmt.Errorf("invalid harvest date in %q: %w", raw, err)
	}
	return planning.DemandSignal{
		OrderID:       strings.TrimSpace(parts[0]),
		VarietyID:     strings.TrimSpace(parts[1]),
		QuantityGrams: grams,
		HarvestDate:   date,
	}, nil
}
