package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	grpcAdapter "github.com/andrescamacho/microgreens-go/internal/adapters/grpc"
	lifecycleQueries "github.com/andrescamacho/microgreens-go/internal/application/lifecycle/queries"
)

// NewTransitionsCommand creates the transitions command (audit feed)
func NewTransitionsCommand() *cobra.Command {
	var (
		batchID string
		since   string
		limit   int
	)

	cmd := &cobra.Command{
		Use:   "transitions",
		Short: "Show the transition audit feed, newest first",
		Long: `Every advance or revert call leaves one audit row with its per-crop
outcome counts, even when every crop failed.

Examples:
  greens transitions
  greens transitions --batch <batch-id> --since 2026-03-01T00:00:00Z`,
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := parseAt(since)
			if err != nil {
				return err
			}
			var resp lifecycleQueries.ListTransitionsResponse
			if err := callDaemon(grpcAdapter.MethodListTransitions, &lifecycleQueries.ListTransitionsQuery{BatchID: batchID, Since: from, Limit: limit}, &resp); err != nil {
				return err
			}
			if outputJSON {
				return printJSON(resp)
			}
			if len(resp.Transitions) == 0 {
				fmt.Println("No transitions")
				return nil
			}

			w := newTable()
			fmt.Fprintln(w, "RECORDED\tTYPE\tBATCH\tFROM\tTO\tOK\tFAILED\tBY\tREASON")
			for _, t := range resp.Transitions {
				recorded := t.RecordedAt
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
					formatTime(&recorded), t.Type, deref(t.BatchID), deref(t.FromStage), deref(t.ToStage),
					t.SucceededCount, t.FailedCount, deref(t.UserID), deref(t.Reason))
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&batchID, "batch", "", "Only transitions of this batch")
	cmd.Flags().StringVar(&since, "since", "", "Only transitions recorded at or after this time (RFC3339)")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of rows")
	return cmd
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return orDash(*s)
}
