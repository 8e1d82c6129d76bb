package cli

import (
	"fmt"

	lifecycleCommands "github.com/andrescamacho/microgreens-go/internal/application/lifecycle/commands"
)

// printTransition renders a transition result: summary, per-crop outcomes, warnings
func printTransition(resp *lifecycleCommands.TransitionResponse) error {
	if outputJSON {
		return printJSON(resp)
	}
	r := resp.Result
	if r == nil {
		fmt.Println("No result returned")
		return nil
	}

	fmt.Printf("Transition %s (%s): %d succeeded, %d failed\n", r.TransitionID, r.Type, r.SucceededCount, r.FailedCount)

	if len(r.Outcomes) > 0 {
		w := newTable()
		fmt.Fprintln(w, "CROP\tRESULT\tFROM\tTO\tREASON")
		for _, o := range r.Outcomes {
			if o.Succeeded {
				fmt.Fprintf(w, "%s\tok\t%s\t%s\t\n", o.CropID, orDash(string(o.From)), orDash(string(o.To)))
				continue
			}
			reason := ""
			if o.Failure != nil {
				reason = string(o.Failure.Reason)
				if o.Failure.Detail != "" {
					reason += ": " + o.Failure.Detail
				}
			}
			fmt.Fprintf(w, "%s\tfailed\t%s\t%s\t%s\n", o.CropID, orDash(string(o.From)), orDash(string(o.To)), reason)
		}
		w.Flush()
	}

	for _, warning := range r.Warnings {
		fmt.Printf("Warning [%s] %s\n", warning.Kind, warning.Message)
	}
	return nil
}
