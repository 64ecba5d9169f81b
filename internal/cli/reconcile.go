package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(reconcileCmd)
}

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Run a torn-transition sweep now",
	Long: `Ask the daemon to cross-check every customer's current stage against
the newest entry in their audit trail and report any disagreement.`,
	RunE: runReconcile,
}

func runReconcile(cmd *cobra.Command, args []string) error {
	var resp struct {
		Findings []struct {
			CustomerID   string `json:"customer_id"`
			CurrentStage string `json:"current_stage"`
			HistoryStage string `json:"history_stage"`
		} `json:"findings"`
		Count int `json:"count"`
	}
	if err := newClient().post("/api/reconcile/run", nil, &resp); err != nil {
		return err
	}

	if resp.Count == 0 {
		fmt.Fprintln(os.Stdout, "No torn transitions found.")
		return nil
	}
	rows := make([][]string, 0, resp.Count)
	for _, f := range resp.Findings {
		rows = append(rows, []string{f.CustomerID, f.CurrentStage, f.HistoryStage})
	}
	fmt.Fprintln(os.Stdout, renderTable(
		[]string{"Customer", "Stored Stage", "Latest History"},
		rows,
		nil,
	))
	fmt.Fprintf(os.Stdout, "%d torn transition(s) need manual repair.\n", resp.Count)
	return nil
}
