package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(stagesCmd)
	stagesCmd.AddCommand(stagesOccupantsCmd)
}

var stagesCmd = &cobra.Command{
	Use:   "stages",
	Short: "Show the pipeline stage catalog",
	RunE:  runStages,
}

func runStages(cmd *cobra.Command, args []string) error {
	var resp struct {
		Stages []struct {
			Stage       string `json:"stage"`
			DisplayName string `json:"display_name"`
			Position    int    `json:"position"`
			ProgressPct int    `json:"progress_pct"`
		} `json:"stages"`
	}
	if err := newClient().get("/api/stages", &resp); err != nil {
		return err
	}

	rows := make([][]string, 0, len(resp.Stages))
	for _, s := range resp.Stages {
		rows = append(rows, []string{
			strconv.Itoa(s.Position),
			s.Stage,
			s.DisplayName,
			strconv.Itoa(s.ProgressPct) + "%",
		})
	}
	fmt.Fprintln(os.Stdout, renderTable(
		[]string{"#", "Stage", "Display Name", "Progress"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight},
	))
	return nil
}

var stagesOccupantsCmd = &cobra.Command{
	Use:   "occupants STAGE",
	Short: "List customers currently at a stage",
	Args:  cobra.ExactArgs(1),
	RunE:  runStagesOccupants,
}

func runStagesOccupants(cmd *cobra.Command, args []string) error {
	var resp struct {
		Stage       string   `json:"stage"`
		CustomerIDs []string `json:"customer_ids"`
		Count       int      `json:"count"`
	}
	if err := newClient().get("/api/stages/"+args[0]+"/customers", &resp); err != nil {
		return err
	}
	if resp.Count == 0 {
		fmt.Fprintf(os.Stdout, "No customers at %s\n", args[0])
		return nil
	}
	fmt.Fprintf(os.Stdout, "%d customer(s) at %s:\n  %s\n",
		resp.Count, args[0], strings.Join(resp.CustomerIDs, "\n  "))
	return nil
}
