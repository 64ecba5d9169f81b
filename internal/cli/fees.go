package cli

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

// feeView mirrors the API's fee shape.
type feeView struct {
	ID            string `json:"fee_id"`
	Type          string `json:"type"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
	Status        string `json:"status"`
	DueDate       string `json:"due_date"`
	PaidDate      string `json:"paid_date"`
	PaymentMethod string `json:"payment_method"`
	Description   string `json:"description"`
}

func init() {
	rootCmd.AddCommand(feesCmd)
	feesCmd.AddCommand(feesListCmd)
	feesCmd.AddCommand(feesAddCmd)
	feesCmd.AddCommand(feesStatusCmd)
	feesCmd.AddCommand(feesRemoveCmd)
	feesCmd.AddCommand(feesSummaryCmd)

	feesAddCmd.Flags().String("due", "", "Due date (RFC 3339)")
	feesAddCmd.Flags().String("description", "", "Fee description")
	feesAddCmd.Flags().String("reference", "", "External reference")
	feesAddCmd.Flags().String("key", "", "Idempotency key for safe retries")
	feesStatusCmd.Flags().String("method", "", "Payment method when marking PAID")
}

var feesCmd = &cobra.Command{
	Use:   "fees",
	Short: "Manage the fee ledger",
}

// ─── fees list ──────────────────────────────────────────────────────────────

var feesListCmd = &cobra.Command{
	Use:   "list CUSTOMER_ID",
	Short: "List a customer's fees",
	Args:  cobra.ExactArgs(1),
	RunE:  runFeesList,
}

func runFeesList(cmd *cobra.Command, args []string) error {
	var resp struct {
		Fees []feeView `json:"fees"`
	}
	if err := newClient().get("/api/customers/"+url.PathEscape(args[0])+"/fees", &resp); err != nil {
		return err
	}

	rows := make([][]string, 0, len(resp.Fees))
	for _, f := range resp.Fees {
		rows = append(rows, []string{
			f.ID, f.Type, f.Amount + " " + f.Currency, f.Status, f.DueDate, f.PaidDate, f.PaymentMethod,
		})
	}
	fmt.Fprintln(os.Stdout, renderTable(
		[]string{"ID", "Type", "Amount", "Status", "Due", "Paid", "Method"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft, alignLeft, alignLeft},
	))
	return nil
}

// ─── fees add ───────────────────────────────────────────────────────────────

var feesAddCmd = &cobra.Command{
	Use:   "add CUSTOMER_ID TYPE AMOUNT",
	Short: "Record a fee (types: Application, SolicitorReferral, MortgageProcuration)",
	Args:  cobra.ExactArgs(3),
	RunE:  runFeesAdd,
}

func runFeesAdd(cmd *cobra.Command, args []string) error {
	due, _ := cmd.Flags().GetString("due")
	description, _ := cmd.Flags().GetString("description")
	reference, _ := cmd.Flags().GetString("reference")
	key, _ := cmd.Flags().GetString("key")

	body := map[string]string{
		"type":        args[1],
		"amount":      args[2],
		"due_date":    due,
		"description": description,
		"reference":   reference,
	}
	path := "/api/customers/" + url.PathEscape(args[0]) + "/fees"

	c := newClient()
	var f feeView
	var err error
	if key == "" {
		err = c.post(path, body, &f)
	} else {
		err = c.postWithKey(path, key, body, &f)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Added %s fee %s %s (%s)\n", f.Type, f.Amount, f.Currency, f.ID)
	return nil
}

// ─── fees status ────────────────────────────────────────────────────────────

var feesStatusCmd = &cobra.Command{
	Use:   "status CUSTOMER_ID FEE_ID UNPAID|PAID|NA",
	Short: "Move a fee between payment statuses",
	Args:  cobra.ExactArgs(3),
	RunE:  runFeesStatus,
}

func runFeesStatus(cmd *cobra.Command, args []string) error {
	method, _ := cmd.Flags().GetString("method")

	var f feeView
	path := fmt.Sprintf("/api/customers/%s/fees/%s", url.PathEscape(args[0]), url.PathEscape(args[1]))
	err := newClient().do(http.MethodPatch, path, nil, map[string]string{
		"status":         args[2],
		"payment_method": method,
	}, &f)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Fee %s is now %s", f.ID, f.Status)
	if f.Status == "PAID" {
		fmt.Fprintf(os.Stdout, " via %s on %s", f.PaymentMethod, f.PaidDate)
	}
	fmt.Fprintln(os.Stdout)
	return nil
}

// ─── fees remove ────────────────────────────────────────────────────────────

var feesRemoveCmd = &cobra.Command{
	Use:   "remove CUSTOMER_ID FEE_ID",
	Short: "Delete a fee from the ledger",
	Args:  cobra.ExactArgs(2),
	RunE:  runFeesRemove,
}

func runFeesRemove(cmd *cobra.Command, args []string) error {
	path := fmt.Sprintf("/api/customers/%s/fees/%s", url.PathEscape(args[0]), url.PathEscape(args[1]))
	if err := newClient().do(http.MethodDelete, path, nil, nil, nil); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Removed fee %s\n", args[1])
	return nil
}

// ─── fees summary ───────────────────────────────────────────────────────────

var feesSummaryCmd = &cobra.Command{
	Use:   "summary CUSTOMER_ID",
	Short: "Show a customer's fee position",
	Args:  cobra.ExactArgs(1),
	RunE:  runFeesSummary,
}

func runFeesSummary(cmd *cobra.Command, args []string) error {
	var sum struct {
		TotalAmount  string    `json:"total_amount"`
		PaidAmount   string    `json:"paid_amount"`
		UnpaidAmount string    `json:"unpaid_amount"`
		NAAmount     string    `json:"na_amount"`
		TotalCount   int       `json:"total_count"`
		PaidCount    int       `json:"paid_count"`
		UnpaidCount  int       `json:"unpaid_count"`
		NACount      int       `json:"na_count"`
		OverdueFees  []feeView `json:"overdue_fees"`
		UpcomingFees []feeView `json:"upcoming_fees"`
	}
	if err := newClient().get("/api/customers/"+url.PathEscape(args[0])+"/fees/summary", &sum); err != nil {
		return err
	}

	rows := [][]string{
		{"Total", sum.TotalAmount, strconv.Itoa(sum.TotalCount)},
		{"Paid", sum.PaidAmount, strconv.Itoa(sum.PaidCount)},
		{"Unpaid", sum.UnpaidAmount, strconv.Itoa(sum.UnpaidCount)},
		{"N/A", sum.NAAmount, strconv.Itoa(sum.NACount)},
	}
	fmt.Fprintln(os.Stdout, renderTable(
		[]string{"Bucket", "Amount", "Count"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight},
	))
	fmt.Fprintf(os.Stdout, "Overdue: %d  Upcoming: %d\n", len(sum.OverdueFees), len(sum.UpcomingFees))
	return nil
}
