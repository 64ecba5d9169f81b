package cli

import (
	"fmt"
	"net/url"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

// customerView mirrors the API's customer envelope.
type customerView struct {
	Customer struct {
		ID           string `json:"id"`
		FirstName    string `json:"first_name"`
		LastName     string `json:"last_name"`
		Email        string `json:"email"`
		Phone        string `json:"phone"`
		CurrentStage string `json:"current_stage"`
		Version      int64  `json:"version"`
	} `json:"customer"`
	FullName        string `json:"full_name"`
	StageDisplay    string `json:"stage_display"`
	ProgressPct     int    `json:"progress_pct"`
	CanMoveForward  bool   `json:"can_move_forward"`
	CanMoveBackward bool   `json:"can_move_backward"`
}

func init() {
	rootCmd.AddCommand(customersCmd)
	customersCmd.AddCommand(customersListCmd)
	customersCmd.AddCommand(customersShowCmd)
	customersCmd.AddCommand(customersCreateCmd)
	customersCmd.AddCommand(customersMoveCmd)
	customersCmd.AddCommand(customersHistoryCmd)

	customersCreateCmd.Flags().String("email", "", "Customer email")
	customersCreateCmd.Flags().String("phone", "", "Customer phone")
	customersMoveCmd.Flags().String("note", "", "Audit note for the move")
	customersMoveCmd.Flags().String("key", "", "Idempotency key for safe retries")
	customersHistoryCmd.Flags().Int("page", 1, "Page number (1-based)")
	customersHistoryCmd.Flags().Int("page-size", 10, "Entries per page")
	customersHistoryCmd.Flags().String("order", "desc", "Sort order: asc or desc")
}

var customersCmd = &cobra.Command{
	Use:   "customers",
	Short: "Manage pipeline customers",
}

// ─── customers list ─────────────────────────────────────────────────────────

var customersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all customers",
	RunE:  runCustomersList,
}

func runCustomersList(cmd *cobra.Command, args []string) error {
	var resp struct {
		Customers []customerView `json:"customers"`
	}
	if err := newClient().get("/api/customers", &resp); err != nil {
		return err
	}

	rows := make([][]string, 0, len(resp.Customers))
	for _, v := range resp.Customers {
		rows = append(rows, []string{
			v.Customer.ID,
			v.FullName,
			v.StageDisplay,
			strconv.Itoa(v.ProgressPct) + "%",
			strconv.FormatInt(v.Customer.Version, 10),
		})
	}
	fmt.Fprintln(os.Stdout, renderTable(
		[]string{"ID", "Name", "Stage", "Progress", "Version"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight},
	))
	return nil
}

// ─── customers show ─────────────────────────────────────────────────────────

var customersShowCmd = &cobra.Command{
	Use:   "show CUSTOMER_ID",
	Short: "Show one customer",
	Args:  cobra.ExactArgs(1),
	RunE:  runCustomersShow,
}

func runCustomersShow(cmd *cobra.Command, args []string) error {
	var v customerView
	if err := newClient().get("/api/customers/"+url.PathEscape(args[0]), &v); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "%s (%s)\n", v.FullName, v.Customer.ID)
	fmt.Fprintf(os.Stdout, "  Stage:    %s (%d%%)\n", v.StageDisplay, v.ProgressPct)
	fmt.Fprintf(os.Stdout, "  Email:    %s\n", v.Customer.Email)
	fmt.Fprintf(os.Stdout, "  Phone:    %s\n", v.Customer.Phone)
	fmt.Fprintf(os.Stdout, "  Version:  %d\n", v.Customer.Version)
	fmt.Fprintf(os.Stdout, "  Forward:  %v  Backward: %v\n", v.CanMoveForward, v.CanMoveBackward)
	return nil
}

// ─── customers create ───────────────────────────────────────────────────────

var customersCreateCmd = &cobra.Command{
	Use:   "create FIRST_NAME LAST_NAME",
	Short: "Create a customer at the first pipeline stage",
	Args:  cobra.ExactArgs(2),
	RunE:  runCustomersCreate,
}

func runCustomersCreate(cmd *cobra.Command, args []string) error {
	email, _ := cmd.Flags().GetString("email")
	phone, _ := cmd.Flags().GetString("phone")

	var v customerView
	err := newClient().post("/api/customers", map[string]string{
		"first_name": args[0],
		"last_name":  args[1],
		"email":      email,
		"phone":      phone,
	}, &v)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Created customer %s (%s) at %s\n", v.FullName, v.Customer.ID, v.StageDisplay)
	return nil
}

// ─── customers move ─────────────────────────────────────────────────────────

var customersMoveCmd = &cobra.Command{
	Use:   "move CUSTOMER_ID forward|backward",
	Short: "Move a customer one stage",
	Args:  cobra.ExactArgs(2),
	RunE:  runCustomersMove,
}

func runCustomersMove(cmd *cobra.Command, args []string) error {
	note, _ := cmd.Flags().GetString("note")
	key, _ := cmd.Flags().GetString("key")

	c := newClient()
	body := map[string]string{"direction": args[1], "note": note}

	var resp struct {
		Customer customerView `json:"customer"`
	}
	path := "/api/customers/" + url.PathEscape(args[0]) + "/stage"
	var err error
	if key == "" {
		err = c.post(path, body, &resp)
	} else {
		err = c.postWithKey(path, key, body, &resp)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Moved %s to %s (%d%%)\n",
		resp.Customer.FullName, resp.Customer.StageDisplay, resp.Customer.ProgressPct)
	return nil
}

// ─── customers history ──────────────────────────────────────────────────────

var customersHistoryCmd = &cobra.Command{
	Use:   "history CUSTOMER_ID",
	Short: "Show a customer's stage history",
	Args:  cobra.ExactArgs(1),
	RunE:  runCustomersHistory,
}

func runCustomersHistory(cmd *cobra.Command, args []string) error {
	page, _ := cmd.Flags().GetInt("page")
	pageSize, _ := cmd.Flags().GetInt("page-size")
	order, _ := cmd.Flags().GetString("order")

	var resp struct {
		Items []struct {
			Stage         string `json:"stage"`
			PreviousStage string `json:"previous_stage"`
			Direction     string `json:"direction"`
			Notes         string `json:"notes"`
			Timestamp     string `json:"timestamp"`
			User          string `json:"user"`
		} `json:"items"`
		TotalCount int `json:"total_count"`
		TotalPages int `json:"total_pages"`
		Page       int `json:"page"`
	}
	path := fmt.Sprintf("/api/customers/%s/history?page=%d&page_size=%d&order=%s",
		url.PathEscape(args[0]), page, pageSize, url.QueryEscape(order))
	if err := newClient().get(path, &resp); err != nil {
		return err
	}

	rows := make([][]string, 0, len(resp.Items))
	for _, e := range resp.Items {
		rows = append(rows, []string{e.Timestamp, e.Direction, e.PreviousStage, e.Stage, e.User, e.Notes})
	}
	fmt.Fprintln(os.Stdout, renderTable(
		[]string{"When", "Direction", "From", "To", "By", "Notes"},
		rows,
		nil,
	))
	fmt.Fprintf(os.Stdout, "Page %d of %d (%d entries)\n", resp.Page, resp.TotalPages, resp.TotalCount)
	return nil
}
