package cli

import (
	"fmt"
	"net/url"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(enquiriesCmd)
	enquiriesCmd.AddCommand(enquiriesListCmd)
	enquiriesCmd.AddCommand(enquiriesAddCmd)
	enquiriesCmd.AddCommand(enquiriesConvertCmd)

	enquiriesListCmd.Flags().String("status", "", "Filter by status: new or converted")
	enquiriesAddCmd.Flags().String("email", "", "Prospect email")
	enquiriesAddCmd.Flags().String("phone", "", "Prospect phone")
	enquiriesAddCmd.Flags().String("source", "", "Where the enquiry came from")
	enquiriesAddCmd.Flags().String("notes", "", "Free-text notes")
}

var enquiriesCmd = &cobra.Command{
	Use:   "enquiries",
	Short: "Manage inbound enquiries",
}

var enquiriesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List enquiries",
	RunE:  runEnquiriesList,
}

func runEnquiriesList(cmd *cobra.Command, args []string) error {
	status, _ := cmd.Flags().GetString("status")
	path := "/api/enquiries"
	if status != "" {
		path += "?status=" + url.QueryEscape(status)
	}

	var resp struct {
		Enquiries []struct {
			ID         string `json:"id"`
			Name       string `json:"name"`
			Email      string `json:"email"`
			Source     string `json:"source"`
			Status     string `json:"status"`
			ReceivedAt string `json:"received_at"`
			CustomerID string `json:"customer_id"`
		} `json:"enquiries"`
	}
	if err := newClient().get(path, &resp); err != nil {
		return err
	}

	rows := make([][]string, 0, len(resp.Enquiries))
	for _, e := range resp.Enquiries {
		rows = append(rows, []string{e.ID, e.Name, e.Email, e.Source, e.Status, e.CustomerID})
	}
	fmt.Fprintln(os.Stdout, renderTable(
		[]string{"ID", "Name", "Email", "Source", "Status", "Customer"},
		rows,
		nil,
	))
	return nil
}

var enquiriesAddCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "Record an inbound enquiry",
	Args:  cobra.ExactArgs(1),
	RunE:  runEnquiriesAdd,
}

func runEnquiriesAdd(cmd *cobra.Command, args []string) error {
	email, _ := cmd.Flags().GetString("email")
	phone, _ := cmd.Flags().GetString("phone")
	source, _ := cmd.Flags().GetString("source")
	notes, _ := cmd.Flags().GetString("notes")

	var e struct {
		ID string `json:"id"`
	}
	err := newClient().post("/api/enquiries", map[string]string{
		"name":   args[0],
		"email":  email,
		"phone":  phone,
		"source": source,
		"notes":  notes,
	}, &e)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Recorded enquiry %s\n", e.ID)
	return nil
}

var enquiriesConvertCmd = &cobra.Command{
	Use:   "convert ENQUIRY_ID",
	Short: "Convert an enquiry into a pipeline customer",
	Args:  cobra.ExactArgs(1),
	RunE:  runEnquiriesConvert,
}

func runEnquiriesConvert(cmd *cobra.Command, args []string) error {
	var v customerView
	if err := newClient().post("/api/enquiries/"+url.PathEscape(args[0])+"/convert", nil, &v); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Converted to customer %s (%s) at %s\n", v.FullName, v.Customer.ID, v.StageDisplay)
	return nil
}
