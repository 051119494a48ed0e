package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/spf13/cobra"
)

// errInconsistent makes the process exit non-zero for scripts and cron jobs.
var errInconsistent = errors.New("ledger is inconsistent")

type apiClient struct {
	baseURL string
	token   string
	http    *http.Client
}

type apiError struct {
	Status  int
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *apiError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("request failed with status %d", e.Status)
	}
	return fmt.Sprintf("%s (%d): %s", e.Code, e.Status, e.Message)
}

func (c *apiClient) do(method, path string, body any, headers map[string]string, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, strings.TrimRight(c.baseURL, "/")+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 300 {
		apiErr := &apiError{Status: resp.StatusCode}
		_ = json.Unmarshal(data, apiErr)
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

type consistencyReport struct {
	Consistent          bool   `json:"consistent"`
	Explained           bool   `json:"explained"`
	TotalBalance        string `json:"total_balance"`
	TotalOpeningBalance string `json:"total_opening_balance"`
	Drift               string `json:"drift"`
	Accounts            int64  `json:"accounts"`
	FlaggedTransfers    int64  `json:"flagged_transfers"`
	FlaggedAmount       string `json:"flagged_amount"`
}

type transfer struct {
	ID             string   `json:"id"`
	SenderHandle   string   `json:"sender_handle"`
	ReceiverHandle string   `json:"receiver_handle"`
	Amount         string   `json:"amount"`
	Status         string   `json:"status"`
	FailureReason  string   `json:"failure_reason"`
	CreatedAt      string   `json:"created_at"`
	Warnings       []string `json:"warnings"`
}

type moneyRequest struct {
	ID      string `json:"id"`
	Payer   string `json:"payer"`
	Amount  string `json:"amount"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

func newRootCmd(stdout io.Writer) *cobra.Command {
	client := &apiClient{}
	var timeout time.Duration

	rootCmd := &cobra.Command{
		Use:           "upictl",
		Short:         "UPI ledger CLI tool",
		Long:          `A command line interface for operating the UPI ledger API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			client.http = &http.Client{Timeout: timeout}
			if client.token == "" {
				client.token = os.Getenv("UPICTL_TOKEN")
			}
		},
	}
	rootCmd.SetOut(stdout)

	rootCmd.PersistentFlags().StringVar(&client.baseURL, "url", "http://localhost:8080", "Base URL of the ledger API")
	rootCmd.PersistentFlags().StringVar(&client.token, "token", "", "Bearer token (defaults to $UPICTL_TOKEN)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	rootCmd.AddCommand(
		newLoginCmd(client),
		newLedgerCmd(client),
		newTransfersCmd(client),
		newRequestsCmd(client),
	)
	return rootCmd
}

func newLoginCmd(client *apiClient) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Print a bearer token for the given credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp struct {
				Token string `json:"token"`
			}
			if err := client.do(http.MethodPost, "/api/v1/auth/login", map[string]string{
				"email": email, "password": password,
			}, nil, &resp); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), resp.Token)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newLedgerCmd(client *apiClient) *cobra.Command {
	ledgerCmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger operations",
	}

	ledgerCmd.AddCommand(&cobra.Command{
		Use:   "consistency",
		Short: "Check that balances add up to the money that entered the system",
		RunE: func(cmd *cobra.Command, args []string) error {
			var r consistencyReport
			if err := client.do(http.MethodGet, "/api/v1/ledger/consistency", nil, nil, &r); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch {
			case r.Consistent:
				fmt.Fprintln(out, "Consistency check PASSED")
			case r.Explained:
				fmt.Fprintln(out, "Consistency check PASSED (drift explained by flagged transfers)")
			default:
				fmt.Fprintln(out, "Consistency check FAILED")
			}
			fmt.Fprintf(out, "Accounts:        %d\n", r.Accounts)
			fmt.Fprintf(out, "Total balance:   %s\n", r.TotalBalance)
			fmt.Fprintf(out, "Opening balance: %s\n", r.TotalOpeningBalance)
			fmt.Fprintf(out, "Drift:           %s\n", r.Drift)
			fmt.Fprintf(out, "Flagged:         %d (%s)\n", r.FlaggedTransfers, r.FlaggedAmount)

			if !r.Consistent && !r.Explained {
				return errInconsistent
			}
			return nil
		},
	})
	return ledgerCmd
}

func newTransfersCmd(client *apiClient) *cobra.Command {
	transfersCmd := &cobra.Command{
		Use:     "transfers",
		Aliases: []string{"transfer"},
		Short:   "Transfer operations",
	}

	var limit, offset int
	flagged := &cobra.Command{
		Use:   "flagged",
		Short: "List transfers awaiting manual reconciliation",
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp struct {
				Transfers []transfer `json:"transfers"`
			}
			q := url.Values{"limit": {fmt.Sprint(limit)}, "offset": {fmt.Sprint(offset)}}
			if err := client.do(http.MethodGet, "/api/v1/transfers/flagged?"+q.Encode(), nil, nil, &resp); err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tSENDER\tRECEIVER\tAMOUNT\tCREATED\tREASON")
			for _, t := range resp.Transfers {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", t.ID, t.SenderHandle, t.ReceiverHandle, t.Amount, t.CreatedAt, t.FailureReason)
			}
			return tw.Flush()
		},
	}
	flagged.Flags().IntVar(&limit, "limit", 50, "Maximum number of transfers")
	flagged.Flags().IntVar(&offset, "offset", 0, "Number of transfers to skip")

	var from, to, amount, note, key string
	send := &cobra.Command{
		Use:   "send",
		Short: "Send money from one handle to another",
		RunE: func(cmd *cobra.Command, args []string) error {
			if key == "" {
				key = ulid.Make().String()
			}

			var t transfer
			err := client.do(http.MethodPost, "/api/v1/transfers", map[string]string{
				"sender_handle":   from,
				"receiver_handle": to,
				"amount":          amount,
				"note":            note,
			}, map[string]string{"Idempotency-Key": key}, &t)
			if err != nil {
				return fmt.Errorf("%w (retry with --idempotency-key %s)", err, key)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s %s -> %s %s\n", t.ID, t.Status, t.SenderHandle, t.ReceiverHandle, t.Amount)
			for _, w := range t.Warnings {
				fmt.Fprintf(out, "warning: %s\n", w)
			}
			return nil
		},
	}
	send.Flags().StringVar(&from, "from", "", "Sender handle")
	send.Flags().StringVar(&to, "to", "", "Receiver handle")
	send.Flags().StringVar(&amount, "amount", "", "Amount, e.g. 150.00")
	send.Flags().StringVar(&note, "note", "", "Optional note")
	send.Flags().StringVar(&key, "idempotency-key", "", "Idempotency key (generated when empty)")
	for _, f := range []string{"from", "to", "amount"} {
		_ = send.MarkFlagRequired(f)
	}

	transfersCmd.AddCommand(flagged, send)
	return transfersCmd
}

func newRequestsCmd(client *apiClient) *cobra.Command {
	requestsCmd := &cobra.Command{
		Use:   "requests",
		Short: "Money request operations",
	}

	var handle, status string
	list := &cobra.Command{
		Use:   "list",
		Short: "List money requests raised by a handle",
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp struct {
				Requests []moneyRequest `json:"requests"`
			}
			q := url.Values{"handle": {handle}, "status": {status}}
			if err := client.do(http.MethodGet, "/api/v1/requests?"+q.Encode(), nil, nil, &resp); err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tPAYER\tAMOUNT\tSTATUS\tMESSAGE")
			for _, r := range resp.Requests {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.ID, r.Payer, r.Amount, r.Status, r.Message)
			}
			return tw.Flush()
		},
	}
	list.Flags().StringVar(&handle, "handle", "", "Requester handle")
	list.Flags().StringVar(&status, "status", "OPEN", "OPEN, FULFILLED, CANCELLED or ALL")
	_ = list.MarkFlagRequired("handle")

	requestsCmd.AddCommand(list)
	return requestsCmd
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
