package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/iho/loanledger/internal/adapter/http/dto"
	"github.com/iho/loanledger/internal/infrastructure/logger"
	"github.com/iho/loanledger/internal/infrastructure/postgres"
)

var (
	baseURL string
	timeout time.Duration
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "loanledger-cli",
		Short:         "LoanLedger CLI tool",
		Long:          `A command line interface for operating the LoanLedger standing instruction scheduler.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the LoanLedger API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "Request timeout")

	rootCmd.AddCommand(instructionsCmd(), loansCmd(), transfersCmd(), migrateCmd())
	return rootCmd
}

func instructionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "instructions",
		Short: "Standing instruction operations",
	}

	var status string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List standing instructions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			if status != "" {
				q.Set("status", status)
			}
			body, _, err := apiRequest(http.MethodGet, "/api/v1/standinginstructions?"+q.Encode(), nil)
			if err != nil {
				return err
			}

			var resp dto.ListStandingInstructionsResponse
			if err := json.Unmarshal(body, &resp); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}
			printInstructions(cmd.OutOrStdout(), resp.Instructions)
			return nil
		},
	}
	listCmd.Flags().StringVar(&status, "status", "", "Filter by status (ACTIVE, DELETED)")

	historyCmd := &cobra.Command{
		Use:   "history <instruction-id>",
		Short: "Show the transfer history of a standing instruction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, _, err := apiRequest(http.MethodGet, "/api/v1/standinginstructions/"+url.PathEscape(args[0])+"/history", nil)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), body)
		},
	}

	var date string
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run due standing instructions now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := json.Marshal(dto.RunInstructionsRequest{Date: date})
			if err != nil {
				return err
			}
			body, _, err := apiRequest(http.MethodPost, "/api/v1/standinginstructions/run", payload)
			if err != nil {
				return err
			}

			var report dto.RunReportResponse
			if err := json.Unmarshal(body, &report); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}
			printReport(cmd.OutOrStdout(), &report)
			if len(report.Failures) > 0 {
				return fmt.Errorf("%d standing instruction(s) failed", len(report.Failures))
			}
			return nil
		},
	}
	runCmd.Flags().StringVar(&date, "date", "", "Business date to run (YYYY-MM-DD), defaults to today")

	cmd.AddCommand(listCmd, historyCmd, runCmd)
	return cmd
}

func loansCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "loans",
		Short: "Loan schedule operations",
	}

	scheduleCmd := &cobra.Command{
		Use:   "schedule-history <loan-id>",
		Short: "Show the latest archived repayment schedule of a loan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, status, err := apiRequest(http.MethodGet, "/api/v1/loans/"+url.PathEscape(args[0])+"/schedulehistory", nil)
			if err != nil {
				return err
			}
			if status == http.StatusNoContent {
				fmt.Fprintln(cmd.OutOrStdout(), "loan has no archived schedule")
				return nil
			}
			return printJSON(cmd.OutOrStdout(), body)
		},
	}

	versionCmd := &cobra.Command{
		Use:   "schedule-version <loan-id>",
		Short: "Show the latest archived schedule version of a loan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, _, err := apiRequest(http.MethodGet, "/api/v1/loans/"+url.PathEscape(args[0])+"/schedulehistory/version", nil)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), body)
		},
	}

	cmd.AddCommand(scheduleCmd, versionCmd)
	return cmd
}

func transfersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transfers",
		Short: "Inspect posted transfers",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get <transfer-id>",
		Short: "Show a transfer with its ledger entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, _, err := apiRequest(http.MethodGet, "/api/v1/transfers/"+url.PathEscape(args[0]), nil)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), body)
		},
	})
	return cmd
}

func migrateCmd() *cobra.Command {
	var databaseURL, path string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
	}
	cmd.PersistentFlags().StringVar(&databaseURL, "database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection URL")
	cmd.PersistentFlags().StringVar(&path, "path", "internal/infrastructure/postgres/migrations", "Migrations directory")

	cliLogger := func(cmd *cobra.Command) zerolog.Logger {
		return logger.New(logger.Config{Format: "console", Output: cmd.ErrOrStderr()})
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if databaseURL == "" {
				return fmt.Errorf("--database-url or DATABASE_URL is required")
			}
			return postgres.RunMigrations(databaseURL, path, cliLogger(cmd))
		},
	}

	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back all migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if databaseURL == "" {
				return fmt.Errorf("--database-url or DATABASE_URL is required")
			}
			return postgres.RunMigrationsDown(databaseURL, path, cliLogger(cmd))
		},
	}

	cmd.AddCommand(upCmd, downCmd)
	return cmd
}

// apiRequest calls the API and returns the body of a 2xx response.
func apiRequest(method, path string, payload []byte) ([]byte, int, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, baseURL+path, reqBody)
	if err != nil {
		return nil, 0, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr dto.ErrorResponse
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return nil, resp.StatusCode, fmt.Errorf("request failed (status %d): %s: %s", resp.StatusCode, apiErr.Error, apiErr.Message)
		}
		return nil, resp.StatusCode, fmt.Errorf("request failed (status %d): %s", resp.StatusCode, string(body))
	}

	return body, resp.StatusCode, nil
}

func printJSON(w io.Writer, body []byte) error {
	var out bytes.Buffer
	if err := json.Indent(&out, body, "", "  "); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	out.WriteByte('\n')
	_, err := out.WriteTo(w)
	return err
}

func printInstructions(w io.Writer, instructions []*dto.StandingInstructionResponse) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSTATUS\tRECURRENCE\tLAST RUN")
	for _, si := range instructions {
		lastRun := "-"
		if si.LastRunDate != nil {
			lastRun = *si.LastRunDate
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", si.ID, truncate(si.Name, 30), si.Status, si.RecurrenceType, lastRun)
	}
	tw.Flush()
}

func printReport(w io.Writer, r *dto.RunReportResponse) {
	fmt.Fprintf(w, "Run date:  %s\n", r.RunDate)
	fmt.Fprintf(w, "Evaluated: %d\n", r.Evaluated)
	fmt.Fprintf(w, "Due:       %d\n", r.Due)
	fmt.Fprintf(w, "Executed:  %d\n", r.Executed)
	fmt.Fprintf(w, "Skipped:   %d\n", r.Skipped)
	for _, f := range r.Failures {
		fmt.Fprintf(w, "FAILED %s (%s): %s\n", f.InstructionID, f.Kind, f.ErrorLog)
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
