// Command posctl runs maintenance tasks against the point of sale database:
// migrations, seeding, conversions and consistency checks.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// exitErr carries a numeric exit code through the cobra error path.
type exitErr struct {
	code int
	msg  string
}

func (e *exitErr) Error() string { return e.msg }

// inconsistent is returned by the check commands when they find problems.
func inconsistent(format string, args ...any) error {
	return &exitErr{code: 2, msg: fmt.Sprintf(format, args...)}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCode(err))
	}
}

// exitCode is 2 for reported inconsistencies and 1 for any other failure.
func exitCode(err error) int {
	var ee *exitErr
	if errors.As(err, &ee) {
		return ee.code
	}
	return 1
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "posctl",
		Short:         "Maintenance commands for quotes, invoices and stock",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	var useSQL bool
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, func(e *env) error { return runMigrate(e, useSQL) })
		},
	}
	migrateCmd.Flags().BoolVar(&useSQL, "sql", false, "Use the embedded SQL migrations (PostgreSQL) instead of AutoMigrate")

	seedCmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert the demo point of sale, products, stock and quote",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, runSeed)
		},
	}

	var quoteID, userID, posID, invoiceID uint
	var out string

	convertCmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert a quote into an invoice",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, func(e *env) error { return runConvert(cmd.Context(), e, quoteID, userID, posID) })
		},
	}
	convertCmd.Flags().UintVar(&quoteID, "quote", 0, "Quote id")
	convertCmd.Flags().UintVar(&userID, "user", 0, "Acting user id")
	convertCmd.Flags().UintVar(&posID, "pos", 0, "Point of sale id (defaults to the user's)")
	_ = convertCmd.MarkFlagRequired("quote")
	_ = convertCmd.MarkFlagRequired("user")

	quotesCmd := &cobra.Command{Use: "quotes", Short: "Quote maintenance"}
	quotesCmd.AddCommand(
		&cobra.Command{
			Use:   "check",
			Short: "Report quotes and invoices whose conversion link is inconsistent",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withEnv(cmd, func(e *env) error { return runQuotesCheck(cmd.Context(), e) })
			},
		},
		&cobra.Command{
			Use:   "expire",
			Short: "Expire open quotes past their validity date",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withEnv(cmd, func(e *env) error { return runQuotesExpire(cmd.Context(), e) })
			},
		},
	)

	stockCmd := &cobra.Command{Use: "stock", Short: "Stock of a point of sale"}
	stockCmd.PersistentFlags().UintVar(&posID, "pos", 0, "Point of sale id")
	_ = stockCmd.MarkPersistentFlagRequired("pos")
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Write stock levels and movements to an XLSX file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, func(e *env) error { return runStockExport(cmd.Context(), e, posID, out) })
		},
	}
	exportCmd.Flags().StringVar(&out, "out", "stock.xlsx", "Output file")
	stockCmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print stock levels",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withEnv(cmd, func(e *env) error { return runStockShow(cmd.Context(), e, posID) })
			},
		},
		&cobra.Command{
			Use:   "reconcile",
			Short: "Compare stock levels with their movement history",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withEnv(cmd, func(e *env) error { return runStockReconcile(cmd.Context(), e, posID) })
			},
		},
		exportCmd,
	)

	invoiceCmd := &cobra.Command{Use: "invoice", Short: "Invoice documents"}
	pdfCmd := &cobra.Command{
		Use:   "pdf",
		Short: "Render an invoice as PDF",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, func(e *env) error { return runInvoicePDF(cmd.Context(), e, invoiceID, out) })
		},
	}
	pdfCmd.Flags().UintVar(&invoiceID, "id", 0, "Invoice id")
	pdfCmd.Flags().StringVar(&out, "out", "", "Output file (defaults to <number>.pdf)")
	_ = pdfCmd.MarkFlagRequired("id")

	revenueCmd := &cobra.Command{
		Use:   "revenue",
		Short: "Sum the paid invoices created by a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, func(e *env) error { return runInvoiceRevenue(cmd.Context(), e, userID) })
		},
	}
	revenueCmd.Flags().UintVar(&userID, "user", 0, "User id")
	_ = revenueCmd.MarkFlagRequired("user")

	invoiceCmd.AddCommand(pdfCmd, revenueCmd,
		invoiceStatusCmd("issue", "Issue a draft invoice", &invoiceID, runInvoiceIssue),
		invoiceStatusCmd("cancel", "Cancel a draft or issued invoice", &invoiceID, runInvoiceCancel),
	)

	paymentsCmd := &cobra.Command{Use: "payments", Short: "Payments"}
	paymentsCmd.AddCommand(&cobra.Command{
		Use:   "audit",
		Short: "Report invoices whose status disagrees with their payments",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, func(e *env) error { return runPaymentsAudit(cmd.Context(), e) })
		},
	})

	root.AddCommand(migrateCmd, seedCmd, convertCmd, quotesCmd, stockCmd, invoiceCmd, paymentsCmd)
	return root
}

// invoiceStatusCmd builds a command that changes the status of the invoice given by --id.
func invoiceStatusCmd(use, short string, invoiceID *uint, run func(context.Context, *env, uint) error) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, func(e *env) error { return run(cmd.Context(), e, *invoiceID) })
		},
	}
	cmd.Flags().UintVar(invoiceID, "id", 0, "Invoice id")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}
