package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/diewo77/go-pos/internal/app"
	"github.com/diewo77/go-pos/internal/config"
	"github.com/diewo77/go-pos/internal/db"
	"github.com/diewo77/go-pos/internal/export"
	"github.com/diewo77/go-pos/internal/logging"
	"github.com/diewo77/go-pos/internal/models"
	"github.com/diewo77/go-pos/internal/pdf"
	"github.com/diewo77/go-pos/internal/services"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// env is what every command runs against.
type env struct {
	cfg *config.Config
	c   *app.Container
	out io.Writer
	now func() time.Time
}

// withEnv loads the configuration, connects and builds the container.
func withEnv(cmd *cobra.Command, fn func(*env) error) error {
	_ = godotenv.Load()
	cfg := config.Load()
	log := logging.NewWithOutput(cfg.Log, cmd.ErrOrStderr())

	conn, err := db.Connect(cfg.Database, cfg.App.Tracing, log)
	if err != nil {
		return err
	}
	c, err := app.New(cfg, conn, log)
	if err != nil {
		return err
	}
	defer c.Close()
	return fn(&env{cfg: cfg, c: c, out: cmd.OutOrStdout(), now: time.Now})
}

func runMigrate(e *env, useSQL bool) error {
	if useSQL {
		if err := db.MigrateSQL(e.cfg.Database.URL()); err != nil {
			return err
		}
	} else if err := db.Migrate(e.c.DB); err != nil {
		return err
	}
	fmt.Fprintln(e.out, "migrations applied")
	return nil
}

func runSeed(e *env) error {
	if err := db.Seed(e.c.DB); err != nil {
		return err
	}
	fmt.Fprintln(e.out, "seed data present")
	return nil
}

func runConvert(ctx context.Context, e *env, quoteID, userID, posID uint) error {
	posID, err := e.c.Conversion.ResolvePointOfSale(ctx, userID, posID)
	if err != nil {
		return err
	}
	inv, err := e.c.Conversion.Convert(ctx, quoteID, userID, posID)
	if err != nil {
		return err
	}
	fmt.Fprintf(e.out, "invoice %s created (id %d, total %s)\n", inv.Number, inv.ID, inv.Total.StringFixed(2))
	return nil
}

func runQuotesCheck(ctx context.Context, e *env) error {
	report, err := services.CheckConversions(ctx, e.c.Store)
	if err != nil {
		return err
	}
	for _, q := range report.ConvertedWithoutInvoice {
		fmt.Fprintf(e.out, "quote %s is converted but no invoice references it\n", q.Number)
	}
	for _, inv := range report.InvoicesOnUnconverted {
		fmt.Fprintf(e.out, "invoice %s references quote %d which is not converted\n", inv.Number, *inv.SourceQuoteID)
	}
	if !report.OK() {
		return inconsistent("%d inconsistent conversion(s)",
			len(report.ConvertedWithoutInvoice)+len(report.InvoicesOnUnconverted))
	}
	fmt.Fprintln(e.out, "conversions consistent")
	return nil
}

func runQuotesExpire(ctx context.Context, e *env) error {
	n, err := e.c.Quotes.ExpireOverdue(ctx, e.now())
	if err != nil {
		return err
	}
	fmt.Fprintf(e.out, "%d quote(s) expired\n", n)
	return nil
}

func runStockShow(ctx context.Context, e *env, posID uint) error {
	levels, err := e.c.Stock.Levels(ctx, posID)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(e.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CODE\tPRODUCT\tQUANTITY")
	for _, l := range levels {
		code, name := "", ""
		if l.Product != nil {
			code, name = l.Product.Code, l.Product.Name
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", code, name, l.Quantity.String())
	}
	return tw.Flush()
}

func runStockReconcile(ctx context.Context, e *env, posID uint) error {
	diffs, err := e.c.Stock.Reconcile(ctx, posID)
	if err != nil {
		return err
	}
	for _, d := range diffs {
		fmt.Fprintf(e.out, "%s: recorded %s, movements give %s (difference %s)\n",
			d.ProductCode, d.Recorded, d.Computed, d.Difference)
	}
	if len(diffs) > 0 {
		return inconsistent("%d stock level(s) disagree with their movements", len(diffs))
	}
	fmt.Fprintln(e.out, "stock consistent")
	return nil
}

func runStockExport(ctx context.Context, e *env, posID uint, path string) error {
	var pos models.PointOfSale
	if err := e.c.Store.DB(ctx).First(&pos, posID).Error; err != nil {
		return fmt.Errorf("point of sale %d: %w", posID, err)
	}
	levels, err := e.c.Stock.Levels(ctx, posID)
	if err != nil {
		return err
	}
	movements, err := e.c.Stock.Movements(ctx, services.MovementFilter{PointOfSaleID: posID})
	if err != nil {
		return err
	}
	return writeFile(path, func(w io.Writer) error {
		return export.Stock(w, pos, levels, movements)
	}, e.out)
}

func runInvoicePDF(ctx context.Context, e *env, invoiceID uint, path string) error {
	inv, err := e.c.Invoices.Get(ctx, invoiceID)
	if err != nil {
		return err
	}
	if path == "" {
		path = inv.Number + ".pdf"
	}
	return writeFile(path, func(w io.Writer) error { return pdf.Invoice(w, inv) }, e.out)
}

func runInvoiceIssue(ctx context.Context, e *env, invoiceID uint) error {
	inv, err := e.c.Invoices.Issue(ctx, invoiceID)
	if err != nil {
		return err
	}
	fmt.Fprintf(e.out, "invoice %s issued\n", inv.Number)
	return nil
}

func runInvoiceCancel(ctx context.Context, e *env, invoiceID uint) error {
	inv, err := e.c.Invoices.Cancel(ctx, invoiceID)
	if err != nil {
		return err
	}
	fmt.Fprintf(e.out, "invoice %s cancelled\n", inv.Number)
	return nil
}

func runInvoiceRevenue(ctx context.Context, e *env, userID uint) error {
	total, err := e.c.Invoices.Revenue(ctx, userID)
	if err != nil {
		return err
	}
	fmt.Fprintf(e.out, "revenue of user %d: %s\n", userID, total.StringFixed(2))
	return nil
}

func runPaymentsAudit(ctx context.Context, e *env) error {
	mismatches, err := e.c.Payments.Audit(ctx)
	if err != nil {
		return err
	}
	for _, m := range mismatches {
		fmt.Fprintf(e.out, "invoice %s: stored %s, payments give %s (paid %s of %s)\n",
			m.InvoiceNumber, m.Stored, m.Derived, m.Paid.StringFixed(2), m.Total.StringFixed(2))
	}
	if len(mismatches) > 0 {
		return inconsistent("%d invoice status(es) disagree with their payments", len(mismatches))
	}
	fmt.Fprintln(e.out, "payments consistent")
	return nil
}

// writeFile writes through render and removes the file if rendering fails.
func writeFile(path string, render func(io.Writer) error, out io.Writer) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := render(f); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(out, "wrote %s\n", path)
	return nil
}
