package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/pkg/errors"

	"github.com/youngspiritsbartending/youngspirits.co/internal/cache"
	"github.com/youngspiritsbartending/youngspirits.co/internal/catalog"
	"github.com/youngspiritsbartending/youngspirits.co/internal/config"
	"github.com/youngspiritsbartending/youngspirits.co/internal/domain"
	"github.com/youngspiritsbartending/youngspirits.co/internal/linktoken"
	"github.com/youngspiritsbartending/youngspirits.co/internal/service"
	pgstore "github.com/youngspiritsbartending/youngspirits.co/internal/store/postgres"
)

// Supported subcommands:
// - migrate:          Apply the postgres schema
// - issue-quote:      Issue a quote link for a contact submission
// - issue-invoice:    Issue an invoice link for an accepted quote
// - audit:            Print the audit trail of a quote, invoice or submission
// - invalidate-cache: Drop the cached package and add-on lists from Redis

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stderr)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1], os.Args[2:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, name string, args []string, out io.Writer) error {
	switch name {
	case "migrate", "issue-quote", "issue-invoice", "audit", "invalidate-cache":
	case "help", "-h", "--help":
		printUsage(out)
		return nil
	default:
		printUsage(os.Stderr)
		return errors.Errorf("unknown subcommand %q", name)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if name == "invalidate-cache" {
		if cfg.RedisAddr == "" {
			return errors.New("REDIS_ADDR must be set")
		}
		redisCache := cache.NewRedisCatalogCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cache.KeyPrefix)
		defer redisCache.Close()
		if err := redisCache.Ping(ctx); err != nil {
			return errors.Wrap(err, "connect redis")
		}
		return runInvalidateCache(ctx, catalog.New(nil, redisCache, 0), out)
	}

	if cfg.DatabaseURL == "" {
		return errors.New("DATABASE_URL must be set")
	}

	pg, err := pgstore.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "connect postgres")
	}
	defer pg.Close()

	if name == "migrate" {
		if err := pg.Migrate(ctx); err != nil {
			return err
		}
		fmt.Fprintln(out, "schema applied")
		return nil
	}

	if name != "audit" && len(cfg.LinkSecret) < 32 {
		return errors.New("LINK_SECRET must be set and at least 32 characters")
	}
	svc := service.New(pg, nil, linktoken.NewSigner(cfg.LinkSecret))

	switch name {
	case "issue-quote":
		return runIssueQuote(ctx, svc, args, out)
	case "issue-invoice":
		return runIssueInvoice(ctx, svc, args, out)
	default:
		return runAudit(ctx, svc, args, out)
	}
}

func runIssueQuote(ctx context.Context, svc *service.Service, args []string, out io.Writer) error {
	cmd := flag.NewFlagSet("issue-quote", flag.ContinueOnError)
	submission := cmd.String("submission", "", "Contact submission id")
	amount := cmd.Int64("amount", 0, "Quoted amount in whole dollars")
	validDays := cmd.Int("valid-days", 30, "Days before the quote link expires")
	details := cmd.String("details", "", "Quote details as a JSON object")
	if err := cmd.Parse(args); err != nil {
		return err
	}

	parsed, err := parseDetails(*details)
	if err != nil {
		return err
	}

	link, err := svc.IssueQuote(ctx, domain.IssueQuoteRequest{
		SubmissionID: *submission,
		Amount:       *amount,
		Details:      parsed,
		ValidDays:    *validDays,
	})
	if err != nil {
		return errors.Wrap(err, "issue quote")
	}
	return printJSON(out, link)
}

func runIssueInvoice(ctx context.Context, svc *service.Service, args []string, out io.Writer) error {
	cmd := flag.NewFlagSet("issue-invoice", flag.ContinueOnError)
	quote := cmd.String("quote", "", "Accepted quote id")
	invoiceType := cmd.String("type", domain.InvoiceTypeDeposit, "Invoice type (deposit, final)")
	items := cmd.String("items", "", `Line items as JSON, e.g. [{"description":"Deposit","amount":500}]`)
	due := cmd.String("due", "", "Due date (YYYY-MM-DD)")
	if err := cmd.Parse(args); err != nil {
		return err
	}

	lineItems, err := parseLineItems(*items)
	if err != nil {
		return err
	}

	link, err := svc.IssueInvoice(ctx, domain.IssueInvoiceRequest{
		QuoteID:     *quote,
		InvoiceType: *invoiceType,
		LineItems:   lineItems,
		DueDate:     *due,
	})
	if err != nil {
		return errors.Wrap(err, "issue invoice")
	}
	return printJSON(out, link)
}

func runAudit(ctx context.Context, svc *service.Service, args []string, out io.Writer) error {
	cmd := flag.NewFlagSet("audit", flag.ContinueOnError)
	entityType := cmd.String("entity-type", "quote", "Entity type (submission, quote, invoice)")
	entityID := cmd.String("entity-id", "", "Entity id")
	limit := cmd.Int("limit", 50, "Maximum entries to print")
	if err := cmd.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*entityID) == "" {
		return errors.New("-entity-id is required")
	}

	logs, err := svc.AuditTrail(ctx, *entityType, *entityID, *limit)
	if err != nil {
		return errors.Wrap(err, "list audit logs")
	}
	return printJSON(out, logs)
}

func runInvalidateCache(ctx context.Context, cat *catalog.Catalog, out io.Writer) error {
	if err := cat.Invalidate(ctx); err != nil {
		return errors.Wrap(err, "invalidate catalog cache")
	}
	fmt.Fprintln(out, "catalog cache cleared")
	return nil
}

func parseDetails(raw string) (map[string]any, error) {
	details := map[string]any{}
	if strings.TrimSpace(raw) == "" {
		return details, nil
	}
	if err := json.Unmarshal([]byte(raw), &details); err != nil {
		return nil, errors.Wrap(err, "-details must be a JSON object")
	}
	return details, nil
}

func parseLineItems(raw string) ([]domain.InvoiceLineItem, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, errors.New("-items is required")
	}
	var items []domain.InvoiceLineItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, errors.Wrap(err, "-items must be a JSON array")
	}
	return items, nil
}

func printJSON(out io.Writer, value any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}

func printUsage(out io.Writer) {
	fmt.Fprintln(out, "Usage: bookingctl <command> [flags]")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Commands:")
	fmt.Fprintln(out, "  migrate           Apply the postgres schema")
	fmt.Fprintln(out, "  issue-quote       Issue a quote link for a contact submission")
	fmt.Fprintln(out, "  issue-invoice     Issue an invoice link for an accepted quote")
	fmt.Fprintln(out, "  audit             Print the audit trail for an entity")
	fmt.Fprintln(out, "  invalidate-cache  Drop cached package and add-on lists")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Link tokens are printed once; only their digest is stored.")
}
