// Command ledger-report prints the month-grouped ledger with running balances,
// read from a CSV export or from the configured backend.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"kanakku/internal/backend"
	"kanakku/internal/cli"
	"kanakku/internal/config"
	"kanakku/internal/core"
	"kanakku/internal/ledger"
	"kanakku/internal/locale"
	"kanakku/internal/log"
	"kanakku/internal/report"
	"kanakku/internal/store/csvfile"
)

func main() {
	cli.LoadEnvFile()
	cfg := config.Load()

	csvPath := flag.String("csv", "", "read transactions from this CSV file instead of the backend")
	format := flag.String("format", "text", "output format: text or json")
	lang := flag.String("lang", cfg.LedgerLanguage, "display language: en or ta")
	calendar := flag.String("calendar", cfg.LedgerCalendar, "month calendar: gregorian or jalali")
	tz := flag.String("tz", cfg.LedgerTimezone, "IANA timezone for month boundaries")
	strict := flag.Bool("strict", cfg.LedgerStrict, "reject the whole set if any transaction is malformed")
	flag.Parse()

	// Logs go to stderr so stdout carries only the report.
	logCfg := log.DefaultConfig()
	logCfg.Output = os.Stderr
	logCfg.Component = log.ComponentReport
	if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
		logCfg.Level = level
	}
	logger := log.New(logCfg)

	if err := run(context.Background(), cfg, logger, options{
		csvPath:  *csvPath,
		format:   *format,
		lang:     *lang,
		calendar: *calendar,
		tz:       *tz,
		strict:   *strict,
	}); err != nil {
		logger.Error("Report failed", log.FieldError, err)
		os.Exit(1)
	}
}

type options struct {
	csvPath  string
	format   string
	lang     string
	calendar string
	tz       string
	strict   bool
}

func run(ctx context.Context, cfg *config.Config, logger *log.Logger, opts options) error {
	out, err := report.ParseFormat(opts.format)
	if err != nil {
		return err
	}
	loc, err := time.LoadLocation(opts.tz)
	if err != nil {
		return fmt.Errorf("timezone %q: %w", opts.tz, err)
	}
	tag := locale.Match(opts.lang)
	labeler, err := locale.Labeler(opts.calendar, tag, loc)
	if err != nil {
		return err
	}

	txns, err := load(ctx, cfg, logger, opts.csvPath, loc)
	if err != nil {
		return err
	}

	var l ledger.Ledger
	if opts.strict {
		if l, err = ledger.DeriveStrict(txns, labeler.MonthLabel); err != nil {
			return err
		}
	} else {
		l = ledger.Derive(txns, labeler.MonthLabel)
	}
	logger.Debug("Ledger derived",
		log.FieldCount, l.Summary.Count,
		log.FieldMonthCount, l.Months.Len(),
		log.FieldLabeler, labeler.CacheKey())

	return report.Write(os.Stdout, out, l, locale.NewFormatter(tag, loc))
}

func load(ctx context.Context, cfg *config.Config, logger *log.Logger, csvPath string, loc *time.Location) ([]core.Transaction, error) {
	if csvPath != "" {
		txns, err := csvfile.New(csvPath, loc).List(ctx)
		if err == nil {
			logger.Debug("Transactions loaded",
				log.FieldOperation, log.OpList,
				log.FieldCount, len(txns),
				"source", csvPath)
		}
		return txns, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	backendCfg, err := backend.FromAppConfig(cfg, uuid.NewString())
	if err != nil {
		return nil, err
	}
	// A one-shot read needs no change events.
	backendCfg.AMQPURL = ""

	res, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.Warn("Backend cleanup error", log.FieldError, err)
		}
	}()
	txns, err := res.Store.List(ctx)
	if err != nil {
		return nil, err
	}
	logger.Debug("Transactions loaded",
		log.FieldOperation, log.OpList,
		log.FieldCount, len(txns),
		log.FieldBackend, cfg.DataBackend)
	return txns, nil
}
