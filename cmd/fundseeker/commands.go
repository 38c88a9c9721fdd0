package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/seenimoa/fundseeker/api"
	"github.com/seenimoa/fundseeker/internal/config"
	"github.com/seenimoa/fundseeker/internal/seeker"
	"github.com/seenimoa/fundseeker/pkg/utils"
)

// --- Serve Command (API Server) ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		hub := api.NewWSHub()
		a, err := newApp(cmd.Context(), cfg, hub)
		if err != nil {
			return err
		}
		defer a.Close()

		srv := api.NewServer(cfg, a.svc, hub, api.Options{Version: version, Logger: a.log})
		fmt.Fprintf(cmd.OutOrStdout(), "Starting fundseeker API server on %s\n", cfg.API.Addr())
		return srv.ListenAndServe(cmd.Context(), cfg.API.Addr())
	},
}

// --- Import Command ---

var importCmd = &cobra.Command{
	Use:   "import [cik...]",
	Short: "Import 10-K net income for companies from EDGAR",
	Long: `Import annual net income from EDGAR company facts and update each
company's ledger.

Examples:
  fundseeker import 320193 CIK0001318605
  fundseeker import --recent 20
  fundseeker import            # configured default CIKs`,
	RunE: func(cmd *cobra.Command, args []string) error {
		recent, _ := cmd.Flags().GetInt("recent")
		if recent > 0 && len(args) > 0 {
			return errors.New("pass CIKs or --recent, not both")
		}

		ciks, err := utils.ParseCIKs(args)
		if err != nil {
			return err
		}
		if recent == 0 && len(ciks) == 0 {
			ciks = cfg.Import.DefaultCIKs
		}
		if recent == 0 && len(ciks) == 0 {
			return errors.New("no CIKs given and import.default_ciks is empty")
		}

		a, err := newApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		var results []seeker.ImportResult
		if recent > 0 {
			results, err = a.svc.ImportRecent(cmd.Context(), recent)
			if err != nil {
				return err
			}
		} else {
			results = a.svc.ImportBatch(cmd.Context(), ciks)
		}

		if failed := printImportResults(cmd.OutOrStdout(), results); failed > 0 {
			return fmt.Errorf("%d of %d imports failed", failed, len(results))
		}
		return nil
	},
}

func init() {
	importCmd.Flags().Int("recent", 0, "import the N most recent 10-K filers from the EDGAR feed")
}

// --- Companies Command ---

var companiesCmd = &cobra.Command{
	Use:   "companies",
	Short: "List stored companies with their fundable amounts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		prefix, _ := cmd.Flags().GetString("starts-with")

		a, err := newApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		list, err := a.svc.Companies(cmd.Context(), prefix)
		if err != nil {
			return err
		}
		printCompanies(cmd.OutOrStdout(), list)
		return nil
	},
}

func init() {
	companiesCmd.Flags().String("starts-with", "", "only companies whose name starts with this prefix (case-insensitive)")
}

// --- Company Command ---

var companyCmd = &cobra.Command{
	Use:   "company [cik]",
	Short: "Show one stored company",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cik, err := utils.ParseCIK(args[0])
		if err != nil {
			return err
		}

		a, err := newApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		c, err := a.svc.Company(cmd.Context(), cik)
		if err != nil {
			return err
		}
		printCompany(cmd.OutOrStdout(), c)
		return nil
	},
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show system status and configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		offline, _ := cmd.Flags().GetBool("offline")

		fmt.Fprintln(out, "═══════════════════════════════════════")
		fmt.Fprintln(out, "  fundseeker — System Status")
		fmt.Fprintln(out, "═══════════════════════════════════════")
		fmt.Fprintf(out, "  Version:       %s (%s)\n", version, commit)
		fmt.Fprintf(out, "  Time (UTC):    %s\n", time.Now().UTC().Format(time.RFC3339))
		fmt.Fprintln(out)

		// Config summary
		fmt.Fprintln(out, "  Configuration:")
		fmt.Fprintf(out, "    EDGAR:         %s (%d req/s)\n", cfg.EDGAR.BaseURL, cfg.EDGAR.RateLimit)
		fmt.Fprintf(out, "    Storage:       %s\n", cfg.Storage.Driver)
		fmt.Fprintf(out, "    Concurrency:   %d\n", cfg.Import.Concurrency)
		fmt.Fprintf(out, "    Kafka:         %s\n", kafkaSummary(cfg))
		fmt.Fprintf(out, "    API Server:    %s\n", cfg.API.Addr())
		fmt.Fprintln(out)

		// Sensitive settings
		fmt.Fprintln(out, "  Settings:")
		for _, s := range config.CheckSettings(cfg) {
			status := "not set"
			if s.IsSet {
				status = fmt.Sprintf("set (%s: %s)", s.Source, s.Masked)
			}
			fmt.Fprintf(out, "    %-25s %s\n", s.Name+":", status)
		}
		fmt.Fprintln(out)

		a, err := newApp(cmd.Context(), cfg)
		if err != nil {
			fmt.Fprintf(out, "  Storage:       error: %v\n", err)
			return err
		}
		defer a.Close()

		stored, err := a.svc.Companies(cmd.Context(), "")
		if err != nil {
			fmt.Fprintf(out, "  Storage:       error: %v\n", err)
		} else {
			fmt.Fprintf(out, "  Storage:       ok (%d companies)\n", len(stored))
		}

		if !offline {
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()
			if err := a.edgar.Ping(ctx); err != nil {
				fmt.Fprintf(out, "  EDGAR:         unreachable: %v\n", err)
			} else {
				fmt.Fprintln(out, "  EDGAR:         ok")
			}
		}

		fmt.Fprintln(out, "═══════════════════════════════════════")
		return nil
	},
}

func init() {
	statusCmd.Flags().Bool("offline", false, "skip the EDGAR connectivity check")
}

func kafkaSummary(cfg *config.Config) string {
	if !cfg.Events.Kafka.Enabled {
		return "disabled"
	}
	return fmt.Sprintf("%s on %d broker(s)", cfg.Events.Kafka.Topic, len(cfg.Events.Kafka.Brokers))
}
