package main

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"emergency-fund/internal/app"
	"emergency-fund/internal/config"
	"emergency-fund/internal/core/domain"
	"emergency-fund/internal/core/services"
	"emergency-fund/internal/infrastructure/logger"

	"github.com/spf13/cobra"
)

// newScheduleCmd prints the payment schedule of a catalog plan. It reads the
// catalog file only and needs no database.
func newScheduleCmd() *cobra.Command {
	var (
		catalogPath string
		planCode    string
		frequency   string
		start       string
	)
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Print the payment schedule of a plan",
		RunE: func(cmd *cobra.Command, _ []string) error {
			catalog, err := config.LoadPlanCatalog(catalogPath)
			if err != nil {
				return err
			}
			var plan *domain.SubscriptionPlan
			for _, entry := range catalog.Plans {
				if strings.EqualFold(entry.Code, planCode) {
					plan = entry.ToDomain()
					break
				}
			}
			if plan == nil {
				return fmt.Errorf("plan %q not in %s", planCode, catalogPath)
			}

			startDate, err := time.Parse("2006-01-02", start)
			if err != nil {
				return fmt.Errorf("invalid --start: %w", err)
			}

			schedule, err := services.CalculateSchedule(services.ScheduleInputFromPlan(
				plan.Snapshot(), domain.PaymentFrequency(strings.ToUpper(frequency)), startDate))
			if err != nil {
				return err
			}
			return printSchedule(cmd, schedule)
		},
	}
	cmd.Flags().StringVar(&catalogPath, "catalog", "configs/plans.toml", "plan catalog file")
	cmd.Flags().StringVar(&planCode, "plan", "", "plan code, e.g. CI-1")
	cmd.Flags().StringVar(&frequency, "frequency", string(domain.FrequencyMonthly), "DAILY or MONTHLY")
	cmd.Flags().StringVar(&start, "start", time.Now().Format("2006-01-02"), "first payment date (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("plan")
	return cmd
}

func printSchedule(cmd *cobra.Command, s *domain.Schedule) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "PERIOD\tDATE\tPAYMENTS\tAMOUNT\tCUMULATIVE\t")
	for _, it := range s.Items {
		fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%s\t\n",
			it.Period, it.Date.Format("2006-01-02"), it.PaymentCount, it.Amount.StringFixed(2), it.Cumulative.StringFixed(2))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if s.DailyRate != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "daily rate: %s\n", s.DailyRate.StringFixed(2))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "total: %s over %d months, %d payments\n",
		s.TotalAmount.StringFixed(2), s.TotalMonths, s.TotalPayments)
	return nil
}

// newIDCmd prints the base identifier a demand would receive
func newIDCmd() *cobra.Command {
	var (
		prefix string
		at     string
		tz     string
	)
	cmd := &cobra.Command{
		Use:   "id <matricule>",
		Short: "Print the base demand identifier for a matricule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loc := config.FundConfig{TimeZone: tz}.Location()
			t := time.Now()
			if at != "" {
				parsed, err := time.ParseInLocation("2006-01-02 15:04", at, loc)
				if err != nil {
					return fmt.Errorf("invalid --at: %w", err)
				}
				t = parsed
			}
			ids := services.NewIDFormatter(prefix, "", loc)
			fmt.Fprintln(cmd.OutOrStdout(), ids.DemandID(args[0], t))
			return nil
		},
	}
	cmd.Flags().StringVar(&prefix, "prefix", services.DefaultDemandPrefix, "identifier prefix")
	cmd.Flags().StringVar(&at, "at", "", "creation time (YYYY-MM-DD HH:MM), defaults to now")
	cmd.Flags().StringVar(&tz, "tz", "", "IANA time zone, defaults to local")
	return cmd
}

// newMigrateCmd migrates the schema and seeds the plan catalog
func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Migrate the database and seed the plan catalog",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withContainer(cmd.Context(), func(ctx context.Context, c *app.Container) error {
				if err := config.Migrate(c.DB); err != nil {
					return err
				}
				return config.NewSeeder(c.DB, c.Plans, c.Config).Run(ctx)
			})
		},
	}
}

// newReconcileCmd runs one conversion reconciliation sweep
func newReconcileCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Link contracts left behind by interrupted conversions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withContainer(cmd.Context(), func(ctx context.Context, c *app.Container) error {
				result, err := c.DemandSvc.ReconcileConversions(ctx, c.Config.Fund.SystemActorID, limit)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "scanned %d, linked %d, skipped %d\n",
					result.Scanned, len(result.Linked), len(result.Skipped))
				for _, id := range result.Linked {
					fmt.Fprintln(cmd.OutOrStdout(), "linked", id)
				}
				for _, id := range result.Skipped {
					fmt.Fprintln(cmd.OutOrStdout(), "skipped", id)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", services.DefaultReconcileBatch, "maximum contracts to scan")
	return cmd
}

func withContainer(ctx context.Context, fn func(context.Context, *app.Container) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := logger.Init(&cfg.Log, cfg.AppMode); err != nil {
		return err
	}
	defer logger.Sync()

	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		return err
	}
	defer config.CloseDatabase(db)

	c := app.New(ctx, cfg, db)
	defer c.Close()
	return fn(ctx, c)
}
