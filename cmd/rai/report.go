package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/reflectai/reflectai/internal/report"
	"github.com/reflectai/reflectai/internal/treestore"
)

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Weekly progress reports",
	}

	cmd.AddCommand(newReportGenerateCmd())
	cmd.AddCommand(newReportListCmd())
	return cmd
}

func newReportGenerateCmd() *cobra.Command {
	var (
		configPath string
		owner      string
		send       bool
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a report now and print it",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReportGenerate(cmd, configPath, owner, send)
		},
	}

	addConfigFlags(cmd, &configPath, &owner)
	cmd.Flags().BoolVar(&send, "send", false, "deliver the report through the configured notifier")
	return cmd
}

func runReportGenerate(cmd *cobra.Command, configPath, owner string, send bool) error {
	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	store, err := treestore.New(gormDB, logger)
	if err != nil {
		return err
	}
	gen, err := newGenerator(cfg, gormDB, store, logger, nil)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	rep, err := gen.Generate(ctx, ownerOrDefault(cfg, owner))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, rep.Body)

	if send {
		notifier, err := newNotifier(cfg)
		if err != nil {
			return err
		}
		if err := report.Deliver(ctx, notifier, rep); err != nil {
			return err
		}
		fmt.Fprintf(out, "Delivered via %s\n", notifier.Name())
	}
	return nil
}

func newReportListCmd() *cobra.Command {
	var (
		configPath string
		owner      string
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored reports, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			reps, err := report.List(gormDB, ownerOrDefault(cfg, owner), limit)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tPERIOD\tPROVIDER\tCREATED")
			for _, r := range reps {
				fmt.Fprintf(w, "%d\t%s to %s\t%s\t%s\n", r.ID,
					r.PeriodStart.Format("2006-01-02"), r.PeriodEnd.Format("2006-01-02"),
					r.Provider, r.CreatedAt.Format("2006-01-02 15:04"))
			}
			return w.Flush()
		},
	}

	addConfigFlags(cmd, &configPath, &owner)
	cmd.Flags().IntVar(&limit, "limit", 10, "maximum number of reports")
	return cmd
}
