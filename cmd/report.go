package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/efda-insights/permit-analytics/internal/analytics"
	"github.com/efda-insights/permit-analytics/internal/query"
)

var reportLimit int

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print growth, decline, and price-spread rankings",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("report"); err != nil {
			return err
		}

		ctx := cmd.Context()
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()
		svc := initAnalytics(st)

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		defer w.Flush()

		growth, window, err := svc.TopGrowth(ctx, analytics.GrowthParams{Limit: reportLimit})
		if err != nil {
			return err
		}
		if window.Latest.IsZero() {
			fmt.Fprintln(w, "No orders ingested yet.")
			return nil
		}
		fmt.Fprintf(w, "Growth (%s to %s, midpoint %s)\n",
			window.Earliest.Format("2006-01-02"),
			window.Latest.Format("2006-01-02"),
			window.Mid.Format("2006-01-02"))
		fmt.Fprintln(w, "PRODUCT\tFORM\tSTRENGTH\tPRIOR\tRECENT\tGROWTH")
		for _, g := range growth {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%+d%%\n",
				g.GenericName, g.DosageForm, g.DosageStrength,
				g.PriorOrders, g.RecentOrders, g.GrowthPct)
		}

		decline, _, err := svc.TopDecline(ctx, analytics.GrowthParams{Limit: reportLimit})
		if err != nil {
			return err
		}
		fmt.Fprintln(w, "\nDecline")
		fmt.Fprintln(w, "PRODUCT\tFORM\tSTRENGTH\tPRIOR\tRECENT\tGROWTH")
		for _, g := range decline {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%+d%%\n",
				g.GenericName, g.DosageForm, g.DosageStrength,
				g.PriorOrders, g.RecentOrders, g.GrowthPct)
		}

		spreads, err := svc.TopSpreads(ctx, query.Filters{},
			query.PageRequest{Page: 1, PageSize: reportLimit}.
				Normalize(cfg.Analytics.DefaultPageSize, cfg.Analytics.MaxPageSize))
		if err != nil {
			return err
		}
		fmt.Fprintln(w, "\nPrice spreads")
		fmt.Fprintln(w, "PRODUCT\tFORM\tSTRENGTH\tORDERS\tMIN\tAVG\tMAX\tSPREAD")
		for _, s := range spreads.Data {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.2f\t%.2f\t%.2f\t%d%%\n",
				s.GenericName, s.DosageForm, s.DosageStrength,
				s.OrderCount, s.MinPrice, s.AvgPrice, s.MaxPrice, s.SpreadPct)
		}

		return nil
	},
}

func init() {
	reportCmd.Flags().IntVar(&reportLimit, "limit", 10, "rows per section")
	rootCmd.AddCommand(reportCmd)
}
