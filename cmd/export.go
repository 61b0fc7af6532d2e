package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/efda-insights/permit-analytics/internal/model"
	"github.com/efda-insights/permit-analytics/internal/query"
)

var exportOutPath string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the aggregated product catalog to an xlsx workbook",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("export"); err != nil {
			return err
		}

		ctx := cmd.Context()
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()
		svc := initAnalytics(st)

		file := xlsx.NewFile()
		sheet, err := file.AddSheet("Products")
		if err != nil {
			return eris.Wrap(err, "export: add sheet")
		}
		writeProductHeader(sheet)

		// Walk every catalog page at the maximum page size.
		page := query.PageRequest{Page: 1, PageSize: cfg.Analytics.MaxPageSize}
		var exported int
		for {
			res, err := svc.ListProducts(ctx, query.Filters{}, "value", "desc", page)
			if err != nil {
				return eris.Wrap(err, "export: list products")
			}
			for _, p := range res.Data {
				writeProductRow(sheet, p)
			}
			exported += len(res.Data)
			if page.Page >= res.TotalPages || len(res.Data) == 0 {
				break
			}
			page.Page++
		}

		if err := file.Save(exportOutPath); err != nil {
			return eris.Wrap(err, "export: save workbook")
		}
		zap.L().Info("export complete",
			zap.Int("products", exported),
			zap.String("out", exportOutPath),
		)
		return nil
	},
}

func writeProductHeader(sheet *xlsx.Sheet) {
	header := sheet.AddRow()
	for _, label := range []string{"Generic Name", "Dosage Form", "Strength",
		"Orders", "Brands", "Suppliers", "Total Quantity", "Avg Unit Price", "Total Value"} {
		header.AddCell().SetString(label)
	}
}

func writeProductRow(sheet *xlsx.Sheet, p model.ProductRow) {
	row := sheet.AddRow()
	row.AddCell().SetString(p.GenericName)
	row.AddCell().SetString(p.DosageForm)
	row.AddCell().SetString(p.DosageStrength)
	row.AddCell().SetInt64(p.OrderCount)
	row.AddCell().SetInt64(p.BrandCount)
	row.AddCell().SetInt64(p.SupplierCount)
	row.AddCell().SetFloat(p.TotalQuantity)
	row.AddCell().SetFloat(p.AvgPrice)
	row.AddCell().SetFloat(p.TotalValue)
}

func init() {
	exportCmd.Flags().StringVar(&exportOutPath, "out", "products.xlsx", "output workbook path")
	rootCmd.AddCommand(exportCmd)
}
