package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/doralyyyyy/Restaurant-Platform/internal/chart"
	"github.com/doralyyyyy/Restaurant-Platform/internal/db"
	"github.com/doralyyyyy/Restaurant-Platform/pkg/api"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).MarginBottom(1)
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	faintStyle  = lipgloss.NewStyle().Faint(true)
)

type salesReport struct {
	Restaurant api.Restaurant     `json:"restaurant"`
	Summary    db.Summary         `json:"summary"`
	Chart      chart.Report       `json:"chart"`
	Customers  []db.CustomerTotal `json:"customers"`
}

func newReportCmd() *cobra.Command {
	var restaurant string
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show a restaurant's sales report",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)
			ctx := cmd.Context()
			r, err := findRestaurant(ctx, app.Store, restaurant)
			if err != nil {
				return err
			}
			rep := salesReport{Restaurant: r}
			if rep.Summary, err = app.Store.RestaurantSummary(ctx, r.ID); err != nil {
				return err
			}
			sales, err := app.Store.DishSales(ctx, r.ID)
			if err != nil {
				return err
			}
			rep.Chart = chart.Build(sales)
			if rep.Customers, err = app.Store.CustomerTotals(ctx, r.ID); err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(rep)
			}
			return withPager(ctx, cmd.OutOrStdout(), cmd.ErrOrStderr(), func(w io.Writer) error {
				return writeReport(w, rep)
			})
		},
	}
	cmd.Flags().StringVarP(&restaurant, "restaurant", "r", "", "restaurant id or name")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	return cmd
}

func writeReport(w io.Writer, rep salesReport) error {
	out := titleStyle.Render(fmt.Sprintf("%s 销售报表", rep.Restaurant.Name)) + "\n"
	out += fmt.Sprintf("订单数: %d    总营业额: %s 元    总份数: %d\n\n",
		rep.Summary.Orders, rep.Summary.Revenue, rep.Chart.TotalQuantity)

	if len(rep.Chart.Labels) == 0 {
		out += faintStyle.Render("暂无销售数据") + "\n"
		_, err := io.WriteString(w, out)
		return err
	}

	dishes := newTable("菜品", "份数", "金额 (元)", "占比")
	for i, name := range rep.Chart.LabelsByAmount {
		amount := rep.Chart.AmountsSorted[i]
		dishes.Row(name, strconv.Itoa(quantityOf(rep.Chart, name)), amount.String(), share(amount, rep.Chart.TotalAmount))
	}
	out += dishes.Render() + "\n\n"

	customers := newTable("顾客", "消费 (元)")
	for _, c := range rep.Customers {
		customers.Row(c.User.Username, c.Total.String())
	}
	out += customers.Render() + "\n"

	_, err := io.WriteString(w, out)
	return err
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

func quantityOf(rep chart.Report, label string) int {
	for i, l := range rep.Labels {
		if l == label {
			return rep.Quantities[i]
		}
	}
	return 0
}

// share formats part/total as a percentage with one decimal.
func share(part, total api.Money) string {
	if total.Cents() == 0 {
		return "-"
	}
	return fmt.Sprintf("%.1f%%", float64(part.Cents())*100/float64(total.Cents()))
}
