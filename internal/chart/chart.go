// Package chart shapes dish sales into the series the report charts plot.
package chart

import (
	"fmt"
	"sort"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/doralyyyyy/Restaurant-Platform/internal/db"
	"github.com/doralyyyyy/Restaurant-Platform/pkg/api"
)

// Colors returns n distinct CSS colours with hues spread evenly around the
// wheel and slightly alternating saturation and lightness.
func Colors(n int) []string {
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		h := float64(i) / float64(n) * 360
		s := 0.7 + float64(i%3)*0.1
		l := 0.5 + float64(i%2)*0.1
		c := colorful.Hsl(h, s, l)
		out = append(out, fmt.Sprintf("rgb(%d, %d, %d)", channel(c.R), channel(c.G), channel(c.B)))
	}
	return out
}

func channel(v float64) int {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	}
	return int(v * 255)
}

// Report holds two orderings of the same dishes: by portions and by amount.
type Report struct {
	Labels         []string    `json:"labels"`
	Quantities     []int       `json:"qty_data"`
	Amounts        []api.Money `json:"amount_data"`
	LabelsByAmount []string    `json:"labels_amount"`
	AmountsSorted  []api.Money `json:"amount_data_sorted"`
	TotalQuantity  int         `json:"total_qty"`
	TotalAmount    api.Money   `json:"total_amount"`
	Colors         []string    `json:"colors"`
}

// Build expects sales already ordered by quantity, as db.DishSales returns
// them.
func Build(sales []db.DishSale) Report {
	r := Report{
		Labels:      make([]string, 0, len(sales)),
		Quantities:  make([]int, 0, len(sales)),
		Amounts:     make([]api.Money, 0, len(sales)),
		TotalAmount: api.Cents(0),
		Colors:      Colors(len(sales)),
	}
	for _, s := range sales {
		r.Labels = append(r.Labels, s.Dish.Name)
		r.Quantities = append(r.Quantities, s.Quantity)
		r.Amounts = append(r.Amounts, s.Amount)
		r.TotalQuantity += s.Quantity
		r.TotalAmount = r.TotalAmount.Add(s.Amount)
	}

	byAmount := make([]db.DishSale, len(sales))
	copy(byAmount, sales)
	sort.SliceStable(byAmount, func(i, j int) bool {
		return byAmount[i].Amount.Cmp(byAmount[j].Amount) > 0
	})
	r.LabelsByAmount = make([]string, 0, len(sales))
	r.AmountsSorted = make([]api.Money, 0, len(sales))
	for _, s := range byAmount {
		r.LabelsByAmount = append(r.LabelsByAmount, s.Dish.Name)
		r.AmountsSorted = append(r.AmountsSorted, s.Amount)
	}
	return r
}
