package db

import (
	"context"

	"github.com/doralyyyyy/Restaurant-Platform/pkg/api"
)

// DishStat counts portions ordered and distinct customers for one dish.
type DishStat struct {
	DishID    int64 `json:"dish_id"`
	Quantity  int   `json:"quantity"`
	Customers int   `json:"customers"`
}

// CustomerSpend is one customer's consumption of a single dish.
type CustomerSpend struct {
	User     api.User  `json:"user"`
	Quantity int       `json:"quantity"`
	Amount   api.Money `json:"amount"`
}

type CustomerTotal struct {
	User  api.User  `json:"user"`
	Total api.Money `json:"total"`
}

type DishSale struct {
	Dish     api.Dish  `json:"dish"`
	Quantity int       `json:"quantity"`
	Amount   api.Money `json:"amount"`
}

// Summary is the owner-facing digest of a restaurant's sales.
type Summary struct {
	Orders        int             `json:"orders"`
	Revenue       api.Money       `json:"revenue"`
	TopCustomers  []CustomerTotal `json:"top_customers"`
	TopByQuantity []DishSale      `json:"top_by_quantity"`
	TopByAmount   []DishSale      `json:"top_by_amount"`
}

const summaryTop = 5

// DishStats returns per-dish totals for every dish of the restaurant,
// including dishes nobody ordered.
func (s *Store) DishStats(ctx context.Context, restaurantID int64) (map[int64]DishStat, error) {
	rows, err := s.q(ctx).QueryContext(ctx, `
SELECT d.id, COALESCE(SUM(oi.quantity), 0), COUNT(DISTINCT o.customer_id)
FROM dishes d
LEFT JOIN order_items oi ON oi.dish_id = d.id
LEFT JOIN orders o ON o.id = oi.order_id
WHERE d.restaurant_id = ?
GROUP BY d.id`, restaurantID)
	if err != nil {
		return nil, err
	}
	stats, err := collect(rows, func(row scanner) (DishStat, error) {
		var st DishStat
		err := row.Scan(&st.DishID, &st.Quantity, &st.Customers)
		return st, err
	})
	if err != nil {
		return nil, err
	}
	out := make(map[int64]DishStat, len(stats))
	for _, st := range stats {
		out[st.DishID] = st
	}
	return out, nil
}

// DishOrderedQty is the total number of portions of a dish ever ordered.
func (s *Store) DishOrderedQty(ctx context.Context, dishID int64) (int, error) {
	var n int
	err := s.q(ctx).QueryRowContext(ctx,
		`SELECT COALESCE(SUM(quantity), 0) FROM order_items WHERE dish_id=?`, dishID).Scan(&n)
	return n, err
}

// DishCustomers lists who ordered the dish at this restaurant, biggest
// spenders first.
func (s *Store) DishCustomers(ctx context.Context, restaurantID, dishID int64) ([]CustomerSpend, error) {
	rows, err := s.q(ctx).QueryContext(ctx, `
SELECT `+userColumns+`, SUM(oi.quantity), SUM(oi.quantity * oi.unit_price_cents) AS amount
FROM users u
JOIN orders o ON o.customer_id = u.id
JOIN order_items oi ON oi.order_id = o.id
WHERE oi.dish_id = ? AND o.restaurant_id = ?
GROUP BY u.id
ORDER BY amount DESC, u.id`, dishID, restaurantID)
	if err != nil {
		return nil, err
	}
	return collect(rows, func(row scanner) (CustomerSpend, error) {
		var cs CustomerSpend
		u := &cs.User
		err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Avatar, &u.CreatedAt, &cs.Quantity, &cs.Amount)
		return cs, err
	})
}

// CustomerTotals ranks the restaurant's customers by total spend.
func (s *Store) CustomerTotals(ctx context.Context, restaurantID int64) ([]CustomerTotal, error) {
	return s.customerTotals(ctx, restaurantID, -1)
}

func (s *Store) customerTotals(ctx context.Context, restaurantID int64, limit int) ([]CustomerTotal, error) {
	rows, err := s.q(ctx).QueryContext(ctx, `
SELECT `+userColumns+`, SUM(o.total_cents) AS total
FROM users u
JOIN orders o ON o.customer_id = u.id
WHERE o.restaurant_id = ?
GROUP BY u.id
ORDER BY total DESC, u.id
LIMIT ?`, restaurantID, limit)
	if err != nil {
		return nil, err
	}
	return collect(rows, func(row scanner) (CustomerTotal, error) {
		var ct CustomerTotal
		u := &ct.User
		err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Avatar, &u.CreatedAt, &ct.Total)
		return ct, err
	})
}

// CustomerDishes is one customer's order history at a restaurant, per dish.
func (s *Store) CustomerDishes(ctx context.Context, restaurantID, userID int64) ([]DishSale, error) {
	rows, err := s.q(ctx).QueryContext(ctx, `
SELECT `+dishColumns+`, SUM(oi.quantity) AS qty, SUM(oi.quantity * oi.unit_price_cents) AS amount
FROM dishes d
JOIN order_items oi ON oi.dish_id = d.id
JOIN orders o ON o.id = oi.order_id
WHERE o.customer_id = ? AND o.restaurant_id = ?
GROUP BY d.id
ORDER BY qty DESC, d.id`, userID, restaurantID)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanDishSale)
}

func (s *Store) CustomerTotal(ctx context.Context, restaurantID, userID int64) (api.Money, error) {
	var total api.Money
	err := s.q(ctx).QueryRowContext(ctx,
		`SELECT COALESCE(SUM(total_cents), 0) FROM orders WHERE customer_id=? AND restaurant_id=?`,
		userID, restaurantID).Scan(&total)
	return total, err
}

// DishSales reports quantity and amount for every dish of the restaurant,
// zero rows included, ordered by quantity.
func (s *Store) DishSales(ctx context.Context, restaurantID int64) ([]DishSale, error) {
	rows, err := s.q(ctx).QueryContext(ctx, `
SELECT `+dishColumns+`, COALESCE(SUM(oi.quantity), 0) AS qty,
       COALESCE(SUM(oi.quantity * oi.unit_price_cents), 0) AS amount
FROM dishes d
LEFT JOIN order_items oi ON oi.dish_id = d.id
WHERE d.restaurant_id = ?
GROUP BY d.id
ORDER BY qty DESC, d.id`, restaurantID)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanDishSale)
}

func scanDishSale(row scanner) (DishSale, error) {
	var ds DishSale
	d := &ds.Dish
	err := row.Scan(&d.ID, &d.Name, &d.Description, &d.Price, &d.Image, &d.Thumb, &d.RestaurantID, &d.CategoryID, &d.CreatedAt,
		&ds.Quantity, &ds.Amount)
	return ds, err
}

// RestaurantSummary gathers order count, revenue and the top five
// customers and dishes.
func (s *Store) RestaurantSummary(ctx context.Context, restaurantID int64) (Summary, error) {
	var sum Summary
	err := s.q(ctx).QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(total_cents), 0) FROM orders WHERE restaurant_id=?`, restaurantID).
		Scan(&sum.Orders, &sum.Revenue)
	if err != nil {
		return Summary{}, err
	}
	if sum.TopCustomers, err = s.customerTotals(ctx, restaurantID, summaryTop); err != nil {
		return Summary{}, err
	}
	if sum.TopByQuantity, err = s.topDishes(ctx, restaurantID, "qty"); err != nil {
		return Summary{}, err
	}
	if sum.TopByAmount, err = s.topDishes(ctx, restaurantID, "amount"); err != nil {
		return Summary{}, err
	}
	return sum, nil
}

// topDishes ranks ordered dishes by the named aggregate, qty or amount.
func (s *Store) topDishes(ctx context.Context, restaurantID int64, by string) ([]DishSale, error) {
	order := "qty DESC"
	if by == "amount" {
		order = "amount DESC"
	}
	rows, err := s.q(ctx).QueryContext(ctx, `
SELECT `+dishColumns+`, SUM(oi.quantity) AS qty, SUM(oi.quantity * oi.unit_price_cents) AS amount
FROM dishes d
JOIN order_items oi ON oi.dish_id = d.id
WHERE d.restaurant_id = ?
GROUP BY d.id
ORDER BY `+order+`, d.id
LIMIT ?`, restaurantID, summaryTop)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanDishSale)
}
