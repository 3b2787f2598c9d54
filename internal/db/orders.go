package db

import (
	"context"
	"time"

	"github.com/doralyyyyy/Restaurant-Platform/pkg/api"
)

// CreateOrder writes the order header and its lines in one transaction.
func (s *Store) CreateOrder(ctx context.Context, o api.Order, items []api.OrderItem) (api.Order, error) {
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}
	err := s.InTx(ctx, func(ctx context.Context) error {
		q := s.q(ctx)
		res, err := q.ExecContext(ctx,
			`INSERT INTO orders(customer_id, restaurant_id, created_at, total_cents) VALUES(?,?,?,?)`,
			o.CustomerID, o.RestaurantID, o.CreatedAt.UTC(), o.TotalAmount)
		if err != nil {
			return mapErr(err)
		}
		if o.ID, err = res.LastInsertId(); err != nil {
			return err
		}
		o.Items = make([]api.OrderItem, 0, len(items))
		for _, it := range items {
			it.OrderID = o.ID
			res, err := q.ExecContext(ctx,
				`INSERT INTO order_items(order_id, dish_id, quantity, unit_price_cents) VALUES(?,?,?,?)`,
				it.OrderID, it.DishID, it.Quantity, it.UnitPrice)
			if err != nil {
				return mapErr(err)
			}
			if it.ID, err = res.LastInsertId(); err != nil {
				return err
			}
			o.Items = append(o.Items, it)
		}
		return nil
	})
	if err != nil {
		return api.Order{}, err
	}
	return o, nil
}

// GetOrder loads an order with its lines.
func (s *Store) GetOrder(ctx context.Context, id int64) (api.Order, error) {
	var o api.Order
	err := s.q(ctx).QueryRowContext(ctx,
		`SELECT id, customer_id, restaurant_id, created_at, total_cents FROM orders WHERE id=?`, id).
		Scan(&o.ID, &o.CustomerID, &o.RestaurantID, &o.CreatedAt, &o.TotalAmount)
	if err != nil {
		return api.Order{}, mapErr(err)
	}
	rows, err := s.q(ctx).QueryContext(ctx,
		`SELECT id, order_id, dish_id, quantity, unit_price_cents FROM order_items WHERE order_id=? ORDER BY id`, id)
	if err != nil {
		return api.Order{}, err
	}
	o.Items, err = collect(rows, func(row scanner) (api.OrderItem, error) {
		var it api.OrderItem
		err := row.Scan(&it.ID, &it.OrderID, &it.DishID, &it.Quantity, &it.UnitPrice)
		return it, err
	})
	return o, err
}
