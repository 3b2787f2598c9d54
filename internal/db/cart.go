package db

import (
	"context"

	"github.com/doralyyyyy/Restaurant-Platform/pkg/api"
)

// CartItem is a stored cart line joined with its dish.
type CartItem struct {
	Dish     api.Dish
	Quantity int
}

// CartItems returns the user's lines at one restaurant in the order they were
// first added, zero quantities included.
func (s *Store) CartItems(ctx context.Context, userID, restaurantID int64) ([]CartItem, error) {
	rows, err := s.q(ctx).QueryContext(ctx, `
SELECT `+dishColumns+`, c.quantity
FROM cart_items c
JOIN dishes d ON d.id = c.dish_id
WHERE c.user_id = ? AND c.restaurant_id = ?
ORDER BY c.rowid`, userID, restaurantID)
	if err != nil {
		return nil, err
	}
	return collect(rows, func(row scanner) (CartItem, error) {
		var ci CartItem
		d := &ci.Dish
		err := row.Scan(&d.ID, &d.Name, &d.Description, &d.Price, &d.Image, &d.Thumb, &d.RestaurantID, &d.CategoryID, &d.CreatedAt,
			&ci.Quantity)
		return ci, err
	})
}

// CartQuantity returns the stored quantity of a dish, or ErrNotFound when the
// dish was never added.
func (s *Store) CartQuantity(ctx context.Context, userID, dishID int64) (int, error) {
	var n int
	err := s.q(ctx).QueryRowContext(ctx,
		`SELECT quantity FROM cart_items WHERE user_id=? AND dish_id=?`, userID, dishID).Scan(&n)
	return n, mapErr(err)
}

// AddCartQuantity adds delta to the line, creating it when missing.
func (s *Store) AddCartQuantity(ctx context.Context, userID, restaurantID, dishID int64, delta int) error {
	_, err := s.q(ctx).ExecContext(ctx, `
INSERT INTO cart_items(user_id, restaurant_id, dish_id, quantity) VALUES(?,?,?,?)
ON CONFLICT(user_id, dish_id) DO UPDATE SET quantity = quantity + excluded.quantity`,
		userID, restaurantID, dishID, delta)
	return mapErr(err)
}

// SetCartQuantity overwrites an existing line.
func (s *Store) SetCartQuantity(ctx context.Context, userID, dishID int64, qty int) error {
	res, err := s.q(ctx).ExecContext(ctx,
		`UPDATE cart_items SET quantity=? WHERE user_id=? AND dish_id=?`, qty, userID, dishID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ClearCart drops every line the user has at the restaurant.
func (s *Store) ClearCart(ctx context.Context, userID, restaurantID int64) error {
	_, err := s.q(ctx).ExecContext(ctx,
		`DELETE FROM cart_items WHERE user_id=? AND restaurant_id=?`, userID, restaurantID)
	return err
}
