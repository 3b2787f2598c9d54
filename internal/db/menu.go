package db

import (
	"context"
	"strings"
	"time"

	"github.com/doralyyyyy/Restaurant-Platform/pkg/api"
)

// EnsureDefaultCategories adds any of api.DefaultCategoryNames the
// restaurant is missing. Existing categories are left alone.
func (s *Store) EnsureDefaultCategories(ctx context.Context, restaurantID int64) error {
	for _, name := range api.DefaultCategoryNames {
		if _, err := s.q(ctx).ExecContext(ctx,
			`INSERT OR IGNORE INTO categories(name, restaurant_id) VALUES(?,?)`, name, restaurantID); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) ListCategories(ctx context.Context, restaurantID int64) ([]api.Category, error) {
	rows, err := s.q(ctx).QueryContext(ctx,
		`SELECT id, name, restaurant_id FROM categories WHERE restaurant_id=? ORDER BY id`, restaurantID)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanCategory)
}

func (s *Store) GetCategory(ctx context.Context, id int64) (api.Category, error) {
	return scanCategory(s.q(ctx).QueryRowContext(ctx, `SELECT id, name, restaurant_id FROM categories WHERE id=?`, id))
}

func scanCategory(row scanner) (api.Category, error) {
	var c api.Category
	if err := row.Scan(&c.ID, &c.Name, &c.RestaurantID); err != nil {
		return api.Category{}, mapErr(err)
	}
	return c, nil
}

const dishColumns = `d.id, d.name, d.description, d.price_cents, d.image, d.thumb, d.restaurant_id, d.category_id, d.created_at`

func scanDish(row scanner) (api.Dish, error) {
	var d api.Dish
	if err := row.Scan(&d.ID, &d.Name, &d.Description, &d.Price, &d.Image, &d.Thumb, &d.RestaurantID, &d.CategoryID, &d.CreatedAt); err != nil {
		return api.Dish{}, mapErr(err)
	}
	return d, nil
}

func (s *Store) CreateDish(ctx context.Context, d api.Dish) (api.Dish, error) {
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	res, err := s.q(ctx).ExecContext(ctx, `
INSERT INTO dishes(name, description, price_cents, image, thumb, restaurant_id, category_id, created_at)
VALUES(?,?,?,?,?,?,?,?)`,
		d.Name, d.Description, d.Price, d.Image, d.Thumb, d.RestaurantID, d.CategoryID, d.CreatedAt.UTC())
	if err != nil {
		return api.Dish{}, mapErr(err)
	}
	if d.ID, err = res.LastInsertId(); err != nil {
		return api.Dish{}, err
	}
	return d, nil
}

// UpdateDish rewrites the editable fields of d: name, description, price and
// both image paths.
func (s *Store) UpdateDish(ctx context.Context, d api.Dish) error {
	res, err := s.q(ctx).ExecContext(ctx,
		`UPDATE dishes SET name=?, description=?, price_cents=?, image=?, thumb=? WHERE id=?`,
		d.Name, d.Description, d.Price, d.Image, d.Thumb, d.ID)
	if err != nil {
		return mapErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) GetDish(ctx context.Context, id int64) (api.Dish, error) {
	return scanDish(s.q(ctx).QueryRowContext(ctx, `SELECT `+dishColumns+` FROM dishes d WHERE d.id=?`, id))
}

// ListDishes returns a restaurant's dishes. categoryID 0 means every category.
func (s *Store) ListDishes(ctx context.Context, restaurantID, categoryID int64) ([]api.Dish, error) {
	q := `SELECT ` + dishColumns + ` FROM dishes d WHERE d.restaurant_id=?`
	args := []any{restaurantID}
	if categoryID != 0 {
		q += ` AND d.category_id=?`
		args = append(args, categoryID)
	}
	rows, err := s.q(ctx).QueryContext(ctx, q+` ORDER BY d.id`, args...)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanDish)
}

// DishesByIDs returns the dishes that exist among ids, keyed by id.
func (s *Store) DishesByIDs(ctx context.Context, ids []int64) (map[int64]api.Dish, error) {
	out := make(map[int64]api.Dish, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	ph := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		ph[i] = "?"
		args[i] = id
	}
	rows, err := s.q(ctx).QueryContext(ctx,
		`SELECT `+dishColumns+` FROM dishes d WHERE d.id IN (`+strings.Join(ph, ",")+`)`, args...)
	if err != nil {
		return nil, err
	}
	dishes, err := collect(rows, scanDish)
	if err != nil {
		return nil, err
	}
	for _, d := range dishes {
		out[d.ID] = d
	}
	return out, nil
}

// DeleteDish removes a dish and every order line that references it. Totals
// of the affected orders are recomputed from their remaining lines, and any
// order left without lines is deleted.
func (s *Store) DeleteDish(ctx context.Context, id int64) error {
	return s.InTx(ctx, func(ctx context.Context) error {
		q := s.q(ctx)
		if _, err := s.GetDish(ctx, id); err != nil {
			return err
		}
		rows, err := q.QueryContext(ctx, `SELECT DISTINCT order_id FROM order_items WHERE dish_id=?`, id)
		if err != nil {
			return err
		}
		affected, err := collect(rows, func(row scanner) (int64, error) {
			var oid int64
			err := row.Scan(&oid)
			return oid, err
		})
		if err != nil {
			return err
		}
		if _, err := q.ExecContext(ctx, `DELETE FROM order_items WHERE dish_id=?`, id); err != nil {
			return err
		}
		if _, err := q.ExecContext(ctx, `DELETE FROM cart_items WHERE dish_id=?`, id); err != nil {
			return err
		}
		if _, err := q.ExecContext(ctx, `DELETE FROM dishes WHERE id=?`, id); err != nil {
			return err
		}
		for _, oid := range affected {
			if _, err := q.ExecContext(ctx, `
UPDATE orders SET total_cents = (
  SELECT COALESCE(SUM(quantity * unit_price_cents), 0) FROM order_items WHERE order_id = orders.id
) WHERE id=?`, oid); err != nil {
				return err
			}
		}
		_, err = q.ExecContext(ctx, `
DELETE FROM orders WHERE NOT EXISTS (SELECT 1 FROM order_items oi WHERE oi.order_id = orders.id)`)
		return err
	})
}
