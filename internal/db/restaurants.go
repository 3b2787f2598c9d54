package db

import (
	"context"
	"time"

	"github.com/doralyyyyy/Restaurant-Platform/pkg/api"
)

const restaurantColumns = `r.id, r.name, r.logo, r.owner_id, r.created_at`

func scanRestaurant(row scanner) (api.Restaurant, error) {
	var r api.Restaurant
	if err := row.Scan(&r.ID, &r.Name, &r.Logo, &r.OwnerID, &r.CreatedAt); err != nil {
		return api.Restaurant{}, mapErr(err)
	}
	return r, nil
}

// CreateRestaurant inserts r together with the default categories. Names are
// unique and an owner holds at most one restaurant; both yield ErrConflict.
func (s *Store) CreateRestaurant(ctx context.Context, r api.Restaurant) (api.Restaurant, error) {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	err := s.InTx(ctx, func(ctx context.Context) error {
		res, err := s.q(ctx).ExecContext(ctx,
			`INSERT INTO restaurants(name, logo, owner_id, created_at) VALUES(?,?,?,?)`,
			r.Name, r.Logo, r.OwnerID, r.CreatedAt.UTC())
		if err != nil {
			return mapErr(err)
		}
		if r.ID, err = res.LastInsertId(); err != nil {
			return err
		}
		return s.EnsureDefaultCategories(ctx, r.ID)
	})
	if err != nil {
		return api.Restaurant{}, err
	}
	return r, nil
}

func (s *Store) GetRestaurant(ctx context.Context, id int64) (api.Restaurant, error) {
	return scanRestaurant(s.q(ctx).QueryRowContext(ctx, `SELECT `+restaurantColumns+` FROM restaurants r WHERE r.id=?`, id))
}

// RestaurantByOwner returns the restaurant owned by userID or ErrNotFound.
func (s *Store) RestaurantByOwner(ctx context.Context, userID int64) (api.Restaurant, error) {
	return scanRestaurant(s.q(ctx).QueryRowContext(ctx, `SELECT `+restaurantColumns+` FROM restaurants r WHERE r.owner_id=?`, userID))
}

func (s *Store) RestaurantByName(ctx context.Context, name string) (api.Restaurant, error) {
	return scanRestaurant(s.q(ctx).QueryRowContext(ctx, `SELECT `+restaurantColumns+` FROM restaurants r WHERE r.name=?`, name))
}

type RestaurantRevenue struct {
	Restaurant api.Restaurant `json:"restaurant"`
	Revenue    api.Money      `json:"revenue"`
}

// ListRestaurantsByRevenue lists all restaurants, best sellers first.
// Restaurants without orders report zero revenue.
func (s *Store) ListRestaurantsByRevenue(ctx context.Context) ([]RestaurantRevenue, error) {
	rows, err := s.q(ctx).QueryContext(ctx, `
SELECT `+restaurantColumns+`, COALESCE(SUM(o.total_cents), 0) AS revenue
FROM restaurants r
LEFT JOIN orders o ON o.restaurant_id = r.id
GROUP BY r.id
ORDER BY revenue DESC, r.id`)
	if err != nil {
		return nil, err
	}
	return collect(rows, func(row scanner) (RestaurantRevenue, error) {
		var rr RestaurantRevenue
		r := &rr.Restaurant
		if err := row.Scan(&r.ID, &r.Name, &r.Logo, &r.OwnerID, &r.CreatedAt, &rr.Revenue); err != nil {
			return RestaurantRevenue{}, err
		}
		return rr, nil
	})
}
