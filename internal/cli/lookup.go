package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/doralyyyyy/Restaurant-Platform/internal/db"
	"github.com/doralyyyyy/Restaurant-Platform/pkg/api"
)

// findRestaurant resolves a restaurant by numeric id or exact name.
func findRestaurant(ctx context.Context, store *db.Store, ref string) (api.Restaurant, error) {
	if ref == "" {
		return api.Restaurant{}, errors.New("--restaurant is required")
	}
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		r, err := store.GetRestaurant(ctx, id)
		if err == nil || !errors.Is(err, db.ErrNotFound) {
			return r, err
		}
	}
	r, err := store.RestaurantByName(ctx, ref)
	if errors.Is(err, db.ErrNotFound) {
		return api.Restaurant{}, fmt.Errorf("restaurant %q not found", ref)
	}
	return r, err
}

// findDish loads a dish and checks it is on r's menu.
func findDish(ctx context.Context, store *db.Store, r api.Restaurant, id int64) (api.Dish, error) {
	d, err := store.GetDish(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return api.Dish{}, fmt.Errorf("dish %d not found", id)
	}
	if err != nil {
		return api.Dish{}, err
	}
	if d.RestaurantID != r.ID {
		return api.Dish{}, fmt.Errorf("dish %d does not belong to %s", id, r.Name)
	}
	return d, nil
}
