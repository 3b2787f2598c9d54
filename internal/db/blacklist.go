package db

import "context"

func (s *Store) IsBlacklisted(ctx context.Context, restaurantID, userID int64) (bool, error) {
	var n int
	err := s.q(ctx).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM blacklist WHERE restaurant_id=? AND user_id=?`, restaurantID, userID).Scan(&n)
	return n > 0, err
}

// ToggleBlacklist flips the user's blacklist membership and reports whether
// the user is blacklisted afterwards.
func (s *Store) ToggleBlacklist(ctx context.Context, restaurantID, userID int64) (bool, error) {
	var now bool
	err := s.InTx(ctx, func(ctx context.Context) error {
		listed, err := s.IsBlacklisted(ctx, restaurantID, userID)
		if err != nil {
			return err
		}
		if listed {
			_, err = s.q(ctx).ExecContext(ctx, `DELETE FROM blacklist WHERE restaurant_id=? AND user_id=?`, restaurantID, userID)
		} else {
			_, err = s.q(ctx).ExecContext(ctx, `INSERT INTO blacklist(restaurant_id, user_id) VALUES(?,?)`, restaurantID, userID)
		}
		if err != nil {
			return mapErr(err)
		}
		now = !listed
		return nil
	})
	return now, err
}

// Blacklisted returns the ids of users blacklisted by the restaurant.
func (s *Store) Blacklisted(ctx context.Context, restaurantID int64) (map[int64]bool, error) {
	rows, err := s.q(ctx).QueryContext(ctx, `SELECT user_id FROM blacklist WHERE restaurant_id=?`, restaurantID)
	if err != nil {
		return nil, err
	}
	ids, err := collect(rows, func(row scanner) (int64, error) {
		var id int64
		err := row.Scan(&id)
		return id, err
	})
	if err != nil {
		return nil, err
	}
	out := make(map[int64]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}
