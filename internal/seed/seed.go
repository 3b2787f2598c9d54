// Package seed fills a fresh database with demo users, restaurants, menus
// and order history.
package seed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/doralyyyyy/Restaurant-Platform/internal/auth"
	"github.com/doralyyyyy/Restaurant-Platform/internal/db"
	"github.com/doralyyyyy/Restaurant-Platform/internal/imaging"
	"github.com/doralyyyyy/Restaurant-Platform/pkg/api"
)

type Options struct {
	// Users caps how many fixture users are created; 0 means 10.
	Users int
	Seed  int64
	// Uploads receives generated avatars and logos; nil skips images.
	Uploads *imaging.Uploads
	Log     *slog.Logger
	Now     func() time.Time
}

// Result counts what was created. Existing users are reused.
type Result struct {
	Users       int
	Restaurants int
	Dishes      int
	Orders      int
}

type generator struct {
	store *db.Store
	fx    Fixture
	opts  Options
	rng   *rand.Rand
}

// Generate creates up to opts.Users users, one restaurant per user with
// 5-8 dishes in each default category, and 3-8 orders per user spread over
// the last 30 days.
func Generate(ctx context.Context, store *db.Store, fx Fixture, opts Options) (Result, error) {
	if opts.Users <= 0 {
		opts.Users = 10
	}
	if opts.Log == nil {
		opts.Log = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	g := &generator{
		store: store,
		fx:    fx,
		opts:  opts,
		rng:   rand.New(rand.NewPCG(uint64(opts.Seed), uint64(opts.Seed)^0x5eed)),
	}
	var res Result

	users, created, err := g.users(ctx)
	if err != nil {
		return res, err
	}
	res.Users = created

	var restaurants []api.Restaurant
	for i, u := range users {
		r, isNew, err := g.restaurant(ctx, u, i)
		if err != nil {
			return res, err
		}
		restaurants = append(restaurants, r)
		if !isNew {
			continue
		}
		res.Restaurants++
		n, err := g.menu(ctx, r)
		if err != nil {
			return res, err
		}
		res.Dishes += n
	}

	for _, u := range users {
		n, err := g.orders(ctx, u, restaurants)
		if err != nil {
			return res, err
		}
		res.Orders += n
	}
	opts.Log.Info("seeded demo data", "users", res.Users, "restaurants", res.Restaurants, "dishes", res.Dishes, "orders", res.Orders)
	return res, nil
}

func (g *generator) users(ctx context.Context) ([]api.User, int, error) {
	names := g.fx.Users[:min(g.opts.Users, len(g.fx.Users))]
	hash, err := auth.HashPassword(g.fx.Password)
	if err != nil {
		return nil, 0, err
	}
	var out []api.User
	created := 0
	for i, name := range names {
		u, err := g.store.GetUserByUsername(ctx, name)
		if err == nil {
			g.opts.Log.Debug("user exists", "username", name)
			out = append(out, u)
			continue
		}
		if !errors.Is(err, db.ErrNotFound) {
			return nil, 0, err
		}
		u = api.User{
			Username:     name,
			Email:        fmt.Sprintf("user%d@example.com", i+1),
			PasswordHash: hash,
		}
		if g.opts.Uploads != nil {
			if u.Avatar, err = g.opts.Uploads.SaveAvatar("avatar.png", g.picture(100)); err != nil {
				return nil, 0, fmt.Errorf("avatar for %s: %w", name, err)
			}
		}
		if u, err = g.store.CreateUser(ctx, u); err != nil {
			return nil, 0, fmt.Errorf("create user %s: %w", name, err)
		}
		out = append(out, u)
		created++
	}
	return out, created, nil
}

// restaurant returns the user's restaurant, creating it when missing. Taken
// names get the user's index appended.
func (g *generator) restaurant(ctx context.Context, u api.User, i int) (api.Restaurant, bool, error) {
	r, err := g.store.RestaurantByOwner(ctx, u.ID)
	if err == nil {
		return r, false, nil
	}
	if !errors.Is(err, db.ErrNotFound) {
		return api.Restaurant{}, false, err
	}
	name := u.Username + "的餐厅"
	if i < len(g.fx.Restaurants) {
		name = g.fx.Restaurants[i]
	}
	if _, err := g.store.RestaurantByName(ctx, name); err == nil {
		name = fmt.Sprintf("%s_%d", name, i)
	} else if !errors.Is(err, db.ErrNotFound) {
		return api.Restaurant{}, false, err
	}
	r = api.Restaurant{Name: name, OwnerID: u.ID}
	if g.opts.Uploads != nil {
		if r.Logo, err = g.opts.Uploads.SaveLogo("logo.png", g.picture(300)); err != nil {
			return api.Restaurant{}, false, fmt.Errorf("logo for %s: %w", name, err)
		}
	}
	if r, err = g.store.CreateRestaurant(ctx, r); err != nil {
		return api.Restaurant{}, false, fmt.Errorf("create restaurant %s: %w", name, err)
	}
	return r, true, nil
}

func (g *generator) menu(ctx context.Context, r api.Restaurant) (int, error) {
	cats, err := g.store.ListCategories(ctx, r.ID)
	if err != nil {
		return 0, err
	}
	byName := make(map[string]int64, len(cats))
	for _, c := range cats {
		byName[c.Name] = c.ID
	}
	n := 0
	for _, cf := range g.fx.Categories {
		catID, ok := byName[cf.Name]
		if !ok {
			continue
		}
		lo := api.MustMoney(cf.MinPrice).Cents()
		hi := api.MustMoney(cf.MaxPrice).Cents()
		count := min(5+g.rng.IntN(4), len(cf.Dishes))
		for _, idx := range g.rng.Perm(len(cf.Dishes))[:count] {
			d := api.Dish{
				Name:         cf.Dishes[idx],
				Description:  g.fx.Descriptions[g.rng.IntN(len(g.fx.Descriptions))],
				Price:        api.Cents(lo + g.rng.Int64N(hi-lo+1)),
				RestaurantID: r.ID,
				CategoryID:   catID,
			}
			if _, err := g.store.CreateDish(ctx, d); err != nil {
				return n, fmt.Errorf("create dish %s: %w", d.Name, err)
			}
			n++
		}
	}
	return n, nil
}

func (g *generator) orders(ctx context.Context, u api.User, restaurants []api.Restaurant) (int, error) {
	if len(restaurants) == 0 {
		return 0, nil
	}
	now := g.opts.Now().UTC()
	want := 3 + g.rng.IntN(6)
	n := 0
	for range want {
		r := restaurants[g.rng.IntN(len(restaurants))]
		dishes, err := g.store.ListDishes(ctx, r.ID, 0)
		if err != nil {
			return n, err
		}
		if len(dishes) == 0 {
			continue
		}
		picks := min(2+g.rng.IntN(4), len(dishes))
		var items []api.OrderItem
		total := api.Cents(0)
		for _, idx := range g.rng.Perm(len(dishes))[:picks] {
			d := dishes[idx]
			qty := 1 + g.rng.IntN(3)
			items = append(items, api.OrderItem{DishID: d.ID, Quantity: qty, UnitPrice: d.Price})
			total = total.Add(d.Price.MulInt(int64(qty)))
		}
		ago := time.Duration(g.rng.IntN(31))*24*time.Hour + time.Duration(g.rng.IntN(24))*time.Hour
		o := api.Order{
			CustomerID:   u.ID,
			RestaurantID: r.ID,
			CreatedAt:    now.Add(-ago),
			TotalAmount:  total,
		}
		if _, err := g.store.CreateOrder(ctx, o, items); err != nil {
			return n, fmt.Errorf("create order for %s: %w", u.Username, err)
		}
		n++
	}
	return n, nil
}

// picture renders a diagonal gradient between two random hues as PNG.
func (g *generator) picture(size int) *bytes.Reader {
	from := colorful.Hsv(g.rng.Float64()*360, 0.55, 0.95)
	to := colorful.Hsv(g.rng.Float64()*360, 0.75, 0.65)
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := range size {
		for x := range size {
			t := float64(x+y) / float64(2*(size-1))
			img.Set(x, y, from.BlendLab(to, t).Clamped())
		}
	}
	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return bytes.NewReader(buf.Bytes())
}
