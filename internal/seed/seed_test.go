package seed

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doralyyyyy/Restaurant-Platform/internal/auth"
	"github.com/doralyyyyy/Restaurant-Platform/internal/db"
	"github.com/doralyyyyy/Restaurant-Platform/internal/imaging"
	"github.com/doralyyyyy/Restaurant-Platform/pkg/api"
)

func TestDefaultFixture(t *testing.T) {
	fx, err := DefaultFixture()
	require.NoError(t, err)
	assert.Equal(t, "123456", fx.Password)
	assert.Len(t, fx.Users, 13)
	assert.Len(t, fx.Restaurants, 13)
	require.Len(t, fx.Categories, 4)
	for i, c := range fx.Categories {
		assert.Equal(t, api.DefaultCategoryNames[i], c.Name)
		assert.Len(t, c.Dishes, 15)
	}
}

func TestParseFixtureRejectsBadRange(t *testing.T) {
	_, err := ParseFixture([]byte("password: x\nusers: [a]\ndescriptions: [d]\ncategories:\n  - name: c\n    min_price: \"9\"\n    max_price: \"3\"\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad price range")

	_, err = ParseFixture([]byte("users: [a]\n"))
	require.Error(t, err)
}

func TestGenerate(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, closer, err := db.Open(ctx, filepath.Join(dir, "seed.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = closer.Close() })

	uploads := imaging.New(filepath.Join(dir, "static"))
	require.NoError(t, uploads.EnsureDirs())

	fx, err := DefaultFixture()
	require.NoError(t, err)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	opts := Options{Users: 3, Seed: 7, Uploads: uploads, Now: func() time.Time { return now }}

	res, err := Generate(ctx, store, fx, opts)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Users)
	assert.Equal(t, 3, res.Restaurants)
	assert.GreaterOrEqual(t, res.Dishes, 3*4*5)
	assert.LessOrEqual(t, res.Dishes, 3*4*8)
	assert.GreaterOrEqual(t, res.Orders, 3*3)
	assert.LessOrEqual(t, res.Orders, 3*8)

	u, err := store.GetUserByUsername(ctx, "张三")
	require.NoError(t, err)
	assert.True(t, auth.CheckPassword(u.PasswordHash, "123456"))
	require.NotEmpty(t, u.Avatar)
	_, err = os.Stat(filepath.Join(dir, "static", filepath.FromSlash(u.Avatar)))
	assert.NoError(t, err)

	r, err := store.RestaurantByOwner(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "美味餐厅", r.Name)
	assert.NotEmpty(t, r.Logo)

	dishes, err := store.ListDishes(ctx, r.ID, 0)
	require.NoError(t, err)
	ranges := map[string][2]int64{"饮品": {800, 2500}, "菜品": {2500, 6800}, "主食": {1500, 3500}, "小吃": {1000, 3000}}
	cats, err := store.ListCategories(ctx, r.ID)
	require.NoError(t, err)
	catName := map[int64]string{}
	for _, c := range cats {
		catName[c.ID] = c.Name
	}
	for _, d := range dishes {
		rg := ranges[catName[d.CategoryID]]
		c := d.Price.Cents()
		if c < rg[0] || c > rg[1] {
			t.Fatalf("dish %s: price %s outside %v", d.Name, d.Price, rg)
		}
	}

	// Running again reuses users and restaurants.
	again, err := Generate(ctx, store, fx, opts)
	require.NoError(t, err)
	assert.Zero(t, again.Users)
	assert.Zero(t, again.Restaurants)
	assert.Zero(t, again.Dishes)
	assert.Positive(t, again.Orders)
}

func TestGenerateRenamesTakenRestaurant(t *testing.T) {
	ctx := context.Background()
	store, closer, err := db.Open(ctx, filepath.Join(t.TempDir(), "seed.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = closer.Close() })

	other, err := store.CreateUser(ctx, api.User{Username: "someone", PasswordHash: "x"})
	require.NoError(t, err)
	_, err = store.CreateRestaurant(ctx, api.Restaurant{Name: "美味餐厅", OwnerID: other.ID})
	require.NoError(t, err)

	fx, err := DefaultFixture()
	require.NoError(t, err)
	_, err = Generate(ctx, store, fx, Options{Users: 1, Seed: 1})
	require.NoError(t, err)

	u, err := store.GetUserByUsername(ctx, "张三")
	require.NoError(t, err)
	r, err := store.RestaurantByOwner(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "美味餐厅_0", r.Name)
	assert.Empty(t, r.Logo)
}
