package cart

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/doralyyyyy/Restaurant-Platform/internal/db"
	"github.com/doralyyyyy/Restaurant-Platform/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	ctx      context.Context
	store    *db.Store
	svc      *Service
	customer api.User
	shop     api.Restaurant
	tea      api.Dish
	noodles  api.Dish
	other    api.Dish
}

func setup(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	store, closer, err := db.Open(ctx, filepath.Join(t.TempDir(), "cart.db"))
	require.NoError(t, err)
	t.Cleanup(func() { closer.Close() })

	user := func(name string) api.User {
		u, err := store.CreateUser(ctx, api.User{Username: name, PasswordHash: "x"})
		require.NoError(t, err)
		return u
	}
	shop := func(name string, owner api.User) api.Restaurant {
		r, err := store.CreateRestaurant(ctx, api.Restaurant{Name: name, OwnerID: owner.ID})
		require.NoError(t, err)
		return r
	}
	dish := func(r api.Restaurant, name, price string) api.Dish {
		cats, err := store.ListCategories(ctx, r.ID)
		require.NoError(t, err)
		d, err := store.CreateDish(ctx, api.Dish{Name: name, Price: api.MustMoney(price), RestaurantID: r.ID, CategoryID: cats[0].ID})
		require.NoError(t, err)
		return d
	}

	f := fixture{ctx: ctx, store: store, svc: NewService(store), customer: user("customer")}
	f.shop = shop("川味小馆", user("owner"))
	f.tea = dish(f.shop, "菊花茶", "12.50")
	f.noodles = dish(f.shop, "担担面", "18.00")
	f.other = dish(shop("粤式茶餐厅", user("owner2")), "奶茶", "15.00")
	return f
}

func validation(t *testing.T, err error, msg string) {
	t.Helper()
	var ve *api.ValidationError
	require.True(t, errors.As(err, &ve), "want validation error, got %v", err)
	assert.Equal(t, msg, ve.Msg)
}

func TestAddAndLines(t *testing.T) {
	f := setup(t)

	_, err := f.svc.Add(f.ctx, f.customer.ID, f.tea.ID, 2)
	require.NoError(t, err)
	_, err = f.svc.Add(f.ctx, f.customer.ID, f.noodles.ID, -3)
	require.NoError(t, err)
	_, err = f.svc.Add(f.ctx, f.customer.ID, f.tea.ID, 1)
	require.NoError(t, err)

	lines, total, err := f.svc.Lines(f.ctx, f.customer.ID, f.shop.ID, true)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, f.tea.ID, lines[0].Dish.ID)
	assert.Equal(t, 3, lines[0].Quantity)
	assert.Equal(t, "37.50", lines[0].LineTotal.String())
	assert.Equal(t, 1, lines[1].Quantity)
	assert.Equal(t, "55.50", total.String())

	_, err = f.svc.Add(f.ctx, f.customer.ID, 999, 1)
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestAddBlacklisted(t *testing.T) {
	f := setup(t)
	_, err := f.store.ToggleBlacklist(f.ctx, f.shop.ID, f.customer.ID)
	require.NoError(t, err)

	_, err = f.svc.Add(f.ctx, f.customer.ID, f.tea.ID, 1)
	validation(t, err, msgBlacklistedAdd)

	_, err = f.svc.Add(f.ctx, f.customer.ID, f.other.ID, 1)
	assert.NoError(t, err)
}

func TestUpdate(t *testing.T) {
	f := setup(t)
	_, err := f.svc.Add(f.ctx, f.customer.ID, f.tea.ID, 1)
	require.NoError(t, err)

	require.NoError(t, f.svc.Update(f.ctx, f.customer.ID, f.shop.ID, f.tea.ID, Dec))
	require.NoError(t, f.svc.Update(f.ctx, f.customer.ID, f.shop.ID, f.tea.ID, Dec))

	lines, total, err := f.svc.Lines(f.ctx, f.customer.ID, f.shop.ID, true)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, 0, lines[0].Quantity)
	assert.Equal(t, "0.00", lines[0].LineTotal.String())
	assert.Equal(t, "0.00", total.String())

	lines, _, err = f.svc.Lines(f.ctx, f.customer.ID, f.shop.ID, false)
	require.NoError(t, err)
	assert.Empty(t, lines)

	require.NoError(t, f.svc.Update(f.ctx, f.customer.ID, f.shop.ID, f.tea.ID, Inc))
	qty, err := f.store.CartQuantity(f.ctx, f.customer.ID, f.tea.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, qty)

	validation(t, f.svc.Update(f.ctx, f.customer.ID, f.shop.ID, f.noodles.ID, Inc), msgNotInCart)
	validation(t, f.svc.Update(f.ctx, f.customer.ID, f.shop.ID, f.other.ID, Inc), msgWrongRestaurant)
}

func TestCheckout(t *testing.T) {
	f := setup(t)

	_, err := f.svc.Checkout(f.ctx, f.customer.ID, f.shop.ID)
	validation(t, err, msgEmptyCart)

	_, err = f.svc.Add(f.ctx, f.customer.ID, f.tea.ID, 2)
	require.NoError(t, err)
	_, err = f.svc.Add(f.ctx, f.customer.ID, f.noodles.ID, 1)
	require.NoError(t, err)
	require.NoError(t, f.svc.Update(f.ctx, f.customer.ID, f.shop.ID, f.noodles.ID, Dec))
	_, err = f.svc.Add(f.ctx, f.customer.ID, f.other.ID, 1)
	require.NoError(t, err)

	rc, err := f.svc.Checkout(f.ctx, f.customer.ID, f.shop.ID)
	require.NoError(t, err)
	assert.Equal(t, "25.00", rc.Order.TotalAmount.String())
	require.Len(t, rc.Order.Items, 1)
	assert.Equal(t, f.tea.ID, rc.Order.Items[0].DishID)
	assert.Equal(t, "12.50", rc.Order.Items[0].UnitPrice.String())

	stored, err := f.store.GetOrder(f.ctx, rc.Order.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Items, 1)

	lines, _, err := f.svc.Lines(f.ctx, f.customer.ID, f.shop.ID, true)
	require.NoError(t, err)
	assert.Empty(t, lines)

	// the other restaurant's table is untouched
	lines, _, err = f.svc.Lines(f.ctx, f.customer.ID, f.other.RestaurantID, true)
	require.NoError(t, err)
	assert.Len(t, lines, 1)

	_, err = f.svc.Checkout(f.ctx, f.customer.ID, 999)
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestCheckoutBlacklisted(t *testing.T) {
	f := setup(t)
	_, err := f.svc.Add(f.ctx, f.customer.ID, f.tea.ID, 1)
	require.NoError(t, err)
	_, err = f.store.ToggleBlacklist(f.ctx, f.shop.ID, f.customer.ID)
	require.NoError(t, err)

	_, err = f.svc.Checkout(f.ctx, f.customer.ID, f.shop.ID)
	validation(t, err, msgBlacklistedPay)

	lines, _, err := f.svc.Lines(f.ctx, f.customer.ID, f.shop.ID, true)
	require.NoError(t, err)
	assert.Len(t, lines, 1)
}
