// Package cart keeps each customer's per-restaurant table of dishes and
// turns it into an order at checkout.
package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/doralyyyyy/Restaurant-Platform/internal/db"
	"github.com/doralyyyyy/Restaurant-Platform/pkg/api"
)

const (
	msgBlacklistedAdd  = "抱歉，您已被本餐厅加入黑名单，无法下单。"
	msgBlacklistedPay  = "抱歉，您已被本餐厅加入黑名单，无法付款。"
	msgNotInCart       = "您的餐桌中没有该菜品"
	msgWrongRestaurant = "菜品不属于该餐厅"
	msgEmptyCart       = "您的餐桌是空的，请先点菜"
)

// Action changes a cart line by one portion.
type Action string

const (
	Inc Action = "inc"
	Dec Action = "dec"
)

// Line is a cart entry priced at the dish's current price.
type Line struct {
	Dish      api.Dish  `json:"dish"`
	Quantity  int       `json:"quantity"`
	LineTotal api.Money `json:"line_total"`
}

type Service struct {
	store *db.Store
}

func NewService(store *db.Store) *Service {
	return &Service{store: store}
}

// Add puts qty portions of the dish on the user's table. Non-positive
// quantities count as one.
func (s *Service) Add(ctx context.Context, userID, dishID int64, qty int) (api.Dish, error) {
	dish, err := s.store.GetDish(ctx, dishID)
	if err != nil {
		return api.Dish{}, err
	}
	banned, err := s.store.IsBlacklisted(ctx, dish.RestaurantID, userID)
	if err != nil {
		return api.Dish{}, err
	}
	if banned {
		return api.Dish{}, api.Invalid(msgBlacklistedAdd)
	}
	if qty <= 0 {
		qty = 1
	}
	if err := s.store.AddCartQuantity(ctx, userID, dish.RestaurantID, dishID, qty); err != nil {
		return api.Dish{}, fmt.Errorf("add to cart: %w", err)
	}
	return dish, nil
}

// Update increments or decrements an existing line. A line never drops below
// zero and is kept at zero until checkout.
func (s *Service) Update(ctx context.Context, userID, restaurantID, dishID int64, action Action) error {
	dish, err := s.store.GetDish(ctx, dishID)
	if err != nil {
		return err
	}
	if dish.RestaurantID != restaurantID {
		return api.Invalid(msgWrongRestaurant)
	}
	qty, err := s.store.CartQuantity(ctx, userID, dishID)
	if errors.Is(err, db.ErrNotFound) {
		return api.Invalid(msgNotInCart)
	}
	if err != nil {
		return err
	}
	switch action {
	case Inc:
		qty++
	case Dec:
		qty = max(qty-1, 0)
	default:
		return nil
	}
	return s.store.SetCartQuantity(ctx, userID, dishID, qty)
}

// Lines returns the user's table at a restaurant and the amount due. Only
// lines with a positive quantity count toward the total; zero lines are
// listed when includeZero is set.
func (s *Service) Lines(ctx context.Context, userID, restaurantID int64, includeZero bool) ([]Line, api.Money, error) {
	items, err := s.store.CartItems(ctx, userID, restaurantID)
	if err != nil {
		return nil, api.Money{}, err
	}
	lines := make([]Line, 0, len(items))
	total := api.Cents(0)
	for _, it := range items {
		if !includeZero && it.Quantity <= 0 {
			continue
		}
		lt := it.Dish.Price.MulInt(int64(max(it.Quantity, 0)))
		if it.Quantity > 0 {
			total = total.Add(lt)
		}
		lines = append(lines, Line{Dish: it.Dish, Quantity: it.Quantity, LineTotal: lt})
	}
	return lines, total, nil
}

// Receipt is the result of a successful checkout.
type Receipt struct {
	Order api.Order `json:"order"`
	Lines []Line    `json:"lines"`
}

// Checkout converts the positive lines of the user's table into an order and
// clears the table for that restaurant.
func (s *Service) Checkout(ctx context.Context, userID, restaurantID int64) (Receipt, error) {
	if _, err := s.store.GetRestaurant(ctx, restaurantID); err != nil {
		return Receipt{}, err
	}
	var rc Receipt
	err := s.store.InTx(ctx, func(ctx context.Context) error {
		banned, err := s.store.IsBlacklisted(ctx, restaurantID, userID)
		if err != nil {
			return err
		}
		if banned {
			return api.Invalid(msgBlacklistedPay)
		}
		lines, total, err := s.Lines(ctx, userID, restaurantID, false)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return api.Invalid(msgEmptyCart)
		}
		items := make([]api.OrderItem, 0, len(lines))
		for _, l := range lines {
			items = append(items, api.OrderItem{DishID: l.Dish.ID, Quantity: l.Quantity, UnitPrice: l.Dish.Price})
		}
		order, err := s.store.CreateOrder(ctx, api.Order{
			CustomerID:   userID,
			RestaurantID: restaurantID,
			TotalAmount:  total,
		}, items)
		if err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		if err := s.store.ClearCart(ctx, userID, restaurantID); err != nil {
			return err
		}
		rc = Receipt{Order: order, Lines: lines}
		return nil
	})
	return rc, err
}
