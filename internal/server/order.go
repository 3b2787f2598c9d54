package server

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/doralyyyyy/Restaurant-Platform/internal/cart"
	"github.com/doralyyyyy/Restaurant-Platform/internal/db"
	"github.com/doralyyyyy/Restaurant-Platform/internal/util"
	"github.com/doralyyyyy/Restaurant-Platform/pkg/api"
)

const msgBrowseOnly = "您已被本餐厅加入黑名单，可以浏览但无法下单。"

// handleRestaurants lists restaurants by revenue, or by match quality when
// ?q= is given.
func (s *Server) handleRestaurants(w http.ResponseWriter, r *http.Request) {
	rows, err := s.store.ListRestaurantsByRevenue(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	names := make([]string, len(rows))
	for i, rr := range rows {
		names[i] = rr.Restaurant.Name
	}
	out := make([]db.RestaurantRevenue, 0, len(rows))
	for _, i := range util.Rank(q, names) {
		out = append(out, rows[i])
	}
	writeJSON(w, http.StatusOK, map[string]any{"query": q, "restaurants": out})
}

func (s *Server) pathRestaurant(r *http.Request) (api.Restaurant, error) {
	id, err := pathID(r, "restaurantID")
	if err != nil {
		return api.Restaurant{}, err
	}
	return s.store.GetRestaurant(r.Context(), id)
}

func (s *Server) handleMenu(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rest, err := s.pathRestaurant(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	cats, err := s.store.ListCategories(ctx, rest.ID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var selected int64
	if v, err := strconv.ParseInt(r.URL.Query().Get("category_id"), 10, 64); err == nil && v > 0 {
		selected = v
	} else if len(cats) > 0 {
		selected = cats[0].ID
	}
	dishes := []api.Dish{}
	if selected != 0 {
		if dishes, err = s.store.ListDishes(ctx, rest.ID, selected); err != nil {
			s.fail(w, r, err)
			return
		}
	}
	banned, err := s.store.IsBlacklisted(ctx, rest.ID, currentUser(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := map[string]any{
		"restaurant":           rest,
		"categories":           cats,
		"selected_category_id": selected,
		"dishes":               dishes,
		"blacklisted":          banned,
	}
	if banned {
		out["notice"] = msgBrowseOnly
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAddToCart(w http.ResponseWriter, r *http.Request) {
	dishID, err := pathID(r, "dishID")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.parseForm(r); err != nil {
		s.fail(w, r, err)
		return
	}
	qty, err := strconv.Atoi(strings.TrimSpace(r.FormValue("quantity")))
	if err != nil {
		qty = 1
	}
	d, err := s.cart.Add(r.Context(), currentUser(r), dishID, qty)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "已将 " + d.Name + " 加入您的餐桌", "dish": d})
}

func (s *Server) tablePayload(ctx context.Context, rest api.Restaurant, userID int64) (map[string]any, error) {
	lines, total, err := s.cart.Lines(ctx, userID, rest.ID, true)
	if err != nil {
		return nil, err
	}
	return map[string]any{"restaurant": rest, "items": lines, "total": total}, nil
}

func (s *Server) handleMyTable(w http.ResponseWriter, r *http.Request) {
	rest, err := s.pathRestaurant(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out, err := s.tablePayload(r.Context(), rest, currentUser(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleUpdateCart(w http.ResponseWriter, r *http.Request) {
	rest, err := s.pathRestaurant(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	dishID, err := pathID(r, "dishID")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.parseForm(r); err != nil {
		s.fail(w, r, err)
		return
	}
	uid := currentUser(r)
	action := cart.Action(r.FormValue("action"))
	if err := s.cart.Update(r.Context(), uid, rest.ID, dishID, action); err != nil {
		s.fail(w, r, err)
		return
	}
	out, err := s.tablePayload(r.Context(), rest, uid)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "restaurantID")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	rc, err := s.cart.Checkout(r.Context(), currentUser(r), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.log.Info("order placed", "order", rc.Order.ID, "restaurant", id, "total", rc.Order.TotalAmount.String())
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "付款成功，祝您用餐愉快！",
		"order":   rc.Order,
		"items":   rc.Lines,
		"total":   rc.Order.TotalAmount,
	})
}
