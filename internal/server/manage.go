package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/doralyyyyy/Restaurant-Platform/internal/chart"
	"github.com/doralyyyyy/Restaurant-Platform/internal/db"
	"github.com/doralyyyyy/Restaurant-Platform/pkg/api"
)

const (
	msgNoRestaurant       = "请先创建餐厅"
	msgRestaurantName     = "餐厅名称必填"
	msgRestaurantTaken    = "餐厅名称已存在，请换一个"
	msgLogoRequired       = "请上传餐厅Logo"
	msgDishRequired       = "菜品名称和价格必填"
	msgDescriptionTooLong = "菜品介绍不能超过 500 字"
	msgBadPrice           = "价格格式不正确"
	msgImageRequired      = "请上传菜品图片"
	maxDescriptionRunes   = 500
)

// ownRestaurant returns the restaurant owned by the current user.
func (s *Server) ownRestaurant(ctx context.Context, userID int64) (api.Restaurant, error) {
	rest, err := s.store.RestaurantByOwner(ctx, userID)
	if errors.Is(err, db.ErrNotFound) {
		return api.Restaurant{}, api.Invalid(msgNoRestaurant)
	}
	return rest, err
}

func (s *Server) restaurantPayload(ctx context.Context, userID int64) (map[string]any, error) {
	rest, err := s.store.RestaurantByOwner(ctx, userID)
	if errors.Is(err, db.ErrNotFound) {
		return map[string]any{"restaurant": nil, "categories": []api.Category{}}, nil
	}
	if err != nil {
		return nil, err
	}
	if err := s.store.EnsureDefaultCategories(ctx, rest.ID); err != nil {
		return nil, err
	}
	cats, err := s.store.ListCategories(ctx, rest.ID)
	if err != nil {
		return nil, err
	}
	return map[string]any{"restaurant": rest, "categories": cats}, nil
}

func (s *Server) handleGetRestaurant(w http.ResponseWriter, r *http.Request) {
	out, err := s.restaurantPayload(r.Context(), currentUser(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// handleCreateRestaurant creates the user's restaurant. Owners who already
// have one get it back unchanged.
func (s *Server) handleCreateRestaurant(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	uid := currentUser(r)
	if _, err := s.store.RestaurantByOwner(ctx, uid); err == nil {
		s.handleGetRestaurant(w, r)
		return
	} else if !errors.Is(err, db.ErrNotFound) {
		s.fail(w, r, err)
		return
	}
	if err := s.parseForm(r); err != nil {
		s.fail(w, r, err)
		return
	}
	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		s.fail(w, r, api.Invalid(msgRestaurantName))
		return
	}
	f, h, err := formFile(r, "logo")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if f != nil {
		defer f.Close()
	}
	taken, err := s.restaurantNameTaken(ctx, name)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if taken {
		s.fail(w, r, api.Invalid(msgRestaurantTaken))
		return
	}
	if f == nil {
		s.fail(w, r, api.Invalid(msgLogoRequired))
		return
	}
	logo, err := s.uploads.SaveLogo(h.Filename, f)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	rest, err := s.store.CreateRestaurant(ctx, api.Restaurant{Name: name, Logo: logo, OwnerID: uid})
	if errors.Is(err, db.ErrConflict) {
		_ = s.uploads.Remove(logo)
		s.fail(w, r, api.Invalid(msgRestaurantTaken))
		return
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.log.Info("created restaurant", "id", rest.ID, "owner", uid)
	out, err := s.restaurantPayload(ctx, uid)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out["message"] = "餐厅创建成功，接下来可以添加菜品啦～"
	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) restaurantNameTaken(ctx context.Context, name string) (bool, error) {
	_, err := s.store.RestaurantByName(ctx, name)
	if errors.Is(err, db.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

type dishRow struct {
	Dish      api.Dish `json:"dish"`
	Quantity  int      `json:"quantity"`
	Customers int      `json:"customers"`
}

type categoryDishes struct {
	Category api.Category `json:"category"`
	Dishes   []dishRow    `json:"dishes"`
}

func (s *Server) handleManageDishes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rest, err := s.ownRestaurant(ctx, currentUser(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	cats, err := s.store.ListCategories(ctx, rest.ID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	dishes, err := s.store.ListDishes(ctx, rest.ID, 0)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	stats, err := s.store.DishStats(ctx, rest.ID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	groups := make([]categoryDishes, len(cats))
	index := make(map[int64]int, len(cats))
	for i, c := range cats {
		groups[i] = categoryDishes{Category: c, Dishes: []dishRow{}}
		index[c.ID] = i
	}
	for _, d := range dishes {
		i, ok := index[d.CategoryID]
		if !ok {
			continue
		}
		st := stats[d.ID]
		groups[i].Dishes = append(groups[i].Dishes, dishRow{Dish: d, Quantity: st.Quantity, Customers: st.Customers})
	}
	writeJSON(w, http.StatusOK, map[string]any{"restaurant": rest, "categories": groups})
}

// dishForm holds the validated fields shared by add and edit.
type dishForm struct {
	name, description string
	price             api.Money
}

func (s *Server) readDishForm(r *http.Request) (dishForm, error) {
	if err := s.parseForm(r); err != nil {
		return dishForm{}, err
	}
	name := strings.TrimSpace(r.FormValue("name"))
	priceStr := strings.TrimSpace(r.FormValue("price"))
	desc := strings.TrimSpace(r.FormValue("description"))
	if name == "" || priceStr == "" {
		return dishForm{}, api.Invalid(msgDishRequired)
	}
	if utf8.RuneCountInString(desc) > maxDescriptionRunes {
		return dishForm{}, api.Invalid(msgDescriptionTooLong)
	}
	price, err := api.ParseMoney(priceStr)
	if err != nil || price.Sign() <= 0 {
		return dishForm{}, api.Invalid(msgBadPrice)
	}
	return dishForm{name: name, description: desc, price: price}, nil
}

// saveDishImage stores the "image" upload. ok is false when none was sent.
func (s *Server) saveDishImage(r *http.Request) (big, thumb string, ok bool, err error) {
	f, h, err := formFile(r, "image")
	if err != nil || f == nil {
		return "", "", false, err
	}
	defer f.Close()
	big, thumb, err = s.uploads.SaveDishImages(h.Filename, f)
	if err != nil {
		return "", "", false, err
	}
	return big, thumb, true, nil
}

func (s *Server) handleAddDish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rest, err := s.ownRestaurant(ctx, currentUser(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	catID, err := pathID(r, "categoryID")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	cat, err := s.store.GetCategory(ctx, catID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if cat.RestaurantID != rest.ID {
		s.fail(w, r, forbidden("无权在其他餐厅添加菜品"))
		return
	}
	form, err := s.readDishForm(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	big, thumb, ok, err := s.saveDishImage(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if !ok {
		s.fail(w, r, api.Invalid(msgImageRequired))
		return
	}
	d, err := s.store.CreateDish(ctx, api.Dish{
		Name:         form.name,
		Description:  form.description,
		Price:        form.price,
		Image:        big,
		Thumb:        thumb,
		RestaurantID: rest.ID,
		CategoryID:   cat.ID,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.log.Info("created dish", "id", d.ID, "restaurant", rest.ID)
	writeJSON(w, http.StatusCreated, map[string]any{"message": "菜品添加成功", "dish": d})
}

// ownedDish loads a dish of the current owner's restaurant. verb names the
// refused action in the 403 message.
func (s *Server) ownedDish(r *http.Request, verb string) (api.Restaurant, api.Dish, error) {
	ctx := r.Context()
	rest, err := s.ownRestaurant(ctx, currentUser(r))
	if err != nil {
		return api.Restaurant{}, api.Dish{}, err
	}
	id, err := pathID(r, "dishID")
	if err != nil {
		return api.Restaurant{}, api.Dish{}, err
	}
	d, err := s.store.GetDish(ctx, id)
	if err != nil {
		return api.Restaurant{}, api.Dish{}, err
	}
	if d.RestaurantID != rest.ID {
		return api.Restaurant{}, api.Dish{}, forbidden(fmt.Sprintf("无权%s其他餐厅的菜品", verb))
	}
	return rest, d, nil
}

func (s *Server) handleEditDish(w http.ResponseWriter, r *http.Request) {
	_, d, err := s.ownedDish(r, "编辑")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	form, err := s.readDishForm(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	d.Name, d.Description, d.Price = form.name, form.description, form.price
	big, thumb, ok, err := s.saveDishImage(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	oldImage, oldThumb := d.Image, d.Thumb
	if ok {
		d.Image, d.Thumb = big, thumb
	}
	if err := s.store.UpdateDish(r.Context(), d); err != nil {
		s.fail(w, r, err)
		return
	}
	if ok {
		s.removeUploads(oldImage, oldThumb)
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "菜品修改成功", "dish": d})
}

func (s *Server) handleDeleteDish(w http.ResponseWriter, r *http.Request) {
	_, d, err := s.ownedDish(r, "删除")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.store.DeleteDish(r.Context(), d.ID); err != nil {
		s.fail(w, r, err)
		return
	}
	s.removeUploads(d.Image, d.Thumb)
	s.log.Info("deleted dish", "id", d.ID, "restaurant", d.RestaurantID)
	writeJSON(w, http.StatusOK, message("菜品及相关点餐记录已删除，订单总金额已更新"))
}

func (s *Server) removeUploads(paths ...string) {
	for _, p := range paths {
		if err := s.uploads.Remove(p); err != nil {
			s.log.Warn("remove upload", "path", p, "err", err)
		}
	}
}

func (s *Server) handleDishDetail(w http.ResponseWriter, r *http.Request) {
	rest, d, err := s.ownedDish(r, "查看")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	qty, err := s.store.DishOrderedQty(r.Context(), d.ID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	customers, err := s.store.DishCustomers(r.Context(), rest.ID, d.ID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"dish": d, "total_qty": qty, "customers": customers})
}

type customerRow struct {
	db.CustomerTotal
	Blacklisted bool `json:"blacklisted"`
}

func (s *Server) handleCustomers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rest, err := s.ownRestaurant(ctx, currentUser(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	totals, err := s.store.CustomerTotals(ctx, rest.ID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	banned, err := s.store.Blacklisted(ctx, rest.ID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	rows := make([]customerRow, 0, len(totals))
	for _, t := range totals {
		rows = append(rows, customerRow{CustomerTotal: t, Blacklisted: banned[t.User.ID]})
	}
	writeJSON(w, http.StatusOK, map[string]any{"restaurant": rest, "customers": rows})
}

func (s *Server) handleCustomerHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rest, err := s.ownRestaurant(ctx, currentUser(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	uid, err := pathID(r, "userID")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	u, err := s.store.GetUser(ctx, uid)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	dishes, err := s.store.CustomerDishes(ctx, rest.ID, u.ID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	total, err := s.store.CustomerTotal(ctx, rest.ID, u.ID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	banned, err := s.store.IsBlacklisted(ctx, rest.ID, u.ID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": u, "dishes": dishes, "total": total, "blacklisted": banned})
}

func (s *Server) handleToggleBlacklist(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rest, err := s.ownRestaurant(ctx, currentUser(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	uid, err := pathID(r, "userID")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	u, err := s.store.GetUser(ctx, uid)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	banned, err := s.store.ToggleBlacklist(ctx, rest.ID, u.ID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	msg := fmt.Sprintf("已将 %s 从黑名单移除", u.Username)
	if banned {
		msg = fmt.Sprintf("已将 %s 加入黑名单", u.Username)
	}
	s.log.Info("toggled blacklist", "restaurant", rest.ID, "user", u.ID, "blacklisted", banned)
	writeJSON(w, http.StatusOK, map[string]any{"message": msg, "blacklisted": banned})
}

func (s *Server) handleReports(w http.ResponseWriter, r *http.Request) {
	rest, err := s.ownRestaurant(r.Context(), currentUser(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	sales, err := s.store.DishSales(r.Context(), rest.ID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"restaurant": rest, "report": chart.Build(sales)})
}
