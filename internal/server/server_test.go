package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doralyyyyy/Restaurant-Platform/internal/advisor"
	"github.com/doralyyyyy/Restaurant-Platform/internal/auth"
	"github.com/doralyyyyy/Restaurant-Platform/internal/cart"
	"github.com/doralyyyyy/Restaurant-Platform/internal/db"
	"github.com/doralyyyyy/Restaurant-Platform/internal/imaging"
	"github.com/doralyyyyy/Restaurant-Platform/internal/metrics"
)

type cannedAI struct{ answer string }

func (c cannedAI) Complete(context.Context, string, string) string { return c.answer }

type harness struct {
	t      *testing.T
	h      http.Handler
	static string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()
	store, closer, err := db.Open(ctx, filepath.Join(dir, "server.db"))
	require.NoError(t, err)
	t.Cleanup(func() { closer.Close() })
	sessions, err := auth.NewSessions("server-test-secret-0123", time.Hour, false)
	require.NoError(t, err)

	static := filepath.Join(dir, "static")
	srv := New(Options{
		Store:     store,
		Sessions:  sessions,
		Cart:      cart.NewService(store),
		Advisor:   advisor.New(store, cannedAI{answer: "# 建议\n**多推** 招牌菜 <script>x</script>"}),
		Uploads:   imaging.New(static),
		Metrics:   metrics.New(),
		StaticDir: static,
		MaxBody:   1 << 20,
	})
	return &harness{t: t, h: srv.Router(), static: static}
}

type upload struct{ field, name string }

func pngFile(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 20, 10))))
	return buf.Bytes()
}

// do sends fields as multipart when files are given, urlencoded otherwise.
func (hn *harness) do(method, path, token string, fields map[string]string, files ...upload) *httptest.ResponseRecorder {
	hn.t.Helper()
	var body io.Reader
	var ctype string
	switch {
	case len(files) > 0:
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		for k, v := range fields {
			require.NoError(hn.t, mw.WriteField(k, v))
		}
		for _, f := range files {
			fw, err := mw.CreateFormFile(f.field, f.name)
			require.NoError(hn.t, err)
			_, _ = fw.Write(pngFile(hn.t))
		}
		require.NoError(hn.t, mw.Close())
		body, ctype = &buf, mw.FormDataContentType()
	case fields != nil:
		form := url.Values{}
		for k, v := range fields {
			form.Set(k, v)
		}
		body, ctype = strings.NewReader(form.Encode()), "application/x-www-form-urlencoded"
	}
	req := httptest.NewRequest(method, path, body)
	if ctype != "" {
		req.Header.Set("Content-Type", ctype)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	hn.h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func errMsg(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode(t, rec)["error"].(string)
}

// account registers and logs in a user, returning the bearer token.
func (hn *harness) account(name string) string {
	hn.t.Helper()
	rec := hn.do(http.MethodPost, "/register", "", map[string]string{
		"username": name, "password": "123456", "password2": "123456",
	}, upload{"avatar", "me.png"})
	require.Equal(hn.t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = hn.do(http.MethodPost, "/login", "", map[string]string{"username": name, "password": "123456"})
	require.Equal(hn.t, http.StatusOK, rec.Code, rec.Body.String())
	return decode(hn.t, rec)["token"].(string)
}

func (hn *harness) restaurant(token, name string) (id, firstCategory int64) {
	hn.t.Helper()
	rec := hn.do(http.MethodPost, "/manage/restaurant", token, map[string]string{"name": name}, upload{"logo", "logo.png"})
	require.Equal(hn.t, http.StatusCreated, rec.Code, rec.Body.String())
	out := decode(hn.t, rec)
	cats := out["categories"].([]any)
	require.Len(hn.t, cats, 4)
	return int64(out["restaurant"].(map[string]any)["id"].(float64)), int64(cats[0].(map[string]any)["id"].(float64))
}

func (hn *harness) dish(token string, category int64, name, price string) int64 {
	hn.t.Helper()
	rec := hn.do(http.MethodPost, "/manage/dish/add/"+itoa(category), token,
		map[string]string{"name": name, "price": price, "description": "好吃"}, upload{"image", "dish.png"})
	require.Equal(hn.t, http.StatusCreated, rec.Code, rec.Body.String())
	return int64(decode(hn.t, rec)["dish"].(map[string]any)["id"].(float64))
}

func itoa(n int64) string { return strconv.FormatInt(n, 10) }

func TestRegisterAndLogin(t *testing.T) {
	hn := newHarness(t)

	cases := []struct {
		fields map[string]string
		files  []upload
		want   string
	}{
		{map[string]string{"username": " ", "password": "x", "password2": "x"}, nil, msgCredentialsRequired},
		{map[string]string{"username": "a", "password": "x", "password2": "y"}, nil, msgPasswordMismatch},
		{map[string]string{"username": "a", "password": "x", "password2": "x"}, nil, msgAvatarRequired},
		{map[string]string{"username": "a", "password": "x", "password2": "x"}, []upload{{"avatar", "a.bmp"}}, "头像格式不支持，只能上传 jpg/jpeg/png/gif"},
	}
	for i, tc := range cases {
		rec := hn.do(http.MethodPost, "/register", "", tc.fields, tc.files...)
		if rec.Code != http.StatusBadRequest || errMsg(t, rec) != tc.want {
			t.Fatalf("case %d: got %d %q want %q", i, rec.Code, rec.Body.String(), tc.want)
		}
	}

	token := hn.account("张三")
	rec := hn.do(http.MethodPost, "/register", "", map[string]string{
		"username": "张三", "password": "1", "password2": "1",
	}, upload{"avatar", "me.png"})
	assert.Equal(t, msgUsernameTaken, errMsg(t, rec))

	rec = hn.do(http.MethodPost, "/login", "", map[string]string{"username": "张三", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, msgBadCredentials, errMsg(t, rec))

	rec = hn.do(http.MethodGet, "/dashboard", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	out := decode(t, rec)
	user := out["user"].(map[string]any)
	assert.Equal(t, "张三", user["username"])
	assert.NotContains(t, user, "PasswordHash")
	assert.Nil(t, out["restaurant"])

	avatar := user["avatar"].(string)
	rec = hn.do(http.MethodGet, "/static/"+avatar, "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthRequired(t *testing.T) {
	hn := newHarness(t)
	rec := hn.do(http.MethodGet, "/dashboard", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/restaurants", nil)
	req.Header.Set("Accept", "text/html")
	rr := httptest.NewRecorder()
	hn.h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusSeeOther, rr.Code)

	rec = hn.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, "ok", rec.Body.String())
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	rec = hn.do(http.MethodGet, "/login", "", nil)
	assert.Contains(t, rec.Body.String(), `action="/login"`)
}

func TestOwnerFlow(t *testing.T) {
	hn := newHarness(t)
	owner := hn.account("老板")

	rec := hn.do(http.MethodGet, "/manage/dishes", owner, nil)
	assert.Equal(t, msgNoRestaurant, errMsg(t, rec))

	rec = hn.do(http.MethodPost, "/manage/restaurant", owner, map[string]string{"name": "川味小馆"})
	assert.Equal(t, msgLogoRequired, errMsg(t, rec))

	rid, cat := hn.restaurant(owner, "川味小馆")
	other := hn.account("老板2")
	rec = hn.do(http.MethodPost, "/manage/restaurant", other, map[string]string{"name": "川味小馆"}, upload{"logo", "l.png"})
	assert.Equal(t, msgRestaurantTaken, errMsg(t, rec))

	bad := []struct {
		fields map[string]string
		files  []upload
		want   string
	}{
		{map[string]string{"name": "", "price": "1"}, nil, msgDishRequired},
		{map[string]string{"name": "面", "price": "1", "description": strings.Repeat("辣", 501)}, nil, msgDescriptionTooLong},
		{map[string]string{"name": "面", "price": "abc"}, nil, msgBadPrice},
		{map[string]string{"name": "面", "price": "0"}, nil, msgBadPrice},
		{map[string]string{"name": "面", "price": "12"}, nil, msgImageRequired},
	}
	for i, tc := range bad {
		rec := hn.do(http.MethodPost, "/manage/dish/add/"+itoa(cat), owner, tc.fields, tc.files...)
		if rec.Code != http.StatusBadRequest || errMsg(t, rec) != tc.want {
			t.Fatalf("case %d: got %d %q want %q", i, rec.Code, rec.Body.String(), tc.want)
		}
	}

	tea := hn.dish(owner, cat, "菊花茶", "12.5")
	rec = hn.do(http.MethodPost, "/manage/dish/"+itoa(tea)+"/edit", owner, map[string]string{"name": "菊花茶", "price": "13"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "13.00", decode(t, rec)["dish"].(map[string]any)["price"])

	_, otherCat := hn.restaurant(other, "粤式茶餐厅")
	rec = hn.do(http.MethodPost, "/manage/dish/"+itoa(tea)+"/delete", other, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "无权删除其他餐厅的菜品", errMsg(t, rec))
	rec = hn.do(http.MethodPost, "/manage/dish/add/"+itoa(otherCat), owner, map[string]string{"name": "x", "price": "1"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = hn.do(http.MethodGet, "/manage/dishes", owner, nil)
	groups := decode(t, rec)["categories"].([]any)
	assert.Len(t, groups[0].(map[string]any)["dishes"], 1)

	rec = hn.do(http.MethodGet, "/restaurant/"+itoa(rid), owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(cat), decode(t, rec)["selected_category_id"])
}

func TestOrderingFlow(t *testing.T) {
	hn := newHarness(t)
	owner := hn.account("老板")
	rid, cat := hn.restaurant(owner, "川味小馆")
	tea := hn.dish(owner, cat, "菊花茶", "12.50")
	noodles := hn.dish(owner, cat, "担担面", "18")
	guest := hn.account("小王")

	rec := hn.do(http.MethodGet, "/restaurants?q="+url.QueryEscape("川味"), guest, nil)
	list := decode(t, rec)["restaurants"].([]any)
	require.Len(t, list, 1)

	rec = hn.do(http.MethodPost, "/restaurant/"+itoa(rid)+"/checkout", guest, nil)
	assert.Equal(t, "您的餐桌是空的，请先点菜", errMsg(t, rec))

	rec = hn.do(http.MethodPost, "/add_to_cart/"+itoa(tea), guest, map[string]string{"quantity": "2"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "已将 菊花茶 加入您的餐桌", decode(t, rec)["message"])
	hn.do(http.MethodPost, "/add_to_cart/"+itoa(noodles), guest, map[string]string{"quantity": "x"})
	rec = hn.do(http.MethodPost, "/update_cart/"+itoa(rid)+"/"+itoa(noodles), guest, map[string]string{"action": "dec"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	table := decode(t, rec)
	assert.Len(t, table["items"], 2)
	assert.Equal(t, "25.00", table["total"])

	rec = hn.do(http.MethodPost, "/restaurant/"+itoa(rid)+"/checkout", guest, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	receipt := decode(t, rec)
	assert.Equal(t, "25.00", receipt["total"])
	assert.Len(t, receipt["items"], 1)

	rec = hn.do(http.MethodGet, "/restaurant/"+itoa(rid)+"/my_table", guest, nil)
	assert.Empty(t, decode(t, rec)["items"])

	rec = hn.do(http.MethodGet, "/manage/reports", owner, nil)
	report := decode(t, rec)["report"].(map[string]any)
	assert.Equal(t, []any{"菊花茶", "担担面"}, report["labels"])
	assert.Equal(t, "25.00", report["total_amount"])

	rec = hn.do(http.MethodGet, "/manage/customers", owner, nil)
	customers := decode(t, rec)["customers"].([]any)
	require.Len(t, customers, 1)
	guestID := int64(customers[0].(map[string]any)["user"].(map[string]any)["id"].(float64))

	rec = hn.do(http.MethodGet, "/manage/customer/"+itoa(guestID), owner, nil)
	assert.Equal(t, "25.00", decode(t, rec)["total"])

	rec = hn.do(http.MethodPost, "/manage/customer/"+itoa(guestID)+"/toggle_blacklist", owner, nil)
	assert.Equal(t, true, decode(t, rec)["blacklisted"])

	rec = hn.do(http.MethodPost, "/add_to_cart/"+itoa(tea), guest, nil)
	assert.Equal(t, "抱歉，您已被本餐厅加入黑名单，无法下单。", errMsg(t, rec))
	rec = hn.do(http.MethodGet, "/restaurant/"+itoa(rid), guest, nil)
	assert.Equal(t, msgBrowseOnly, decode(t, rec)["notice"])

	rec = hn.do(http.MethodGet, "/manage/dish/"+itoa(tea), owner, nil)
	assert.Equal(t, float64(2), decode(t, rec)["total_qty"])

	rec = hn.do(http.MethodPost, "/manage/dish/"+itoa(tea)+"/delete", owner, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = hn.do(http.MethodGet, "/manage/customers", owner, nil)
	assert.Empty(t, decode(t, rec)["customers"])
}

func TestAdvisorPages(t *testing.T) {
	hn := newHarness(t)
	owner := hn.account("老板")
	rid, cat := hn.restaurant(owner, "川味小馆")
	tea := hn.dish(owner, cat, "菊花茶", "12.50")

	rec := hn.do(http.MethodPost, "/manage/advisor", owner, map[string]string{"question": "怎么提高销量？"})
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "<h3>建议</h3>")
	assert.Contains(t, body, "<strong>多推</strong>")
	assert.NotContains(t, body, "<script>")

	rec = hn.do(http.MethodPost, "/manage/advisor", owner, map[string]string{"question": " "})
	assert.Contains(t, rec.Body.String(), "请先输入要咨询的问题")

	path := "/restaurant/" + itoa(rid) + "/dish/" + itoa(tea)
	rec = hn.do(http.MethodGet, path, owner, nil)
	assert.Contains(t, rec.Body.String(), "菊花茶")
	rec = hn.do(http.MethodPost, path, owner, map[string]string{"question": ""})
	assert.Contains(t, rec.Body.String(), "请输入想要咨询的问题")

	rec = hn.do(http.MethodGet, "/restaurant/999/dish/"+itoa(tea), owner, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFormatAI(t *testing.T) {
	answer := "**好** <img src=x onerror=alert(1)>"
	got := string(formatAI(&answer))
	assert.Contains(t, got, "<strong>好</strong>")
	assert.NotContains(t, got, "<img")
	assert.Equal(t, "", string(formatAI(nil)))
}

func TestMetricsEndpoint(t *testing.T) {
	hn := newHarness(t)
	hn.do(http.MethodGet, "/healthz", "", nil)
	rec := hn.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `restaurant_http_requests_total{method="GET",route="/healthz",status="200"}`)
}
