package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/doralyyyyy/Restaurant-Platform/internal/auth"
	"github.com/doralyyyyy/Restaurant-Platform/internal/db"
	"github.com/doralyyyyy/Restaurant-Platform/pkg/api"
)

const (
	msgCredentialsRequired = "用户名和密码必填"
	msgPasswordMismatch    = "两次输入的密码不一致"
	msgUsernameTaken       = "用户名已存在，请换一个"
	msgAvatarRequired      = "头像为必填项，请上传头像"
	msgBadCredentials      = "用户名或密码错误"
)

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if err := s.parseForm(r); err != nil {
		s.fail(w, r, err)
		return
	}
	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")
	if username == "" || password == "" {
		s.fail(w, r, api.Invalid(msgCredentialsRequired))
		return
	}
	if password != r.FormValue("password2") {
		s.fail(w, r, api.Invalid(msgPasswordMismatch))
		return
	}
	_, err := s.store.GetUserByUsername(r.Context(), username)
	switch {
	case err == nil:
		s.fail(w, r, api.Invalid(msgUsernameTaken))
		return
	case !errors.Is(err, db.ErrNotFound):
		s.fail(w, r, err)
		return
	}

	f, h, err := formFile(r, "avatar")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if f == nil {
		s.fail(w, r, api.Invalid(msgAvatarRequired))
		return
	}
	defer f.Close()
	avatar, err := s.uploads.SaveAvatar(h.Filename, f)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	u, err := s.store.CreateUser(r.Context(), api.User{Username: username, PasswordHash: hash, Avatar: avatar})
	if errors.Is(err, db.ErrConflict) {
		_ = s.uploads.Remove(avatar)
		s.fail(w, r, api.Invalid(msgUsernameTaken))
		return
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.log.Info("registered user", "id", u.ID, "username", u.Username)
	writeJSON(w, http.StatusCreated, map[string]any{"message": "注册成功，请登录", "user": u})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := s.parseForm(r); err != nil {
		s.fail(w, r, err)
		return
	}
	username := strings.TrimSpace(r.FormValue("username"))
	u, err := s.store.GetUserByUsername(r.Context(), username)
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		s.fail(w, r, err)
		return
	}
	if err != nil || !auth.CheckPassword(u.PasswordHash, r.FormValue("password")) {
		writeError(w, http.StatusUnauthorized, msgBadCredentials)
		return
	}
	token, err := s.sessions.Issue(u.ID, u.Username)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.sessions.SetTokenCookie(w, token)
	writeJSON(w, http.StatusOK, map[string]any{"message": "登录成功，欢迎回来～", "user": u, "token": token})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	auth.ClearTokenCookie(w)
	writeJSON(w, http.StatusOK, message("您已退出登录"))
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	u, err := s.store.GetUser(r.Context(), currentUser(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := map[string]any{"user": u, "restaurant": nil}
	rest, err := s.store.RestaurantByOwner(r.Context(), u.ID)
	switch {
	case err == nil:
		out["restaurant"] = rest
	case !errors.Is(err, db.ErrNotFound):
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
