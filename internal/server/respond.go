package server

import (
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/doralyyyyy/Restaurant-Platform/internal/auth"
	"github.com/doralyyyyy/Restaurant-Platform/internal/db"
	"github.com/doralyyyyy/Restaurant-Platform/pkg/api"
)

// forbidden is an access failure carrying the message shown to the user.
type forbidden string

func (f forbidden) Error() string { return string(f) }

var errBadID = errors.New("bad id")

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func message(msg string) map[string]string {
	return map[string]string{"message": msg}
}

// fail maps err onto a status code. Unexpected errors are logged and hidden.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	var ve *api.ValidationError
	var fb forbidden
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, ve.Msg)
	case errors.As(err, &fb):
		writeError(w, http.StatusForbidden, fb.Error())
	case errors.Is(err, db.ErrNotFound), errors.Is(err, errBadID):
		writeError(w, http.StatusNotFound, http.StatusText(http.StatusNotFound))
	case errors.As(err, &tooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, http.StatusText(http.StatusRequestEntityTooLarge))
	default:
		s.log.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		writeError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
	}
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errBadID
	}
	return id, nil
}

// currentUser is only called behind auth.RequireAuth.
func currentUser(r *http.Request) int64 {
	id, _ := auth.UserID(r.Context())
	return id
}

// parseForm accepts urlencoded and multipart bodies alike.
func (s *Server) parseForm(r *http.Request) error {
	err := r.ParseMultipartForm(s.maxBody)
	if errors.Is(err, http.ErrNotMultipart) {
		return r.ParseForm()
	}
	return err
}

// formFile returns the uploaded file, or nil when the field is empty.
func formFile(r *http.Request, field string) (multipart.File, *multipart.FileHeader, error) {
	f, h, err := r.FormFile(field)
	missing := errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart)
	if missing || (err == nil && h.Filename == "") {
		if f != nil {
			f.Close()
		}
		return nil, nil, nil
	}
	return f, h, err
}
