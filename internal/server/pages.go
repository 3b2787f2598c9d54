package server

import (
	"embed"
	"errors"
	"html/template"
	"net/http"

	"github.com/microcosm-cc/bluemonday"

	"github.com/doralyyyyy/Restaurant-Platform/internal/render"
	"github.com/doralyyyyy/Restaurant-Platform/pkg/api"
)

//go:embed templates/*.html
var templateFS embed.FS

// answerPolicy admits exactly the tags the answer renderer emits.
var answerPolicy = func() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("br", "hr", "h3", "h4", "h5", "h6", "ul", "ol", "li", "strong", "em")
	return p
}()

// formatAI renders an advisor answer to HTML. The renderer escapes every
// source tag; the policy pass guards the template boundary.
func formatAI(v any) template.HTML {
	return template.HTML(answerPolicy.Sanitize(render.Value(v)))
}

var pages = template.Must(template.New("").Funcs(template.FuncMap{
	"formatAI": formatAI,
}).ParseFS(templateFS, "templates/*.html"))

type advisorPage struct {
	Title      string
	Restaurant api.Restaurant
	Dish       *api.Dish
	Action     string
	Question   string
	Answer     *string
	Notice     string
}

func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pages.ExecuteTemplate(w, name, data); err != nil {
		s.log.Error("render page", "page", name, "path", r.URL.Path, "err", err)
	}
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, r, "login.html", nil)
}

func (s *Server) handleRegisterPage(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, r, "register.html", nil)
}

// handleOwnerAdvisor shows the business consultant and answers POSTed
// questions against the restaurant's sales digest.
func (s *Server) handleOwnerAdvisor(w http.ResponseWriter, r *http.Request) {
	rest, err := s.ownRestaurant(r.Context(), currentUser(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	page := advisorPage{Title: "经营顾问", Restaurant: rest, Action: r.URL.Path}
	if r.Method == http.MethodPost {
		if err := s.ask(r, &page, func(q string) (string, error) {
			return s.advisor.AskOwner(r.Context(), rest, q)
		}); err != nil {
			s.fail(w, r, err)
			return
		}
	}
	s.renderPage(w, r, "advisor.html", page)
}

// handleCustomerAdvisor is the dish page with the ordering helper.
func (s *Server) handleCustomerAdvisor(w http.ResponseWriter, r *http.Request) {
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
	d, err := s.store.GetDish(r.Context(), dishID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if d.RestaurantID != rest.ID {
		s.fail(w, r, api.Invalid("该菜品不属于当前餐厅"))
		return
	}
	page := advisorPage{Title: d.Name, Restaurant: rest, Dish: &d, Action: r.URL.Path}
	if r.Method == http.MethodPost {
		if err := s.ask(r, &page, func(q string) (string, error) {
			return s.advisor.AskCustomer(r.Context(), rest, d, q)
		}); err != nil {
			s.fail(w, r, err)
			return
		}
	}
	s.renderPage(w, r, "advisor.html", page)
}

// ask fills page from the posted question. Validation problems become the
// page notice; other errors are returned.
func (s *Server) ask(r *http.Request, page *advisorPage, fn func(q string) (string, error)) error {
	if err := s.parseForm(r); err != nil {
		return err
	}
	page.Question = r.FormValue("question")
	answer, err := fn(page.Question)
	var ve *api.ValidationError
	if errors.As(err, &ve) {
		page.Notice = ve.Msg
		return nil
	}
	if err != nil {
		return err
	}
	page.Answer = &answer
	return nil
}
