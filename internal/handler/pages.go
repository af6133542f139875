// Package handler implements the memoria HTTP handlers: the HTML pages,
// the form that adds a memory, a small JSON API and health endpoints.
package handler

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/menezmethod/memoria/internal/apierror"
	"github.com/menezmethod/memoria/internal/memory"
)

// MaxBodyBytes caps the size of a create-memory form submission.
const MaxBodyBytes = 1_000_000

// summaryLen is how many characters of a memory the homepage shows.
const summaryLen = 100

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

var validate = validator.New(validator.WithRequiredStructEnabled())

// Store is the subset of the memory store the handlers use.
type Store interface {
	All() []memory.Memory
	Get(id int) (memory.Memory, error)
	Add(ctx context.Context, content string) (memory.Memory, error)
}

type listItem struct {
	Position int
	ID       int
	Summary  string
}

// Home renders every memory, truncated, with a form to add another.
//
//	GET /
func Home(store Store, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		all := store.All()
		items := make([]listItem, len(all))
		for i, m := range all {
			items[i] = listItem{Position: i + 1, ID: m.ID, Summary: summarize(m.Content)}
		}
		render(w, logger, "home.html", items)
	}
}

// MemoryPage renders one memory in full.
//
//	GET /memory/{id}
func MemoryPage(store Store, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m, ok := lookup(w, r, store)
		if !ok {
			return
		}
		render(w, logger, "memory.html", m)
	}
}

type createMemoryForm struct {
	Content string `validate:"required"`
}

// CreateMemory adds the posted memory and redirects to the homepage.
//
//	POST /create-memory
func CreateMemory(store Store, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
		if err := r.ParseForm(); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				apierror.Write(w, apierror.PayloadTooLarge())
				return
			}
			writeHTML(w, http.StatusBadRequest, "<h1>400 Bad Request</h1><p>Malformed form data.</p>")
			return
		}

		form := createMemoryForm{Content: r.PostForm.Get("content")}
		if err := validate.Struct(form); err != nil {
			writeHTML(w, http.StatusBadRequest, "<h1>400 Bad Request</h1><p>Memory content is required.</p>")
			return
		}

		m, err := store.Add(r.Context(), form.Content)
		if err != nil {
			logger.Error("create memory failed", "err", err)
			apierror.Write(w, apierror.Internal("Could not save memory."))
			return
		}

		logger.Debug("memory created", "id", m.ID)
		http.Redirect(w, r, "/", http.StatusFound)
	}
}

// NotFound answers any route that matched nothing.
func NotFound() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeHTML(w, http.StatusNotFound, "<h1>404 Not Found</h1>")
	}
}

// lookup resolves the {id} path value, writing the error response itself
// when the id is malformed or unknown.
func lookup(w http.ResponseWriter, r *http.Request, store Store) (memory.Memory, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		apierror.Write(w, apierror.InvalidID())
		return memory.Memory{}, false
	}

	m, err := store.Get(id)
	if errors.Is(err, memory.ErrNotFound) {
		if wantsJSON(r) {
			apierror.Write(w, apierror.NotFound("Memory not found"))
		} else {
			writeHTML(w, http.StatusNotFound, "<h1>404 Not Found</h1><p>No such memory.</p>")
		}
		return memory.Memory{}, false
	}
	if err != nil {
		apierror.Write(w, apierror.Internal("Could not load memory."))
		return memory.Memory{}, false
	}
	return m, true
}

func summarize(content string) string {
	runes := []rune(content)
	if len(runes) <= summaryLen {
		return content
	}
	return string(runes[:summaryLen]) + "..."
}

func render(w http.ResponseWriter, logger *slog.Logger, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.ExecuteTemplate(w, name, data); err != nil {
		logger.Error("render template failed", "template", name, "err", err)
	}
}

func writeHTML(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}
