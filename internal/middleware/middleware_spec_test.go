package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Chain", func() {
	It("applies middleware in order: first is outermost", func() {
		var order []string
		inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "handler")
			w.WriteHeader(http.StatusOK)
		})
		mw := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name+"-in")
					next.ServeHTTP(w, r)
					order = append(order, name+"-out")
				})
			}
		}

		rec := httptest.NewRecorder()
		Chain(inner, mw("A"), mw("B")).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(strings.Join(order, " ")).To(Equal("A-in B-in handler B-out A-out"))
	})
})

var _ = Describe("RequestID", func() {
	It("generates an ID when none is sent", func() {
		var seen string
		h := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = RequestIDFromContext(r.Context())
		}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		Expect(seen).To(HaveLen(36))
		Expect(rec.Header().Get("X-Request-ID")).To(Equal(seen))
	})

	It("reuses the client's ID", func() {
		h := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", "abc-123")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		Expect(rec.Header().Get("X-Request-ID")).To(Equal("abc-123"))
	})
})

var _ = Describe("Recover", func() {
	It("turns a panic into a logged 500", func() {
		var buf bytes.Buffer
		logger := slog.New(slog.NewJSONHandler(&buf, nil))
		h := Recover(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("boom")
		}))

		rec := httptest.NewRecorder()
		Expect(func() { h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil)) }).NotTo(Panic())
		Expect(rec.Code).To(Equal(http.StatusInternalServerError))
		Expect(buf.String()).To(ContainSubstring("panic recovered"))
		Expect(buf.String()).To(ContainSubstring("boom"))
	})
})

var _ = Describe("Logging", func() {
	It("logs method, path and status", func() {
		var buf bytes.Buffer
		logger := slog.New(slog.NewJSONHandler(&buf, nil))
		h := Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}))

		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/create-memory", nil))

		Expect(buf.String()).To(ContainSubstring(`"method":"POST"`))
		Expect(buf.String()).To(ContainSubstring(`"path":"/create-memory"`))
		Expect(buf.String()).To(ContainSubstring(`"status":418`))
	})
})

var _ = Describe("Metrics", func() {
	It("labels unmatched requests as other", func() {
		Expect(routeLabel(httptest.NewRequest(http.MethodGet, "/nope", nil))).To(Equal("other"))
	})

	It("passes the response through", func() {
		h := Metrics()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusCreated)
		}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		Expect(rec.Code).To(Equal(http.StatusCreated))
	})
})
