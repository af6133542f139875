package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/menezmethod/memoria/internal/memory"
)

var _ = Describe("Home", func() {
	It("lists memories with 1-based positions and links", func() {
		store := &fakeStore{memories: []memory.Memory{{ID: 7, Content: "seven"}, {ID: 9, Content: "nine"}}}
		rec := httptest.NewRecorder()
		Home(store, discardLogger())(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Header().Get("Content-Type")).To(ContainSubstring("text/html"))
		body := rec.Body.String()
		Expect(body).To(ContainSubstring(`<strong>1:</strong> seven <a href="/memory/7">Read More</a>`))
		Expect(body).To(ContainSubstring(`<strong>2:</strong> nine <a href="/memory/9">Read More</a>`))
		Expect(body).To(ContainSubstring(`action="/create-memory"`))
	})

	It("truncates long memories to 100 characters", func() {
		long := strings.Repeat("a", 150)
		store := &fakeStore{memories: []memory.Memory{{ID: 1, Content: long}}}
		rec := httptest.NewRecorder()
		Home(store, discardLogger())(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		Expect(rec.Body.String()).To(ContainSubstring(strings.Repeat("a", 100) + "..."))
		Expect(rec.Body.String()).NotTo(ContainSubstring(strings.Repeat("a", 101)))
	})

	It("escapes memory content", func() {
		store := &fakeStore{memories: []memory.Memory{{ID: 1, Content: "<script>x</script>"}}}
		rec := httptest.NewRecorder()
		Home(store, discardLogger())(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		Expect(rec.Body.String()).NotTo(ContainSubstring("<script>"))
	})
})

var _ = Describe("MemoryPage", func() {
	var h http.Handler

	BeforeEach(func() {
		store := &fakeStore{memories: []memory.Memory{{ID: 3, Content: strings.Repeat("full ", 40)}}}
		h = withPattern("GET /memory/{id}", MemoryPage(store, discardLogger()))
	})

	It("renders the full content", func() {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/memory/3", nil))

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring(strings.Repeat("full ", 40)))
		Expect(rec.Body.String()).To(ContainSubstring(`<a href="/">Back to homepage</a>`))
	})

	It("returns 400 JSON for a non-numeric id", func() {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/memory/abc", nil))

		Expect(rec.Code).To(Equal(http.StatusBadRequest))
		Expect(rec.Header().Get("Content-Type")).To(Equal("application/json"))
		var body map[string]string
		Expect(json.NewDecoder(rec.Body).Decode(&body)).To(Succeed())
		Expect(body).To(HaveKeyWithValue("error", "Invalid memory ID"))
	})

	It("returns 404 for an unknown id", func() {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/memory/99", nil))

		Expect(rec.Code).To(Equal(http.StatusNotFound))
		Expect(rec.Header().Get("Content-Type")).To(ContainSubstring("text/html"))
	})
})

var _ = Describe("CreateMemory", func() {
	post := func(h http.Handler, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/create-memory", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	It("adds the memory and redirects home", func() {
		store := &fakeStore{}
		rec := post(CreateMemory(store, discardLogger()), url.Values{"content": {"a new day"}}.Encode())

		Expect(rec.Code).To(Equal(http.StatusFound))
		Expect(rec.Header().Get("Location")).To(Equal("/"))
		Expect(store.memories).To(Equal([]memory.Memory{{ID: 1, Content: "a new day"}}))
	})

	DescribeTable("rejects missing content",
		func(body string) {
			store := &fakeStore{}
			rec := post(CreateMemory(store, discardLogger()), body)

			Expect(rec.Code).To(Equal(http.StatusBadRequest))
			Expect(rec.Body.String()).To(Equal("<h1>400 Bad Request</h1><p>Memory content is required.</p>"))
			Expect(store.memories).To(BeEmpty())
		},
		Entry("empty body", ""),
		Entry("empty field", "content="),
		Entry("other field", "title=hello"),
	)

	It("returns 413 for bodies over the limit", func() {
		store := &fakeStore{}
		body := "content=" + strings.Repeat("x", MaxBodyBytes+1)
		rec := post(CreateMemory(store, discardLogger()), body)

		Expect(rec.Code).To(Equal(http.StatusRequestEntityTooLarge))
		Expect(store.memories).To(BeEmpty())
	})

	It("returns 500 when the store cannot save", func() {
		store := &fakeStore{addErr: errDiskFull}
		rec := post(CreateMemory(store, discardLogger()), "content=hi")

		Expect(rec.Code).To(Equal(http.StatusInternalServerError))
	})
})

var _ = Describe("JSON API", func() {
	var store *fakeStore

	BeforeEach(func() {
		store = &fakeStore{memories: []memory.Memory{{ID: 1, Content: "one"}, {ID: 2, Content: "two"}}}
	})

	It("lists memories", func() {
		rec := httptest.NewRecorder()
		ListMemories(store, discardLogger())(rec, httptest.NewRequest(http.MethodGet, "/api/memories", nil))

		Expect(rec.Code).To(Equal(http.StatusOK))
		var got []memory.Memory
		Expect(json.NewDecoder(rec.Body).Decode(&got)).To(Succeed())
		Expect(got).To(Equal(store.memories))
	})

	It("gets one memory", func() {
		h := withPattern("GET /api/memories/{id}", GetMemory(store, discardLogger()))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/memories/2", nil))

		Expect(rec.Code).To(Equal(http.StatusOK))
		var got memory.Memory
		Expect(json.NewDecoder(rec.Body).Decode(&got)).To(Succeed())
		Expect(got).To(Equal(memory.Memory{ID: 2, Content: "two"}))
	})

	It("returns a JSON 404 for an unknown id", func() {
		h := withPattern("GET /api/memories/{id}", GetMemory(store, discardLogger()))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/memories/5", nil))

		Expect(rec.Code).To(Equal(http.StatusNotFound))
		Expect(rec.Header().Get("Content-Type")).To(Equal("application/json"))
	})
})

var _ = Describe("Health", func() {
	It("returns status ok with version", func() {
		rec := httptest.NewRecorder()
		Health()(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		Expect(rec.Code).To(Equal(http.StatusOK))
		var body map[string]string
		Expect(json.NewDecoder(rec.Body).Decode(&body)).To(Succeed())
		Expect(body["status"]).To(Equal("ok"))
		Expect(body).To(HaveKey("version"))
	})
})

var _ = Describe("NotFound", func() {
	It("writes the 404 page", func() {
		rec := httptest.NewRecorder()
		NotFound()(rec, httptest.NewRequest(http.MethodGet, "/nowhere", nil))

		Expect(rec.Code).To(Equal(http.StatusNotFound))
		Expect(rec.Body.String()).To(Equal("<h1>404 Not Found</h1>"))
	})
})
