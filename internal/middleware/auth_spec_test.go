package middleware

import (
	"encoding/base64"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/menezmethod/memoria/internal/auth"
	"github.com/menezmethod/memoria/internal/chain"
)

func basicHeader(payload string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(payload))
}

// runAuth drives BasicAuth directly and reports how often next was called.
func runAuth(header string) (*httptest.ResponseRecorder, int) {
	h := BasicAuth(auth.NewStaticVerifier("admin", "password"), DefaultRealm)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	calls := 0
	h.ServeChain(rec, req, func() { calls++ })
	return rec, calls
}

var _ = Describe("BasicAuth", func() {
	DescribeTable("accepts admin:password with any scheme casing and whitespace",
		func(header string) {
			rec, calls := runAuth(header)
			Expect(calls).To(Equal(1))
			Expect(rec.Body.Len()).To(BeZero())
			Expect(rec.Header().Get("WWW-Authenticate")).To(BeEmpty())
		},
		Entry("canonical", basicHeader("admin:password")),
		Entry("lowercase", "basic "+base64.StdEncoding.EncodeToString([]byte("admin:password"))),
		Entry("mixed case", "bAsIc "+base64.StdEncoding.EncodeToString([]byte("admin:password"))),
		Entry("padded with whitespace", "   Basic    "+base64.StdEncoding.EncodeToString([]byte("admin:password"))+"\t"),
	)

	DescribeTable("rejects everything else with a 401 challenge",
		func(header, reason string) {
			before := testutil.ToFloat64(AuthFailures.WithLabelValues(reason))

			rec, calls := runAuth(header)

			Expect(calls).To(BeZero())
			Expect(rec.Code).To(Equal(http.StatusUnauthorized))
			Expect(rec.Header().Values("WWW-Authenticate")).To(Equal([]string{`Basic realm="user_pages"`}))
			Expect(rec.Body.String()).To(Equal("Authentication required."))
			Expect(testutil.ToFloat64(AuthFailures.WithLabelValues(reason))).To(Equal(before + 1))
		},
		Entry("empty header", "", "missing"),
		Entry("missing Basic prefix", base64.StdEncoding.EncodeToString([]byte("admin:password")), "malformed"),
		Entry("invalid base64", "Basic %%%", "malformed"),
		Entry("missing colon", basicHeader("nocolonhere"), "malformed"),
		Entry("wrong username", basicHeader("root:password"), "invalid"),
		Entry("wrong password", basicHeader("admin:wrong"), "invalid"),
		Entry("case-different password", basicHeader("admin:Password"), "invalid"),
	)

	It("gives the same outcome for repeated attempts", func() {
		for range 10 {
			rec, calls := runAuth(basicHeader("admin:wrong"))
			Expect(rec.Code).To(Equal(http.StatusUnauthorized))
			Expect(calls).To(BeZero())
		}
		for range 10 {
			_, calls := runAuth(basicHeader("admin:password"))
			Expect(calls).To(Equal(1))
		}
	})

	It("announces a custom realm", func() {
		h := BasicAuth(auth.NewStaticVerifier("a", "b"), "vault")
		rec := httptest.NewRecorder()
		h.ServeChain(rec, httptest.NewRequest(http.MethodGet, "/", nil), func() {})
		Expect(rec.Header().Get("WWW-Authenticate")).To(Equal(`Basic realm="vault"`))
	})

	When("dispatched ahead of a route handler", func() {
		var h http.Handler

		BeforeEach(func() {
			d := chain.NewDispatcher(slog.New(slog.NewTextHandler(io.Discard, nil)))
			h = d.Handler(chain.New(
				BasicAuth(auth.NewStaticVerifier("admin", "password"), DefaultRealm),
				chain.Terminal(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					_, _ = io.WriteString(w, "secret page")
				})),
			))
		})

		It("reaches the handler with valid credentials", func() {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Authorization", basicHeader("admin:password"))
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Body.String()).To(Equal("secret page"))
		})

		It("never reaches the handler without them", func() {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusUnauthorized))
			Expect(rec.Body.String()).NotTo(ContainSubstring("secret"))
		})
	})
})
