package mw

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"cardvault-api/internal/customfield"
	"cardvault-api/internal/httpx/kit"
	"cardvault-api/internal/metrics"
)

func TestJWTMiddleware_RequireUser(t *testing.T) {
	uid := uuid.New()
	parse := func(token string) (*AuthContext, error) {
		if token != "good" {
			return nil, fiber.ErrUnauthorized
		}
		return &AuthContext{Subject: "user:" + uid.String(), Kind: KindUser}, nil
	}
	app := fiber.New(fiber.Config{ErrorHandler: kit.ErrorHandler()})
	app.Use(JWTMiddlewareDynamic(parse))
	app.Get("/me", RequireUser(), func(c *fiber.Ctx) error {
		id, err := CurrentUser(c)
		if err != nil {
			return err
		}
		return c.SendString(id.String())
	})

	cases := map[string]int{"": http.StatusUnauthorized, "Bearer bad": http.StatusUnauthorized, "Bearer good": http.StatusOK, "Basic good": http.StatusUnauthorized}
	for header, want := range cases {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		res, err := app.Test(req)
		if err != nil {
			t.Fatalf("request err: %v", err)
		}
		if res.StatusCode != want {
			t.Fatalf("%q: status=%d want %d", header, res.StatusCode, want)
		}
	}
}

func TestAuthContext_UserID(t *testing.T) {
	if _, ok := (*AuthContext)(nil).UserID(); ok {
		t.Fatalf("nil context must not resolve a user")
	}
	if _, ok := (&AuthContext{Subject: "visitor:" + uuid.NewString(), Kind: "anon"}).UserID(); ok {
		t.Fatalf("anon context must not resolve a user")
	}
	id := uuid.New()
	got, ok := (&AuthContext{Subject: "user:" + id.String(), Kind: KindUser}).UserID()
	if !ok || got != id {
		t.Fatalf("got %v %v", got, ok)
	}
}

func TestRateLimitDefault_InMemory(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: kit.ErrorHandler()})
	app.Use(RateLimitDefault(nil, 60, 2))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendStatus(http.StatusNoContent) })

	for i, want := range []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests} {
		res, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
		if err != nil {
			t.Fatalf("request err: %v", err)
		}
		if res.StatusCode != want {
			t.Fatalf("request %d: status=%d want %d", i, res.StatusCode, want)
		}
	}
}

func TestMetrics_CountsMappedStatus(t *testing.T) {
	reg := metrics.New()
	app := fiber.New(fiber.Config{ErrorHandler: kit.ErrorHandler()})
	app.Use(Metrics(reg))
	app.Get("/fields/:kind", func(c *fiber.Ctx) error { return customfield.ErrUnknownKind })

	res, err := app.Test(httptest.NewRequest(http.MethodGet, "/fields/spell", nil))
	if err != nil {
		t.Fatalf("request err: %v", err)
	}
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status=%d", res.StatusCode)
	}
	want := `
# HELP cardvault_http_requests_total HTTP requests by method, route and status.
# TYPE cardvault_http_requests_total counter
cardvault_http_requests_total{method="GET",route="/fields/:kind",status="400"} 1
`
	if err := testutil.GatherAndCompare(reg.Gatherer(), strings.NewReader(want), "cardvault_http_requests_total"); err != nil {
		t.Fatalf("metrics: %v", err)
	}
}
