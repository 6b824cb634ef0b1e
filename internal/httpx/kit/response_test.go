package kit

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func TestOKEnvelope(t *testing.T) {
	app := fiber.New()
	app.Get("/t", func(c *fiber.Ctx) error {
		return OK(c, fiber.Map{"x": 1})
	})
	req := httptest.NewRequest("GET", "/t", nil)
	res, err := app.Test(req)
	if err != nil {
		t.Fatalf("request err: %v", err)
	}
	var body map[string]any
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["code"] != "OK" || body["message"] != "success" {
		t.Fatalf("unexpected envelope: %v", body)
	}
	data := body["data"].(map[string]any)
	if int(data["x"].(float64)) != 1 {
		t.Fatalf("unexpected data: %v", data)
	}
}

func TestListEnvelope_PageMeta(t *testing.T) {
	app := fiber.New()
	app.Get("/t", func(c *fiber.Ctx) error {
		p, err := ParsePaging(c)
		if err != nil {
			return err
		}
		return List(c, []int{1, 2}, NewPageMeta(p, 2, 5))
	})
	res, err := app.Test(httptest.NewRequest("GET", "/t?limit=2&offset=1", nil))
	if err != nil {
		t.Fatalf("request err: %v", err)
	}
	var body struct {
		Meta PageMeta `json:"meta"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	m := body.Meta
	if m.Limit != 2 || m.Offset != 1 || m.Count != 2 || !m.HasMore || m.NextOffset == nil || *m.NextOffset != 3 || *m.Total != 5 {
		t.Fatalf("unexpected meta: %+v", m)
	}
}
