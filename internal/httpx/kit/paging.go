package kit

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/samber/lo"
)

// PagingParams contains offset pagination parameters from an HTTP request.
type PagingParams struct {
	Limit  int
	Offset int
}

// ParsePaging reads limit (1..100, default 20) and offset (>= 0).
func ParsePaging(c *fiber.Ctx) (PagingParams, error) {
	p := PagingParams{Limit: 20}
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return p, BadRequest("invalid limit", raw)
		}
		p.Limit = lo.Clamp(n, 1, 100)
	}
	if raw := c.Query("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return p, BadRequest("invalid offset", raw)
		}
		p.Offset = n
	}
	return p, nil
}

// ParseOptionalBool reads a true/false query flag; an absent flag yields nil.
func ParseOptionalBool(c *fiber.Ctx, key string) (*bool, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, BadRequest("invalid "+key, raw)
	}
	return &v, nil
}
