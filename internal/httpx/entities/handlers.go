// Package entities provides the card, deck and pack endpoints: CRUD, custom
// field resolution, activation, legacy value deletion, extra fields, bulk edit
// and search.
package entities

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"cardvault-api/internal/collection"
	"cardvault-api/internal/customfield"
	"cardvault-api/internal/httpx/fields"
	"cardvault-api/internal/httpx/kit"
	"cardvault-api/internal/httpx/mw"
	"cardvault-api/internal/store"
)

// ExtraFieldRequest adds one free-text field.
// swagger:model ExtraFieldRequest
type ExtraFieldRequest struct {
	Key   string `json:"key" example:"Artist"`
	Value string `json:"value" example:"Mark Poole"`
}

type target struct {
	owner uuid.UUID
	kind  customfield.EntityKind
	id    uuid.UUID
}

func parseTarget(c *fiber.Ctx, withID bool) (target, error) {
	uid, err := mw.CurrentUser(c)
	if err != nil {
		return target{}, err
	}
	kind, err := customfield.ParseKind(c.Params("kind"))
	if err != nil {
		return target{}, err
	}
	t := target{owner: uid, kind: kind}
	if withID {
		if t.id, err = uuid.Parse(c.Params("id")); err != nil {
			return target{}, kit.BadRequest("invalid id", c.Params("id"))
		}
	}
	return t, nil
}

func timeout(c *fiber.Ctx) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Context(), 5*time.Second)
}

// ListHandler lists entities of a kind, newest first.
//
//	@Summary      List entities
//	@Tags         entities
//	@Produce      json
//	@Security     BearerAuth
//	@Param        kind      path   string  true   "cards | decks | packs"
//	@Param        q         query  string  false  "name or series contains"
//	@Param        favorite  query  bool    false  "favorite filter"
//	@Param        limit     query  int     false  "page size"  default(20)
//	@Param        offset    query  int     false  "offset"     default(0)
//	@Success      200  {array}   catalog.Entity
//	@Failure      400  {object}  map[string]interface{}
//	@Failure      401  {object}  map[string]interface{}
//	@Router       /api/v1/{kind} [get]
func ListHandler(svc *collection.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		t, err := parseTarget(c, false)
		if err != nil {
			return err
		}
		pg, err := kit.ParsePaging(c)
		if err != nil {
			return err
		}
		fav, err := kit.ParseOptionalBool(c, "favorite")
		if err != nil {
			return err
		}
		ctx, cancel := timeout(c)
		defer cancel()
		items, total, err := svc.List(ctx, t.owner, store.ListFilter{
			Kind: t.kind, Query: c.Query("q"), Favorite: fav, Limit: pg.Limit, Offset: pg.Offset,
		})
		if err != nil {
			return err
		}
		return kit.List(c, items, kit.NewPageMeta(pg, len(items), total))
	}
}

// CreateHandler creates an entity from a field map.
//
//	@Summary      Create entity
//	@Description  Body keys are entity fields (name required) and custom slot keys such as custom_1_num.
//	@Tags         entities
//	@Accept       json
//	@Produce      json
//	@Security     BearerAuth
//	@Param        kind  path  string                  true  "cards | decks | packs"
//	@Param        body  body  map[string]interface{}  true  "fields"
//	@Success      201   {object}  catalog.Entity
//	@Failure      400   {object}  map[string]interface{}
//	@Router       /api/v1/{kind} [post]
func CreateHandler(svc *collection.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		t, err := parseTarget(c, false)
		if err != nil {
			return err
		}
		var body map[string]any
		if err := c.BodyParser(&body); err != nil {
			return kit.BadRequest("invalid body", err.Error())
		}
		ctx, cancel := timeout(c)
		defer cancel()
		e, err := svc.Create(ctx, t.owner, t.kind, body)
		if err != nil {
			return err
		}
		return kit.Created(c, e)
	}
}

// GetHandler returns one entity.
//
//	@Summary      Get entity
//	@Tags         entities
//	@Produce      json
//	@Security     BearerAuth
//	@Param        kind  path  string  true  "cards | decks | packs"
//	@Param        id    path  string  true  "entity id"
//	@Success      200   {object}  catalog.Entity
//	@Failure      404   {object}  map[string]interface{}
//	@Router       /api/v1/{kind}/{id} [get]
func GetHandler(svc *collection.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		t, err := parseTarget(c, true)
		if err != nil {
			return err
		}
		ctx, cancel := timeout(c)
		defer cancel()
		e, err := svc.Get(ctx, t.owner, t.kind, t.id)
		if err != nil {
			return err
		}
		return kit.OK(c, e)
	}
}

// UpdateHandler merges a field map into one entity.
//
//	@Summary      Update entity
//	@Tags         entities
//	@Accept       json
//	@Produce      json
//	@Security     BearerAuth
//	@Param        kind  path  string                  true  "cards | decks | packs"
//	@Param        id    path  string                  true  "entity id"
//	@Param        body  body  map[string]interface{}  true  "fields to change"
//	@Success      200   {object}  catalog.Entity
//	@Failure      400   {object}  map[string]interface{}
//	@Failure      404   {object}  map[string]interface{}
//	@Router       /api/v1/{kind}/{id} [patch]
func UpdateHandler(svc *collection.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		t, err := parseTarget(c, true)
		if err != nil {
			return err
		}
		var body map[string]any
		if err := c.BodyParser(&body); err != nil {
			return kit.BadRequest("invalid body", err.Error())
		}
		ctx, cancel := timeout(c)
		defer cancel()
		e, err := svc.Update(ctx, t.owner, t.kind, t.id, body)
		if err != nil {
			return err
		}
		return kit.OK(c, e)
	}
}

// DeleteHandler removes one entity.
//
//	@Summary      Delete entity
//	@Tags         entities
//	@Security     BearerAuth
//	@Param        kind  path  string  true  "cards | decks | packs"
//	@Param        id    path  string  true  "entity id"
//	@Success      204   {string}  string  "no content"
//	@Failure      404   {object}  map[string]interface{}
//	@Router       /api/v1/{kind}/{id} [delete]
func DeleteHandler(svc *collection.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		t, err := parseTarget(c, true)
		if err != nil {
			return err
		}
		ctx, cancel := timeout(c)
		defer cancel()
		if err := svc.Delete(ctx, t.owner, t.kind, t.id); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// ResolveHandler returns the rendered and available custom fields of an entity.
//
//	@Summary      Resolve custom fields
//	@Description  mode=edit shows enabled slots and slots holding data; mode=read only slots holding data.
//	@Tags         entities
//	@Produce      json
//	@Security     BearerAuth
//	@Param        kind  path   string  true   "cards | decks | packs"
//	@Param        id    path   string  true   "entity id"
//	@Param        mode  query  string  false  "edit | read"  default(edit)
//	@Success      200   {object}  customfield.Resolution
//	@Failure      400   {object}  map[string]interface{}
//	@Failure      404   {object}  map[string]interface{}
//	@Router       /api/v1/{kind}/{id}/fields [get]
func ResolveHandler(svc *collection.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		t, err := parseTarget(c, true)
		if err != nil {
			return err
		}
		mode := c.Query("mode", "edit")
		if !lo.Contains([]string{"edit", "read"}, mode) {
			return kit.BadRequest("mode must be edit or read", mode)
		}
		ctx, cancel := timeout(c)
		defer cancel()
		res, err := svc.Resolve(ctx, t.owner, t.kind, t.id, mode == "read")
		if err != nil {
			return err
		}
		return kit.OK(c, res)
	}
}

// ActivateHandler puts an available slot into use on an entity.
//
//	@Summary      Activate custom field
//	@Description  Enables the slot setting and gives the entity the slot's initial value. A slot that is not available is reported with activated=false.
//	@Tags         entities
//	@Produce      json
//	@Security     BearerAuth
//	@Param        kind   path  string  true  "cards | decks | packs"
//	@Param        id     path  string  true  "entity id"
//	@Param        type   path  string  true  "bool | num | str"
//	@Param        index  path  int     true  "1..10"
//	@Success      200    {object}  collection.ActivateResult
//	@Failure      400    {object}  map[string]interface{}
//	@Failure      404    {object}  map[string]interface{}
//	@Router       /api/v1/{kind}/{id}/fields/{type}/{index}/activate [post]
func ActivateHandler(svc *collection.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		t, err := parseTarget(c, true)
		if err != nil {
			return err
		}
		_, vt, index, err := fields.SlotParams(c)
		if err != nil {
			return err
		}
		ctx, cancel := timeout(c)
		defer cancel()
		res, err := svc.Activate(ctx, t.owner, t.kind, t.id, vt, index)
		if err != nil {
			return err
		}
		return kit.OK(c, res)
	}
}

// DeleteValueHandler clears the value of a disabled slot on an entity.
//
//	@Summary      Delete legacy field value
//	@Description  Only values of disabled slots can be deleted; enabled slots answer 422.
//	@Tags         entities
//	@Produce      json
//	@Security     BearerAuth
//	@Param        kind   path  string  true  "cards | decks | packs"
//	@Param        id     path  string  true  "entity id"
//	@Param        type   path  string  true  "bool | num | str"
//	@Param        index  path  int     true  "1..10"
//	@Success      200    {object}  customfield.Resolution
//	@Failure      404    {object}  map[string]interface{}
//	@Failure      422    {object}  map[string]interface{}
//	@Router       /api/v1/{kind}/{id}/fields/{type}/{index} [delete]
func DeleteValueHandler(svc *collection.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		t, err := parseTarget(c, true)
		if err != nil {
			return err
		}
		_, vt, index, err := fields.SlotParams(c)
		if err != nil {
			return err
		}
		ctx, cancel := timeout(c)
		defer cancel()
		res, err := svc.DeleteValue(ctx, t.owner, t.kind, t.id, vt, index)
		if err != nil {
			return err
		}
		return kit.OK(c, res)
	}
}

// AddExtraHandler appends a free-text field.
//
//	@Summary      Add extra field
//	@Tags         entities
//	@Accept       json
//	@Produce      json
//	@Security     BearerAuth
//	@Param        kind  path  string                      true  "cards | decks | packs"
//	@Param        id    path  string                      true  "entity id"
//	@Param        body  body  entities.ExtraFieldRequest  true  "key and value"
//	@Success      201   {object}  catalog.Entity
//	@Failure      409   {object}  map[string]interface{}
//	@Router       /api/v1/{kind}/{id}/extra [post]
func AddExtraHandler(svc *collection.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		t, err := parseTarget(c, true)
		if err != nil {
			return err
		}
		var req ExtraFieldRequest
		if err := c.BodyParser(&req); err != nil {
			return kit.BadRequest("invalid body", err.Error())
		}
		ctx, cancel := timeout(c)
		defer cancel()
		e, err := svc.AddExtra(ctx, t.owner, t.kind, t.id, req.Key, req.Value)
		if err != nil {
			return err
		}
		return kit.Created(c, e)
	}
}

// RemoveExtraHandler drops a free-text field.
//
//	@Summary      Remove extra field
//	@Tags         entities
//	@Produce      json
//	@Security     BearerAuth
//	@Param        kind  path  string  true  "cards | decks | packs"
//	@Param        id    path  string  true  "entity id"
//	@Param        key   path  string  true  "field key"
//	@Success      200   {object}  catalog.Entity
//	@Router       /api/v1/{kind}/{id}/extra/{key} [delete]
func RemoveExtraHandler(svc *collection.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		t, err := parseTarget(c, true)
		if err != nil {
			return err
		}
		ctx, cancel := timeout(c)
		defer cancel()
		e, err := svc.RemoveExtra(ctx, t.owner, t.kind, t.id, c.Params("key"))
		if err != nil {
			return err
		}
		return kit.OK(c, e)
	}
}

// BulkEditHandler applies one set of changed fields to many entities.
//
//	@Summary      Bulk edit
//	@Description  Edits are tracked in order, fields in remove are discarded, empty values are dropped; the remaining fields are written to every id or to none. Without changes nothing is written and applied is 0.
//	@Tags         entities
//	@Accept       json
//	@Produce      json
//	@Security     BearerAuth
//	@Param        kind  path  string                  true  "cards | decks | packs"
//	@Param        body  body  collection.BulkRequest  true  "selection and edits"
//	@Success      200   {object}  collection.BulkResult
//	@Failure      400   {object}  map[string]interface{}
//	@Failure      404   {object}  map[string]interface{}
//	@Router       /api/v1/{kind}/bulk [post]
func BulkEditHandler(svc *collection.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		t, err := parseTarget(c, false)
		if err != nil {
			return err
		}
		var req collection.BulkRequest
		if err := c.BodyParser(&req); err != nil {
			return kit.BadRequest("invalid body", err.Error())
		}
		ctx, cancel := context.WithTimeout(c.Context(), 15*time.Second)
		defer cancel()
		res, err := svc.BulkEdit(ctx, t.owner, t.kind, req)
		if err != nil {
			return err
		}
		return kit.OK(c, res)
	}
}

// SearchHandler runs a full-text query over the user's collection.
//
//	@Summary      Search collection
//	@Tags         entities
//	@Produce      json
//	@Security     BearerAuth
//	@Param        q       query  string  true   "query"
//	@Param        kind    query  string  false  "card | deck | pack"
//	@Param        limit   query  int     false  "page size"  default(20)
//	@Param        offset  query  int     false  "offset"     default(0)
//	@Success      200  {object}  esx.SearchResult
//	@Failure      400  {object}  map[string]interface{}
//	@Router       /api/v1/search [get]
func SearchHandler(svc *collection.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		uid, err := mw.CurrentUser(c)
		if err != nil {
			return err
		}
		q := c.Query("q")
		if q == "" {
			return kit.BadRequest("q required", nil)
		}
		var kind customfield.EntityKind
		if raw := c.Query("kind"); raw != "" {
			if kind, err = customfield.ParseKind(raw); err != nil {
				return err
			}
		}
		pg, err := kit.ParsePaging(c)
		if err != nil {
			return err
		}
		ctx, cancel := timeout(c)
		defer cancel()
		res, err := svc.Search(ctx, uid, kind, q, pg.Offset, pg.Limit)
		if err != nil {
			return kit.InternalError("search failed", err.Error())
		}
		return kit.OK(c, res)
	}
}

// Mount registers the entity routes on r. It must run after every route
// with a fixed first segment, since /:kind matches any segment.
func Mount(r fiber.Router, svc *collection.Service) {
	r.Get("/search", SearchHandler(svc))

	r.Get("/:kind", ListHandler(svc))
	r.Post("/:kind", CreateHandler(svc))
	r.Post("/:kind/bulk", BulkEditHandler(svc))
	r.Get("/:kind/:id", GetHandler(svc))
	r.Patch("/:kind/:id", UpdateHandler(svc))
	r.Delete("/:kind/:id", DeleteHandler(svc))
	r.Get("/:kind/:id/fields", ResolveHandler(svc))
	r.Post("/:kind/:id/fields/:type/:index/activate", ActivateHandler(svc))
	r.Delete("/:kind/:id/fields/:type/:index", DeleteValueHandler(svc))
	r.Post("/:kind/:id/extra", AddExtraHandler(svc))
	r.Delete("/:kind/:id/extra/:key", RemoveExtraHandler(svc))
}
