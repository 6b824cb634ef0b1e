// Package fields exposes the per-kind custom field registry.
package fields

import (
	"context"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"cardvault-api/internal/collection"
	"cardvault-api/internal/customfield"
	"cardvault-api/internal/httpx/kit"
	"cardvault-api/internal/httpx/mw"
)

// SlotParams reads the :kind, :type and :index route parameters.
func SlotParams(c *fiber.Ctx) (customfield.EntityKind, customfield.ValueType, int, error) {
	kind, err := customfield.ParseKind(c.Params("kind"))
	if err != nil {
		return "", "", 0, err
	}
	vt, err := customfield.ParseValueType(c.Params("type"))
	if err != nil {
		return "", "", 0, err
	}
	index, err := strconv.Atoi(c.Params("index"))
	if err != nil {
		return "", "", 0, kit.BadRequest("index must be an integer", c.Params("index"))
	}
	return kind, vt, index, nil
}

// ListSettingsHandler returns the settings of every slot of a kind.
//
//	@Summary      Field registry
//	@Description  Settings of all 30 custom slots of a kind, in slot order
//	@Tags         fields
//	@Produce      json
//	@Security     BearerAuth
//	@Param        kind  path  string  true  "card | deck | pack"
//	@Success      200   {array}   collection.SlotSetting
//	@Failure      400   {object}  map[string]interface{}
//	@Failure      401   {object}  map[string]interface{}
//	@Router       /api/v1/fields/{kind} [get]
func ListSettingsHandler(svc *collection.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		uid, err := mw.CurrentUser(c)
		if err != nil {
			return err
		}
		kind, err := customfield.ParseKind(c.Params("kind"))
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(c.Context(), 3*time.Second)
		defer cancel()
		rows, err := svc.Schema(ctx, uid, kind)
		if err != nil {
			return err
		}
		return kit.OK(c, rows)
	}
}

// UpdateSettingHandler merges a partial setting into one slot.
//
//	@Summary      Update field setting
//	@Description  Rename, enable/disable or describe one custom slot. Absent members are left unchanged.
//	@Tags         fields
//	@Accept       json
//	@Produce      json
//	@Security     BearerAuth
//	@Param        kind   path  string                    true  "card | deck | pack"
//	@Param        type   path  string                    true  "bool | num | str"
//	@Param        index  path  int                       true  "1..10"
//	@Param        body   body  customfield.SettingPatch  true  "partial setting"
//	@Success      200    {object}  customfield.FieldSetting
//	@Failure      400    {object}  map[string]interface{}
//	@Failure      401    {object}  map[string]interface{}
//	@Router       /api/v1/fields/{kind}/{type}/{index} [patch]
func UpdateSettingHandler(svc *collection.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		uid, err := mw.CurrentUser(c)
		if err != nil {
			return err
		}
		kind, vt, index, err := SlotParams(c)
		if err != nil {
			return err
		}
		var patch customfield.SettingPatch
		if err := c.BodyParser(&patch); err != nil {
			return kit.BadRequest("invalid body", err.Error())
		}
		ctx, cancel := context.WithTimeout(c.Context(), 3*time.Second)
		defer cancel()
		setting, err := svc.UpdateSetting(ctx, uid, kind, vt, index, patch)
		if err != nil {
			return err
		}
		return kit.OK(c, setting)
	}
}

// Mount registers the field registry routes on r.
func Mount(r fiber.Router, svc *collection.Service) {
	r.Get("/fields/:kind", ListSettingsHandler(svc))
	r.Patch("/fields/:kind/:type/:index", UpdateSettingHandler(svc))
}
