package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"itemapi/internal/model"
	"itemapi/internal/model/filter"
	"itemapi/internal/service"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app. The item routes run
// behind mw, typically middleware.Auth; the probes do not.
func RegisterRoutes(app *fiber.App, db *sql.DB, itemSvc service.ItemService, mw ...fiber.Handler) {
	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	items := app.Group("/items", mw...)
	items.Get("/", ListItems(itemSvc))
	items.Post("/", CreateItem(itemSvc))
	items.Get("/:id", GetItem(itemSvc))
	items.Patch("/:id", UpdateItem(itemSvc))
	items.Delete("/:id", DeleteItem(itemSvc))
}

// HealthCheck checks DB connectivity only.
func HealthCheck(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe answers 200 as long as the process serves requests.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// ListItems lists items.
// Query parameters:
// - filters: JSON object or array of objects, e.g. {"name":{"$contains":"wine"}}
// - limit, offset
// - order_by: comma separated columns, "!" prefix for descending (e.g. "!mtime,name")
func ListItems(itemSvc service.ItemService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		opts := &filter.ListOptions{}

		if s := c.Query("limit"); s != "" {
			limit, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
			}
			opts.Limit = &limit
		}
		if s := c.Query("offset"); s != "" {
			offset, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
			}
			opts.Offset = &offset
		}
		if s := c.Query("order_by"); s != "" {
			opts.OrderBys = filter.ParseOrderBys(strings.Split(s, ",")...)
		}

		filters, err := parseFilters(c.Query("filters"))
		if err != nil {
			msg := "malformed filters"
			if errors.Is(err, filter.ErrInvalidFilter) {
				msg = err.Error()
			}
			return writeError(c, fiber.StatusBadRequest, "INVALID_FILTER", msg)
		}

		res, err := itemSvc.List(c.UserContext(), filters, opts)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	}
}

// parseFilters decodes a single filter object or an array of them. Empty input
// means no filter.
func parseFilters(raw string) ([]model.ItemFilter, error) {
	b := bytes.TrimSpace([]byte(raw))
	if len(b) == 0 {
		return nil, nil
	}
	if b[0] == '[' {
		var fs []model.ItemFilter
		if err := json.Unmarshal(b, &fs); err != nil {
			return nil, err
		}
		return fs, nil
	}
	var f model.ItemFilter
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, err
	}
	return []model.ItemFilter{f}, nil
}

// CreateItem creates an item owned by the caller from a JSON body.
func CreateItem(itemSvc service.ItemService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in model.ItemForCreate
		if err := json.Unmarshal(c.Body(), &in); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}

		item, err := itemSvc.Create(c.UserContext(), in)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(item)
	}
}

// GetItem returns an item by ID.
func GetItem(itemSvc service.ItemService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := parseID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		item, err := itemSvc.Get(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(item)
	}
}

// UpdateItem applies a partial update. Absent JSON fields are left untouched.
func UpdateItem(itemSvc service.ItemService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := parseID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		var in model.ItemForUpdate
		if err := json.Unmarshal(c.Body(), &in); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}

		item, err := itemSvc.Update(c.UserContext(), id, in)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(item)
	}
}

// DeleteItem deletes an item by ID.
func DeleteItem(itemSvc service.ItemService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := parseID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if err := itemSvc.Delete(c.UserContext(), id); err != nil {
			return writeServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func parseID(c *fiber.Ctx) (int64, bool) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
