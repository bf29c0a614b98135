package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"itemapi/internal/actor"
	"itemapi/internal/config"
	"itemapi/internal/http/middleware"
	"itemapi/internal/model"
	"itemapi/internal/model/filter"
	"itemapi/internal/service"
	serviceMocks "itemapi/internal/service/mocks"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func int64Ptr(v int64) *int64 { return &v }

func decodeError(t *testing.T, resp *http.Response) errorPayload {
	t.Helper()
	var body errorPayload
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestHealthCheck(t *testing.T) {
	db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	app := fiber.New()
	app.Get("/health", HealthCheck(db))

	t.Run("healthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(nil)

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "healthy", body["status"])
	})

	t.Run("unhealthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(errors.New("db error"))

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		assert.Equal(t, "SERVICE_UNAVAILABLE", decodeError(t, resp).Error.Code)
	})
}

func TestLivenessProbe(t *testing.T) {
	app := fiber.New()
	app.Get("/healthz", LivenessProbe())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestListItems(t *testing.T) {
	mockSvc := new(serviceMocks.MockItemService)
	app := fiber.New()
	app.Get("/items", ListItems(mockSvc))

	t.Run("success with query", func(t *testing.T) {
		wantFilters := []model.ItemFilter{{Name: filter.OpValsString{filter.Contains("wine")}}}
		wantOpts := &filter.ListOptions{
			Limit:    int64Ptr(10),
			Offset:   int64Ptr(20),
			OrderBys: filter.OrderBys{{Column: "mtime", Desc: true}, {Column: "name"}},
		}
		expectedRes := &service.ItemListResult{
			Items: []model.Item{{ID: 1, Name: "house wine"}},
			Total: 21,
		}
		mockSvc.On("List", mock.Anything, wantFilters, wantOpts).Return(expectedRes, nil).Once()

		q := url.Values{}
		q.Set("limit", "10")
		q.Set("offset", "20")
		q.Set("order_by", "!mtime,name")
		q.Set("filters", `{"name":{"$contains":"wine"}}`)
		req := httptest.NewRequest(http.MethodGet, "/items?"+q.Encode(), nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result struct {
			Data  []model.Item `json:"data"`
			Total int64        `json:"total"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
		assert.Len(t, result.Data, 1)
		assert.Equal(t, int64(21), result.Total)
		mockSvc.AssertExpectations(t)
	})

	t.Run("defaults and filter array", func(t *testing.T) {
		wantFilters := []model.ItemFilter{
			{ID: filter.OpValsInt64{filter.Eq(json.Number("1"))}},
			{ID: filter.OpValsInt64{filter.Eq(json.Number("2"))}},
		}
		mockSvc.On("List", mock.Anything, wantFilters, &filter.ListOptions{}).
			Return(&service.ItemListResult{Items: []model.Item{}}, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/items?filters="+url.QueryEscape(`[{"id":1},{"id":2}]`), nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("invalid limit", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/items?limit=abc", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_LIMIT", decodeError(t, resp).Error.Code)
	})

	t.Run("invalid offset", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/items?offset=-x", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_OFFSET", decodeError(t, resp).Error.Code)
	})

	t.Run("unknown operator", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/items?filters="+url.QueryEscape(`{"name":{"$like":"x"}}`), nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		body := decodeError(t, resp)
		assert.Equal(t, "INVALID_FILTER", body.Error.Code)
		assert.Contains(t, body.Error.Message, "unknown operator")
	})

	t.Run("malformed filters", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/items?filters="+url.QueryEscape(`{"name":`), nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		body := decodeError(t, resp)
		assert.Equal(t, "INVALID_FILTER", body.Error.Code)
		assert.Equal(t, "malformed filters", body.Error.Message)
	})

	t.Run("over the maximum limit", func(t *testing.T) {
		mockSvc.On("List", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, &model.ValidationError{Entity: "item", Message: "limit 9000 is over the maximum of 5000"}).Once()

		req := httptest.NewRequest(http.MethodGet, "/items?limit=9000", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		body := decodeError(t, resp)
		assert.Equal(t, "VALIDATION_ERROR", body.Error.Code)
		assert.Equal(t, "item: limit 9000 is over the maximum of 5000", body.Error.Message)
		mockSvc.AssertExpectations(t)
	})

	t.Run("unknown order column", func(t *testing.T) {
		mockSvc.On("List", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, &filter.InvalidFilterError{Column: "colour", Reason: "unknown column"}).Once()

		req := httptest.NewRequest(http.MethodGet, "/items?order_by=colour", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_FILTER", decodeError(t, resp).Error.Code)
		mockSvc.AssertExpectations(t)
	})

	t.Run("service error", func(t *testing.T) {
		mockSvc.On("List", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, &model.BackendError{Entity: "item", Op: "list", Err: errors.New("connection reset")}).Once()

		req := httptest.NewRequest(http.MethodGet, "/items", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		body := decodeError(t, resp)
		assert.Equal(t, "INTERNAL_ERROR", body.Error.Code)
		assert.NotContains(t, body.Error.Message, "connection reset")
		mockSvc.AssertExpectations(t)
	})
}

func TestCreateItem(t *testing.T) {
	mockSvc := new(serviceMocks.MockItemService)
	app := fiber.New()
	app.Post("/items", CreateItem(mockSvc))

	post := func(body string) *http.Response {
		req := httptest.NewRequest(http.MethodPost, "/items", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)
		return resp
	}

	t.Run("success", func(t *testing.T) {
		expected := &model.Item{ID: 7, OwnerID: 3, Name: "Rioja", CID: 3, MID: 3}
		mockSvc.On("Create", mock.Anything, model.ItemForCreate{Name: "Rioja"}).Return(expected, nil).Once()

		resp := post(`{"name":"Rioja"}`)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		var result model.Item
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
		assert.Equal(t, int64(7), result.ID)
		assert.Equal(t, int64(3), result.OwnerID)
		mockSvc.AssertExpectations(t)
	})

	t.Run("invalid body", func(t *testing.T) {
		resp := post(`{"name":`)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_BODY", decodeError(t, resp).Error.Code)
	})

	t.Run("validation", func(t *testing.T) {
		mockSvc.On("Create", mock.Anything, model.ItemForCreate{Name: " "}).
			Return(nil, &model.ValidationError{Entity: "item", Message: "name is required"}).Once()

		resp := post(`{"name":" "}`)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "VALIDATION_ERROR", decodeError(t, resp).Error.Code)
		mockSvc.AssertExpectations(t)
	})

	t.Run("duplicate", func(t *testing.T) {
		mockSvc.On("Create", mock.Anything, model.ItemForCreate{Name: "Rioja"}).
			Return(nil, &model.DuplicateError{Entity: "item", Err: errors.New("unique violation")}).Once()

		resp := post(`{"name":"Rioja"}`)

		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		assert.Equal(t, "CONFLICT", decodeError(t, resp).Error.Code)
		mockSvc.AssertExpectations(t)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		mockSvc.On("Create", mock.Anything, mock.Anything).Return(nil, service.ErrUnauthenticated).Once()

		resp := post(`{"name":"Rioja"}`)

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "UNAUTHORIZED", decodeError(t, resp).Error.Code)
		mockSvc.AssertExpectations(t)
	})
}

func TestGetItem(t *testing.T) {
	mockSvc := new(serviceMocks.MockItemService)
	app := fiber.New()
	app.Get("/items/:id", GetItem(mockSvc))

	t.Run("success", func(t *testing.T) {
		mockSvc.On("Get", mock.Anything, int64(42)).Return(&model.Item{ID: 42, Name: "Merlot"}, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/items/42", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var result model.Item
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
		assert.Equal(t, "Merlot", result.Name)
		mockSvc.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		mockSvc.On("Get", mock.Anything, int64(43)).Return(nil, &model.NotFoundError{Entity: "item", ID: 43}).Once()

		req := httptest.NewRequest(http.MethodGet, "/items/43", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "NOT_FOUND", decodeError(t, resp).Error.Code)
		mockSvc.AssertExpectations(t)
	})

	for _, id := range []string{"abc", "0", "-1"} {
		t.Run("invalid id "+id, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/items/"+id, nil)
			resp, _ := app.Test(req)

			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, "INVALID_ID", decodeError(t, resp).Error.Code)
		})
	}

	t.Run("service error", func(t *testing.T) {
		mockSvc.On("Get", mock.Anything, int64(44)).Return(nil, errors.New("db error")).Once()

		req := httptest.NewRequest(http.MethodGet, "/items/44", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestUpdateItem(t *testing.T) {
	mockSvc := new(serviceMocks.MockItemService)
	app := fiber.New()
	app.Patch("/items/:id", UpdateItem(mockSvc))

	patch := func(id, body string) *http.Response {
		req := httptest.NewRequest(http.MethodPatch, "/items/"+id, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)
		return resp
	}

	t.Run("success", func(t *testing.T) {
		name := "Malbec"
		mockSvc.On("Update", mock.Anything, int64(5), model.ItemForUpdate{Name: &name}).
			Return(&model.Item{ID: 5, Name: name}, nil).Once()

		resp := patch("5", `{"name":"Malbec"}`)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("owner only", func(t *testing.T) {
		mockSvc.On("Update", mock.Anything, int64(5), model.ItemForUpdate{OwnerID: int64Ptr(9)}).
			Return(&model.Item{ID: 5, OwnerID: 9}, nil).Once()

		resp := patch("5", `{"owner_id":9}`)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("empty update", func(t *testing.T) {
		mockSvc.On("Update", mock.Anything, int64(5), model.ItemForUpdate{}).
			Return(nil, &model.ValidationError{Entity: "item", Message: "no fields to update"}).Once()

		resp := patch("5", `{}`)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "VALIDATION_ERROR", decodeError(t, resp).Error.Code)
		mockSvc.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		mockSvc.On("Update", mock.Anything, int64(6), mock.Anything).
			Return(nil, &model.NotFoundError{Entity: "item", ID: 6}).Once()

		resp := patch("6", `{"name":"x"}`)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("invalid id", func(t *testing.T) {
		resp := patch("x", `{"name":"x"}`)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_ID", decodeError(t, resp).Error.Code)
	})

	t.Run("invalid body", func(t *testing.T) {
		resp := patch("5", `[]`)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_BODY", decodeError(t, resp).Error.Code)
	})
}

func TestDeleteItem(t *testing.T) {
	mockSvc := new(serviceMocks.MockItemService)
	app := fiber.New()
	app.Delete("/items/:id", DeleteItem(mockSvc))

	t.Run("success", func(t *testing.T) {
		mockSvc.On("Delete", mock.Anything, int64(8)).Return(nil).Once()

		req := httptest.NewRequest(http.MethodDelete, "/items/8", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		mockSvc.On("Delete", mock.Anything, int64(9)).Return(&model.NotFoundError{Entity: "item", ID: 9}).Once()

		req := httptest.NewRequest(http.MethodDelete, "/items/9", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "NOT_FOUND", decodeError(t, resp).Error.Code)
		mockSvc.AssertExpectations(t)
	})

	t.Run("service error", func(t *testing.T) {
		mockSvc.On("Delete", mock.Anything, int64(10)).Return(errors.New("delete error")).Once()

		req := httptest.NewRequest(http.MethodDelete, "/items/10", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestRouting(t *testing.T) {
	app := fiber.New(fiber.Config{
		ErrorHandler: ErrorHandler(),
	})

	mockSvc := new(serviceMocks.MockItemService)
	RegisterRoutes(app, nil, mockSvc, middleware.Auth(config.AuthConfig{TrustUserHeader: true}))

	t.Run("not found route", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/non-existent", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "NOT_FOUND", decodeError(t, resp).Error.Code)
	})

	t.Run("method not allowed", func(t *testing.T) {
		// Health endpoint only allows GET
		req := httptest.NewRequest(http.MethodPost, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
		assert.Equal(t, "METHOD_NOT_ALLOWED", decodeError(t, resp).Error.Code)
	})

	t.Run("items require a caller", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/items", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "UNAUTHORIZED", decodeError(t, resp).Error.Code)
	})

	t.Run("caller reaches the service", func(t *testing.T) {
		isCaller := mock.MatchedBy(func(ctx context.Context) bool {
			ac, ok := actor.FromContext(ctx)
			return ok && ac.UserID() == 12
		})
		mockSvc.On("Get", isCaller, int64(3)).Return(&model.Item{ID: 3}, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/items/3", nil)
		req.Header.Set(middleware.UserIDHeader, "12")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}
