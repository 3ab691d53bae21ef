package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/microcrm/internal/client"
	"github.com/hitoshi/microcrm/internal/model"
)

// --- モック定義 ---

type mockClientService struct {
	createFn func(ctx context.Context, ownerID string, input model.ClientInput) (*model.Client, error)
	getFn    func(ctx context.Context, ownerID, clientID string) (*model.Client, error)
	updateFn func(ctx context.Context, ownerID, clientID string, patch model.ClientPatch) (*model.Client, error)
	deleteFn func(ctx context.Context, ownerID, clientID string) error
	listFn   func(ctx context.Context, ownerID string, page, pageSize int, search string) (*model.ClientPage, error)
}

func (m *mockClientService) Create(ctx context.Context, ownerID string, input model.ClientInput) (*model.Client, error) {
	if m.createFn != nil {
		return m.createFn(ctx, ownerID, input)
	}
	return nil, nil
}

func (m *mockClientService) Get(ctx context.Context, ownerID, clientID string) (*model.Client, error) {
	if m.getFn != nil {
		return m.getFn(ctx, ownerID, clientID)
	}
	return nil, nil
}

func (m *mockClientService) Update(ctx context.Context, ownerID, clientID string, patch model.ClientPatch) (*model.Client, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, ownerID, clientID, patch)
	}
	return nil, nil
}

func (m *mockClientService) Delete(ctx context.Context, ownerID, clientID string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, ownerID, clientID)
	}
	return nil
}

func (m *mockClientService) List(ctx context.Context, ownerID string, page, pageSize int, search string) (*model.ClientPage, error) {
	if m.listFn != nil {
		return m.listFn(ctx, ownerID, page, pageSize, search)
	}
	return &model.ClientPage{Clients: []*model.Client{}, Page: page, PageSize: pageSize}, nil
}

// withChiURLParam はテスト用にchiのURLパラメータを注入するヘルパー。
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	ctx := context.WithValue(r.Context(), chi.RouteCtxKey, rctx)
	return r.WithContext(ctx)
}

func strPtr(s string) *string { return &s }

func sampleClient(id, ownerID string) *model.Client {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return &model.Client{
		ID:        id,
		Name:      "Alice Johnson",
		Email:     strPtr("alice@example.com"),
		UserID:    ownerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// --- POST /api/clients ---

func TestClientHandler_CreateClient_Success(t *testing.T) {
	svc := &mockClientService{
		createFn: func(ctx context.Context, ownerID string, input model.ClientInput) (*model.Client, error) {
			if ownerID != "user-1" {
				t.Errorf("ownerID = %q, want %q", ownerID, "user-1")
			}
			if input.Name != "Alice Johnson" {
				t.Errorf("Name = %q, want trimmed %q", input.Name, "Alice Johnson")
			}
			if input.Phone != nil {
				t.Errorf("Phone = %v, want nil for empty string", *input.Phone)
			}
			c := sampleClient("client-1", ownerID)
			c.Email = input.Email
			return c, nil
		},
	}
	h := NewClientHandler(svc)

	req := jsonRequest(http.MethodPost, "/api/clients", `{"name":" Alice Johnson ","email":"alice@example.com","phone":""}`)
	w := httptest.NewRecorder()
	h.CreateClient(w, withClaim(req, "user-1", "owner@example.com"))

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d, body = %s", w.Code, http.StatusCreated, w.Body.String())
	}

	var body map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["user_id"] != "user-1" {
		t.Errorf("user_id = %v, want %q", body["user_id"], "user-1")
	}
	if body["phone"] != nil {
		t.Errorf("phone = %v, want null", body["phone"])
	}
}

func TestClientHandler_CreateClient_IgnoresPayloadOwner(t *testing.T) {
	svc := &mockClientService{
		createFn: func(ctx context.Context, ownerID string, input model.ClientInput) (*model.Client, error) {
			if ownerID != "user-1" {
				t.Errorf("ownerID = %q, want caller %q", ownerID, "user-1")
			}
			return sampleClient("client-1", ownerID), nil
		},
	}
	h := NewClientHandler(svc)

	req := jsonRequest(http.MethodPost, "/api/clients", `{"name":"Alice","user_id":"user-2"}`)
	w := httptest.NewRecorder()
	h.CreateClient(w, withClaim(req, "user-1", "owner@example.com"))

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusCreated)
	}
}

func TestClientHandler_CreateClient_ValidationErrors(t *testing.T) {
	long := func(n int) string {
		b := make([]byte, n)
		for i := range b {
			b[i] = 'x'
		}
		return string(b)
	}

	tests := []struct {
		name string
		body string
	}{
		{"missing name", `{"email":"a@example.com"}`},
		{"blank name", `{"name":"   "}`},
		{"name too long", `{"name":"` + long(256) + `"}`},
		{"invalid email", `{"name":"Alice","email":"nope"}`},
		{"phone too long", `{"name":"Alice","phone":"` + long(21) + `"}`},
		{"notes too long", `{"name":"Alice","notes":"` + long(1001) + `"}`},
		{"invalid json", `[1,2,3]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewClientHandler(&mockClientService{
				createFn: func(ctx context.Context, ownerID string, input model.ClientInput) (*model.Client, error) {
					t.Error("service should not be called for invalid input")
					return nil, nil
				},
			})

			w := httptest.NewRecorder()
			h.CreateClient(w, withClaim(jsonRequest(http.MethodPost, "/api/clients", tt.body), "user-1", "owner@example.com"))

			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
			}
		})
	}
}

func TestClientHandler_CreateClient_NoClaim_Returns401(t *testing.T) {
	h := NewClientHandler(&mockClientService{})

	w := httptest.NewRecorder()
	h.CreateClient(w, jsonRequest(http.MethodPost, "/api/clients", `{"name":"Alice"}`))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

// --- GET /api/clients ---

func TestClientHandler_ListClients_Params(t *testing.T) {
	tests := []struct {
		name         string
		query        string
		wantPage     int
		wantPageSize int
		wantSearch   string
	}{
		{"defaults", "", 1, client.DefaultPageSize, ""},
		{"explicit", "?page=2&page_size=5&search=alice", 2, 5, "alice"},
		{"limit alias", "?limit=7", 1, 7, ""},
		{"page_size wins over limit", "?page_size=3&limit=7", 1, 3, ""},
		{"non-positive passed through", "?page=0&page_size=-1", 0, -1, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockClientService{
				listFn: func(ctx context.Context, ownerID string, page, pageSize int, search string) (*model.ClientPage, error) {
					if ownerID != "user-1" {
						t.Errorf("ownerID = %q", ownerID)
					}
					if page != tt.wantPage || pageSize != tt.wantPageSize || search != tt.wantSearch {
						t.Errorf("List(%d, %d, %q), want (%d, %d, %q)",
							page, pageSize, search, tt.wantPage, tt.wantPageSize, tt.wantSearch)
					}
					return &model.ClientPage{Clients: []*model.Client{}, Page: 1, PageSize: 1}, nil
				},
			}
			h := NewClientHandler(svc)

			req := httptest.NewRequest(http.MethodGet, "/api/clients"+tt.query, nil)
			w := httptest.NewRecorder()
			h.ListClients(w, withClaim(req, "user-1", "owner@example.com"))

			if w.Code != http.StatusOK {
				t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
			}
		})
	}
}

func TestClientHandler_ListClients_NonIntegerParam_Returns400(t *testing.T) {
	for _, q := range []string{"?page=abc", "?page_size=1.5", "?limit=x"} {
		t.Run(q, func(t *testing.T) {
			h := NewClientHandler(&mockClientService{})

			req := httptest.NewRequest(http.MethodGet, "/api/clients"+q, nil)
			w := httptest.NewRecorder()
			h.ListClients(w, withClaim(req, "user-1", "owner@example.com"))

			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
			}
		})
	}
}

func TestClientHandler_ListClients_ResponseShape(t *testing.T) {
	svc := &mockClientService{
		listFn: func(ctx context.Context, ownerID string, page, pageSize int, search string) (*model.ClientPage, error) {
			return &model.ClientPage{
				Clients:  []*model.Client{sampleClient("client-1", ownerID)},
				Total:    25,
				Page:     3,
				PageSize: 10,
			}, nil
		},
	}
	h := NewClientHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/clients?page=3", nil)
	w := httptest.NewRecorder()
	h.ListClients(w, withClaim(req, "user-1", "owner@example.com"))

	var body struct {
		Data     []map[string]interface{} `json:"data"`
		Total    int                      `json:"total"`
		Page     int                      `json:"page"`
		PageSize int                      `json:"page_size"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(body.Data) != 1 || body.Total != 25 || body.Page != 3 || body.PageSize != 10 {
		t.Errorf("body = %+v", body)
	}
}

func TestClientHandler_ListClients_EmptyPage_EncodesEmptyArray(t *testing.T) {
	svc := &mockClientService{
		listFn: func(ctx context.Context, ownerID string, page, pageSize int, search string) (*model.ClientPage, error) {
			return &model.ClientPage{Clients: []*model.Client{}, Total: 25, Page: 999, PageSize: 10}, nil
		},
	}
	h := NewClientHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/clients?page=999", nil)
	w := httptest.NewRecorder()
	h.ListClients(w, withClaim(req, "user-1", "owner@example.com"))

	var raw map[string]json.RawMessage
	if err := json.NewDecoder(w.Body).Decode(&raw); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if string(raw["data"]) != "[]" {
		t.Errorf("data = %s, want []", raw["data"])
	}
	if string(raw["total"]) != "25" {
		t.Errorf("total = %s, want 25", raw["total"])
	}
}

// --- GET /api/clients/{id} ---

func TestClientHandler_GetClient_NotFound(t *testing.T) {
	svc := &mockClientService{
		getFn: func(ctx context.Context, ownerID, clientID string) (*model.Client, error) {
			if clientID != "client-9" {
				t.Errorf("clientID = %q, want %q", clientID, "client-9")
			}
			return nil, model.NewClientNotFoundError()
		},
	}
	h := NewClientHandler(svc)

	req := withChiURLParam(httptest.NewRequest(http.MethodGet, "/api/clients/client-9", nil), "id", "client-9")
	w := httptest.NewRecorder()
	h.GetClient(w, withClaim(req, "user-1", "owner@example.com"))

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
	if got := parseAPIErrorResponse(t, w)["code"]; got != model.ErrCodeClientNotFound {
		t.Errorf("code = %q, want %q", got, model.ErrCodeClientNotFound)
	}
}

// --- PATCH /api/clients/{id} ---

func TestClientHandler_UpdateClient_PartialPatch(t *testing.T) {
	svc := &mockClientService{
		updateFn: func(ctx context.Context, ownerID, clientID string, patch model.ClientPatch) (*model.Client, error) {
			if patch.Name != nil || patch.Email != nil {
				t.Errorf("absent fields should be nil: %+v", patch)
			}
			if patch.Phone == nil || *patch.Phone != "555-0100" {
				t.Errorf("Phone = %v, want 555-0100", patch.Phone)
			}
			if patch.Notes == nil || *patch.Notes != "" {
				t.Errorf("Notes = %v, want empty string to clear", patch.Notes)
			}
			c := sampleClient(clientID, ownerID)
			patch.Apply(c)
			return c, nil
		},
	}
	h := NewClientHandler(svc)

	req := jsonRequest(http.MethodPatch, "/api/clients/client-1", `{"phone":"555-0100","notes":""}`)
	req = withChiURLParam(req, "id", "client-1")
	w := httptest.NewRecorder()
	h.UpdateClient(w, withClaim(req, "user-1", "owner@example.com"))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d, body = %s", w.Code, http.StatusOK, w.Body.String())
	}
}

func TestClientHandler_UpdateClient_BlankName_Returns400(t *testing.T) {
	h := NewClientHandler(&mockClientService{})

	req := jsonRequest(http.MethodPatch, "/api/clients/client-1", `{"name":""}`)
	req = withChiURLParam(req, "id", "client-1")
	w := httptest.NewRecorder()
	h.UpdateClient(w, withClaim(req, "user-1", "owner@example.com"))

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

// --- DELETE /api/clients/{id} ---

func TestClientHandler_DeleteClient(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"success", nil, http.StatusNoContent},
		{"not found", model.NewClientNotFoundError(), http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockClientService{
				deleteFn: func(ctx context.Context, ownerID, clientID string) error {
					return tt.err
				},
			}
			h := NewClientHandler(svc)

			req := withChiURLParam(httptest.NewRequest(http.MethodDelete, "/api/clients/client-1", nil), "id", "client-1")
			w := httptest.NewRecorder()
			h.DeleteClient(w, withClaim(req, "user-1", "owner@example.com"))

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}
