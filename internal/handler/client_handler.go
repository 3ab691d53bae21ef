package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/microcrm/internal/client"
	"github.com/hitoshi/microcrm/internal/middleware"
	"github.com/hitoshi/microcrm/internal/model"
)

// ClientServiceInterface は顧客ハンドラーが必要とするサービスインターフェース。
type ClientServiceInterface interface {
	Create(ctx context.Context, ownerID string, input model.ClientInput) (*model.Client, error)
	Get(ctx context.Context, ownerID, clientID string) (*model.Client, error)
	Update(ctx context.Context, ownerID, clientID string, patch model.ClientPatch) (*model.Client, error)
	Delete(ctx context.Context, ownerID, clientID string) error
	List(ctx context.Context, ownerID string, page, pageSize int, search string) (*model.ClientPage, error)
}

// ClientHandler は顧客管理のHTTPハンドラー。
type ClientHandler struct {
	service ClientServiceInterface
}

// NewClientHandler はClientHandlerを生成する。
func NewClientHandler(service ClientServiceInterface) *ClientHandler {
	return &ClientHandler{service: service}
}

// clientResponse は顧客情報のAPIレスポンス。
type clientResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     *string   `json:"email"`
	Phone     *string   `json:"phone"`
	Notes     *string   `json:"notes"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// clientListResponse は顧客一覧のAPIレスポンス。
type clientListResponse struct {
	Data     []clientResponse `json:"data"`
	Total    int              `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
}

func toClientResponse(c *model.Client) clientResponse {
	return clientResponse{
		ID:        c.ID,
		Name:      c.Name,
		Email:     c.Email,
		Phone:     c.Phone,
		Notes:     c.Notes,
		UserID:    c.UserID,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// requireUserID はコンテキストから呼び出し元ユーザーIDを取得する。
// 取得できない場合は401を書き込んでfalseを返す。
func requireUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return "", false
	}
	return userID, true
}

// CreateClient は顧客を作成する。所有者は常に呼び出し元ユーザーになる。
// POST /api/clients
func (h *ClientHandler) CreateClient(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req clientFields
	if apiErr := decodeJSONBody(w, r, &req); apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}
	req.normalize()
	if apiErr := req.validate(true); apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	c, err := h.service.Create(r.Context(), userID, req.toInput())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toClientResponse(c))
}

// ListClients は呼び出し元ユーザーの顧客一覧を返す。
// GET /api/clients?page=1&page_size=10&search=xxx
// page_sizeの代わりにlimitも受け付ける。
func (h *ClientHandler) ListClients(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	page, err := parseIntParam(q.Get("page"), 1)
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("pageは整数で指定してください"))
		return
	}
	sizeParam := q.Get("page_size")
	if sizeParam == "" {
		sizeParam = q.Get("limit")
	}
	pageSize, err := parseIntParam(sizeParam, client.DefaultPageSize)
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("page_sizeは整数で指定してください"))
		return
	}

	result, err := h.service.List(r.Context(), userID, page, pageSize, q.Get("search"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	data := make([]clientResponse, len(result.Clients))
	for i, c := range result.Clients {
		data[i] = toClientResponse(c)
	}

	writeJSON(w, http.StatusOK, clientListResponse{
		Data:     data,
		Total:    result.Total,
		Page:     result.Page,
		PageSize: result.PageSize,
	})
}

// GetClient は顧客詳細を返す。
// GET /api/clients/{id}
func (h *ClientHandler) GetClient(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	c, err := h.service.Get(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toClientResponse(c))
}

// UpdateClient は顧客を部分更新する。
// PATCH /api/clients/{id}
func (h *ClientHandler) UpdateClient(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req clientFields
	if apiErr := decodeJSONBody(w, r, &req); apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}
	req.normalize()
	if apiErr := req.validate(false); apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	c, err := h.service.Update(r.Context(), userID, chi.URLParam(r, "id"), req.toPatch())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toClientResponse(c))
}

// DeleteClient は顧客を削除する。
// DELETE /api/clients/{id}
func (h *ClientHandler) DeleteClient(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// parseIntParam はクエリパラメータを整数に変換する。空の場合はdefaultValを返す。
func parseIntParam(s string, defaultVal int) (int, error) {
	if s == "" {
		return defaultVal, nil
	}
	return strconv.Atoi(s)
}
