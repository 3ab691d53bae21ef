package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

const healthCheckTimeout = 2 * time.Second

// DBPinger はデータベースの疎通確認インターフェース。*sql.DBが満たす。
type DBPinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler はヘルスチェックとルートエンドポイントのHTTPハンドラー。
type HealthHandler struct {
	db      DBPinger
	version string
	now     func() time.Time
}

// NewHealthHandler はHealthHandlerを生成する。
func NewHealthHandler(db DBPinger, version string) *HealthHandler {
	return &HealthHandler{
		db:      db,
		version: version,
		now:     time.Now,
	}
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Database  string    `json:"database"`
	Version   string    `json:"version"`
}

// Health はAPIとデータベース接続の状態を返す。
// データベースに接続できない場合は503を返す。
// GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	resp := healthResponse{
		Status:    "ok",
		Timestamp: h.now().UTC(),
		Database:  "connected",
		Version:   h.version,
	}
	status := http.StatusOK

	if err := h.db.PingContext(ctx); err != nil {
		slog.Error("health check: database ping failed", slog.String("error", err.Error()))
		resp.Status = "error"
		resp.Database = "disconnected"
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, resp)
}

// Root はAPIのルートエンドポイント。
// GET /
func (h *HealthHandler) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Welcome to the microcrm API",
		"version": h.version,
	})
}
