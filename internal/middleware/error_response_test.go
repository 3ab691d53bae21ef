package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hitoshi/microcrm/internal/model"
)

func decodeErrorBody(t *testing.T, w *httptest.ResponseRecorder) ErrorResponseBody {
	t.Helper()
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	var body ErrorResponseBody
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	return body
}

// TestErrorResponse_GuardRejection はガードが拒否したリクエストに401とUNAUTHORIZEDを返すことを検証する。
func TestErrorResponse_GuardRejection(t *testing.T) {
	called := false
	handler := NewAuthMiddleware(acceptToken("good-token"), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/clients", nil)
	req.Header.Set("Authorization", "Bearer forged-token")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if called {
		t.Fatal("protected handler must not run for a rejected token")
	}
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
	if got := w.Header().Get("WWW-Authenticate"); !strings.HasPrefix(got, "Bearer") {
		t.Errorf("WWW-Authenticate = %q, want Bearer challenge", got)
	}

	body := decodeErrorBody(t, w)
	if body != (ErrorResponseBody(*model.NewUnauthorizedError())) {
		t.Errorf("body = %+v, want %+v", body, *model.NewUnauthorizedError())
	}
}

// TestErrorResponse_ClientErrors は顧客・認証系のAPIErrorがステータスとともにそのまま書き出されることを検証する。
func TestErrorResponse_ClientErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		apiErr   *model.APIError
		code     string
		category string
	}{
		{"他ユーザーの顧客", http.StatusNotFound, model.NewClientNotFoundError(), model.ErrCodeClientNotFound, "client"},
		{"メールアドレス重複", http.StatusConflict, model.NewDuplicateEmailError(), model.ErrCodeDuplicateEmail, "auth"},
		{"認証情報不一致", http.StatusUnauthorized, model.NewInvalidCredentialsError(), model.ErrCodeInvalidCredentials, "auth"},
		{"名前未入力", http.StatusBadRequest, model.NewValidationError("nameは必須です"), model.ErrCodeValidation, "validation"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteErrorResponse(w, tt.status, tt.apiErr)

			if w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}
			body := decodeErrorBody(t, w)
			if body.Code != tt.code || body.Category != tt.category {
				t.Errorf("code/category = %q/%q, want %q/%q", body.Code, body.Category, tt.code, tt.category)
			}
			if body.Message != tt.apiErr.Message || body.Action == "" {
				t.Errorf("body = %+v", body)
			}
		})
	}
}

// TestErrorResponse_ValidationReasonInMessage は検証エラーの理由がメッセージに含まれることを検証する。
func TestErrorResponse_ValidationReasonInMessage(t *testing.T) {
	w := httptest.NewRecorder()
	WriteErrorResponse(w, http.StatusBadRequest, model.NewValidationError("phoneは20文字以内で入力してください"))

	body := decodeErrorBody(t, w)
	if !strings.Contains(body.Message, "phoneは20文字以内") {
		t.Errorf("message = %q, want reason included", body.Message)
	}
}

// TestWriteInternalServerError_NoDetails は内部エラーが汎用メッセージのみを返すことを検証する。
func TestWriteInternalServerError_NoDetails(t *testing.T) {
	w := httptest.NewRecorder()
	WriteInternalServerError(w)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &raw); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if len(raw) != 4 {
		t.Errorf("fields = %v, want exactly code/message/category/action", raw)
	}
	if raw["code"] != model.ErrCodeInternal || raw["category"] != "system" {
		t.Errorf("body = %v", raw)
	}
}
