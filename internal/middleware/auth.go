// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"unicode"

	"github.com/hitoshi/microcrm/internal/auth"
	"github.com/hitoshi/microcrm/internal/metrics"
	"github.com/hitoshi/microcrm/internal/model"
)

const bearerPrefix = "Bearer "

// トークン拒否理由（ヘッダー形式の不備）。
// 署名・期限・形式の検証失敗はauth.TokenRejectionReasonの値を使う。
const (
	reasonMissingHeader   = "missing_header"
	reasonInvalidScheme   = "invalid_scheme"
	reasonMalformedHeader = "malformed_header"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// claimContextKey はリクエストコンテキストに検証済みクレームを格納するためのキー。
var claimContextKey = contextKey("identity_claim")

// TokenValidator はアクセストークンの検証インターフェース。
type TokenValidator interface {
	Validate(token string) (*model.IdentityClaim, error)
}

// NewAuthMiddleware はAuthorizationヘッダーのBearerトークンを検証するミドルウェアを返す。
// 検証に成功した場合のみ、クレームをリクエストコンテキストに注入して次のハンドラーを呼ぶ。
// 失敗理由はログとメトリクスにのみ記録し、レスポンスは常に同一の401とする。
// recorderはnilでもよい。
func NewAuthMiddleware(validator TokenValidator, recorder metrics.TokenRejectionRecorder) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, reason := extractBearerToken(r.Header.Get("Authorization"))
			if reason != "" {
				rejectUnauthorized(w, r, recorder, reason)
				return
			}

			claim, err := validator.Validate(token)
			if err != nil {
				rejectUnauthorized(w, r, recorder, auth.TokenRejectionReason(err))
				return
			}

			if st := requestStateFromContext(r.Context()); st != nil {
				st.userID = claim.Subject
			}

			next.ServeHTTP(w, r.WithContext(ContextWithClaim(r.Context(), claim)))
		})
	}
}

// extractBearerToken は"Bearer <token>"形式のヘッダー値からトークンを取り出す。
// 形式が不正な場合は拒否理由を返す。
func extractBearerToken(header string) (string, string) {
	if header == "" {
		return "", reasonMissingHeader
	}
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", reasonInvalidScheme
	}
	token := header[len(bearerPrefix):]
	if token == "" || strings.IndexFunc(token, unicode.IsSpace) >= 0 {
		return "", reasonMalformedHeader
	}
	return token, ""
}

func rejectUnauthorized(w http.ResponseWriter, r *http.Request, recorder metrics.TokenRejectionRecorder, reason string) {
	slog.Warn("access token rejected",
		slog.String("reason", reason),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	)
	if recorder != nil {
		recorder.RecordTokenRejection(reason)
	}
	w.Header().Set("WWW-Authenticate", `Bearer realm="microcrm"`)
	WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
}

// ClaimFromContext はリクエストコンテキストから検証済みクレームを取得する。
// 認証ミドルウェアを通過したリクエストでのみ有効。
func ClaimFromContext(ctx context.Context) (*model.IdentityClaim, bool) {
	claim, ok := ctx.Value(claimContextKey).(*model.IdentityClaim)
	return claim, ok && claim != nil
}

// UserIDFromContext はリクエストコンテキストからユーザーIDを取得する。
func UserIDFromContext(ctx context.Context) (string, error) {
	claim, ok := ClaimFromContext(ctx)
	if !ok || claim.Subject == "" {
		return "", fmt.Errorf("user ID not found in context")
	}
	return claim.Subject, nil
}

// ContextWithClaim はコンテキストにクレームを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithClaim(ctx context.Context, claim *model.IdentityClaim) context.Context {
	return context.WithValue(ctx, claimContextKey, claim)
}
