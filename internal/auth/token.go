package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hitoshi/microcrm/internal/model"
)

// トークン検証エラー。呼び出し側はerrors.Isで種別を判定する。
var (
	ErrTokenMalformed        = errors.New("token is malformed")
	ErrTokenExpired          = errors.New("token is expired")
	ErrTokenInvalidSignature = errors.New("token signature is invalid")
)

// DefaultTokenTTL はアクセストークンのデフォルト有効期間。
const DefaultTokenTTL = 15 * time.Minute

type tokenClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// TokenService はHS256署名のアクセストークンを発行・検証する。
// 署名鍵と有効期間は起動時に固定され、以後変更されない。
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService はTokenServiceを生成する。
// ttlが0以下の場合はDefaultTokenTTLを使用する。
func NewTokenService(secret string, ttl time.Duration) *TokenService {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenService{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue はクレームに有効期限を付与して署名し、コンパクト形式のトークンを返す。
func (s *TokenService) Issue(claim model.IdentityClaim) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		Email: claim.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   claim.Subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Validate はトークンの署名と有効期限を検証し、発行時のクレームを返す。
// 失敗時はErrTokenInvalidSignature、ErrTokenExpired、ErrTokenMalformedのいずれかを返す。
func (s *TokenService) Validate(tokenString string) (*model.IdentityClaim, error) {
	claims := &tokenClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) {
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrTokenInvalidSignature
		default:
			return nil, ErrTokenMalformed
		}
	}

	if claims.Subject == "" {
		return nil, ErrTokenMalformed
	}

	return &model.IdentityClaim{
		Subject: claims.Subject,
		Email:   claims.Email,
	}, nil
}

// TokenRejectionReason はトークン検証エラーをメトリクス・ログ用の理由ラベルに変換する。
func TokenRejectionReason(err error) string {
	switch {
	case errors.Is(err, ErrTokenExpired):
		return "expired"
	case errors.Is(err, ErrTokenInvalidSignature):
		return "invalid_signature"
	default:
		return "malformed"
	}
}
