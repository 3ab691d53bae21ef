package auth

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidEncoding は平文パスワードが有効なUTF-8でない場合のエラー。
var ErrInvalidEncoding = errors.New("password is not valid UTF-8")

// DefaultBcryptCost はbcryptのデフォルト作業係数。
const DefaultBcryptCost = 10

// PasswordHasher はパスワードのハッシュ化と照合のインターフェース。
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
}

// BcryptHasher はbcryptを使用したPasswordHasherの実装。
// ダイジェストはソルトと作業係数を含む自己記述形式（$2a$...）。
// bcryptは入力の先頭72バイトしか使わないため、平文はSHA-256で固定長に変換してから渡す。
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher はBcryptHasherを生成する。
// costがbcryptの許容範囲外の場合は範囲内に丸める。
func NewBcryptHasher(cost int) *BcryptHasher {
	switch {
	case cost < bcrypt.MinCost:
		cost = bcrypt.MinCost
	case cost > bcrypt.MaxCost:
		cost = bcrypt.MaxCost
	}
	return &BcryptHasher{cost: cost}
}

// Hash は平文パスワードからソルト付きダイジェストを生成する。
// 同じ平文でも呼び出しごとに異なるダイジェストになる。
func (h *BcryptHasher) Hash(plaintext string) (string, error) {
	if !utf8.ValidString(plaintext) {
		return "", ErrInvalidEncoding
	}
	digest, err := bcrypt.GenerateFromPassword(prehash(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(digest), nil
}

// Verify は平文とダイジェストを定数時間で照合する。
// ダイジェストが不正な形式の場合もエラーにせずfalseを返す。
func (h *BcryptHasher) Verify(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), prehash(plaintext)) == nil
}

// prehash は平文をSHA-256のbase64表現（44バイト）に変換する。
// 生のダイジェストはNULバイトを含みうるためbase64で文字列化する。
func prehash(plaintext string) []byte {
	sum := sha256.Sum256([]byte(plaintext))
	out := make([]byte, base64.StdEncoding.EncodedLen(len(sum)))
	base64.StdEncoding.Encode(out, sum[:])
	return out
}

var _ PasswordHasher = (*BcryptHasher)(nil)
