package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/hitoshi/microcrm/internal/model"
	"github.com/hitoshi/microcrm/internal/security"
)

// 入力値の制約
const (
	maxBodyBytes      = 1 << 20
	minPasswordLength = 8
	maxNameLength     = 255
	maxEmailLength    = 255
	maxPhoneLength    = 20
	maxNotesLength    = 1000
)

// decodeJSONBody はリクエストボディをJSONとしてdstに読み込む。
// 未知のフィールドは無視する。
func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst interface{}) *model.APIError {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return model.NewInvalidRequestError()
	}
	return nil
}

// validateEmail はメールアドレスの形式と長さを検証する。
// 表示名付きの形式（"Name <a@example.com>"）は受け付けない。
func validateEmail(email string) *model.APIError {
	if email == "" {
		return model.NewValidationError("メールアドレスは必須です")
	}
	if len(email) > maxEmailLength {
		return model.NewValidationError(fmt.Sprintf("メールアドレスは%d文字以内で入力してください", maxEmailLength))
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email[strings.LastIndex(email, "@"):], ".") {
		return model.NewValidationError("メールアドレスの形式が正しくありません")
	}
	return nil
}

// validatePassword は登録時のパスワードを検証する。
func validatePassword(password string) *model.APIError {
	if !utf8.ValidString(password) {
		return model.NewValidationError("パスワードに使用できない文字が含まれています")
	}
	if utf8.RuneCountInString(password) < minPasswordLength {
		return model.NewValidationError(fmt.Sprintf("パスワードは%d文字以上で入力してください", minPasswordLength))
	}
	return nil
}

// clientFields は顧客の作成・更新リクエストで共通の入力項目。
type clientFields struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
	Phone *string `json:"phone"`
	Notes *string `json:"notes"`
}

// textSanitizer は自由入力項目からHTMLマークアップを除去する。
var textSanitizer = security.NewTextSanitizer()

// normalize は自由入力項目からマークアップを除去し、前後の空白を除去する。
func (f *clientFields) normalize() {
	for _, p := range []*string{f.Name, f.Phone, f.Notes} {
		if p != nil {
			*p = textSanitizer.StripMarkup(*p)
		}
	}
	for _, p := range []*string{f.Name, f.Email, f.Phone, f.Notes} {
		if p != nil {
			*p = strings.TrimSpace(*p)
		}
	}
}

// validate は顧客の入力項目を検証する。
// nameRequiredがtrueの場合（作成時）は名前を必須とする。
// 任意項目の空文字は未指定として扱う。
func (f *clientFields) validate(nameRequired bool) *model.APIError {
	if f.Name == nil {
		if nameRequired {
			return model.NewValidationError("顧客名は必須です")
		}
	} else {
		if *f.Name == "" {
			return model.NewValidationError("顧客名は必須です")
		}
		if utf8.RuneCountInString(*f.Name) > maxNameLength {
			return model.NewValidationError(fmt.Sprintf("顧客名は%d文字以内で入力してください", maxNameLength))
		}
	}

	if f.Email != nil && *f.Email != "" {
		if apiErr := validateEmail(*f.Email); apiErr != nil {
			return apiErr
		}
	}
	if f.Phone != nil && utf8.RuneCountInString(*f.Phone) > maxPhoneLength {
		return model.NewValidationError(fmt.Sprintf("電話番号は%d文字以内で入力してください", maxPhoneLength))
	}
	if f.Notes != nil && utf8.RuneCountInString(*f.Notes) > maxNotesLength {
		return model.NewValidationError(fmt.Sprintf("メモは%d文字以内で入力してください", maxNotesLength))
	}
	return nil
}

// toInput は作成用の入力値に変換する。任意項目の空文字はnilにする。
func (f *clientFields) toInput() model.ClientInput {
	input := model.ClientInput{
		Email: nonEmpty(f.Email),
		Phone: nonEmpty(f.Phone),
		Notes: nonEmpty(f.Notes),
	}
	if f.Name != nil {
		input.Name = *f.Name
	}
	return input
}

// toPatch は部分更新用のパッチに変換する。
func (f *clientFields) toPatch() model.ClientPatch {
	return model.ClientPatch{
		Name:  f.Name,
		Email: f.Email,
		Phone: f.Phone,
		Notes: f.Notes,
	}
}

func nonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
