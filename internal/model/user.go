// Package model はドメインモデルを定義する。
package model

import "time"

// SubscriptionTier はユーザーの契約プランを表す。
type SubscriptionTier string

const (
	// TierFree は最下位の無料プラン。新規登録時のデフォルト。
	TierFree SubscriptionTier = "free"
	// TierPro は上位の有料プラン。
	TierPro SubscriptionTier = "pro"
)

// AuthProvider はユーザーの認証方式を表す。
type AuthProvider string

const (
	// ProviderLocal はメールアドレスとパスワードによるローカル認証。
	ProviderLocal AuthProvider = "local"
	// ProviderGoogle は外部IdPによる認証。ローカルパスワードを持たない。
	ProviderGoogle AuthProvider = "google"
)

// User はサービス利用ユーザーを表す。
// PasswordHashがnilの場合は外部認証のアカウントであり、パスワードログインはできない。
type User struct {
	ID           string
	Email        string
	PasswordHash *string
	Provider     AuthProvider
	Tier         SubscriptionTier
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PublicUser はAPIレスポンスに含めてよいユーザー情報の射影。
// パスワードハッシュは含まない。
type PublicUser struct {
	ID    string           `json:"id"`
	Email string           `json:"email"`
	Tier  SubscriptionTier `json:"tier"`
}

// Public はUserからPublicUserを生成する。
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:    u.ID,
		Email: u.Email,
		Tier:  u.Tier,
	}
}

// IdentityClaim は検証済みアクセストークンから復元した呼び出し元の識別情報。
// 永続化されず、1リクエストの間だけ有効。
type IdentityClaim struct {
	Subject string
	Email   string
}
