// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/microcrm/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByEmail はメールアドレスの完全一致でユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// Create はユーザーを作成する。
	// メールアドレスが既に存在する場合はErrUniqueViolationを返す。
	Create(ctx context.Context, user *model.User) error
}

// ClientRepository は顧客データの永続化インターフェース。
// 単一レコードを扱う操作は必ずIDと所有者IDの両方で絞り込む。
type ClientRepository interface {
	// Create は顧客を作成する。
	Create(ctx context.Context, client *model.Client) error

	// FindByIDAndOwner はIDと所有者IDに一致する顧客を取得する。見つからない場合はnilを返す。
	FindByIDAndOwner(ctx context.Context, id, ownerID string) (*model.Client, error)

	// Update は所有者IDが一致する顧客を上書き更新する。
	// 対象が存在しない場合はfalseを返す。
	Update(ctx context.Context, client *model.Client) (bool, error)

	// DeleteByIDAndOwner はIDと所有者IDに一致する顧客を削除する。
	// 対象が存在しない場合はfalseを返す。
	DeleteByIDAndOwner(ctx context.Context, id, ownerID string) (bool, error)

	// ListByOwner は所有者の顧客を作成日時の降順で取得する。
	// searchが空でない場合は名前の部分一致（大文字小文字を区別しない）で絞り込む。
	// 戻り値のtotalはlimit/offsetを適用する前の件数。
	ListByOwner(ctx context.Context, ownerID, search string, limit, offset int) ([]*model.Client, int, error)
}
