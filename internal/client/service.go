// Package client は所有者単位でスコープされた顧客レコードの操作を提供する。
package client

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/microcrm/internal/model"
	"github.com/hitoshi/microcrm/internal/repository"
)

// DefaultPageSize は一覧取得時のデフォルト件数。
const DefaultPageSize = 10

// Service は顧客に関するビジネスロジックを提供する。
// すべての操作は呼び出し元ユーザーIDで絞り込まれ、他ユーザーの顧客は存在しないものとして扱う。
type Service struct {
	clientRepo repository.ClientRepository

	now   func() time.Time
	newID func() string
}

// NewService はServiceを生成する。
func NewService(clientRepo repository.ClientRepository) *Service {
	return &Service{
		clientRepo: clientRepo,
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

// Create は呼び出し元ユーザーを所有者として顧客を作成する。
func (s *Service) Create(ctx context.Context, ownerID string, input model.ClientInput) (*model.Client, error) {
	now := s.now()
	c := &model.Client{
		ID:        s.newID(),
		Name:      input.Name,
		Email:     input.Email,
		Phone:     input.Phone,
		Notes:     input.Notes,
		UserID:    ownerID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.clientRepo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("顧客の作成に失敗しました: %w", err)
	}
	return c, nil
}

// Get は呼び出し元ユーザーが所有する顧客を取得する。
// 存在しない場合も他ユーザーの所有である場合もClientNotFoundエラーを返す。
func (s *Service) Get(ctx context.Context, ownerID, clientID string) (*model.Client, error) {
	if !isValidID(clientID) {
		return nil, model.NewClientNotFoundError()
	}

	c, err := s.clientRepo.FindByIDAndOwner(ctx, clientID, ownerID)
	if err != nil {
		return nil, fmt.Errorf("顧客の取得に失敗しました: %w", err)
	}
	if c == nil {
		return nil, model.NewClientNotFoundError()
	}
	return c, nil
}

// Update は呼び出し元ユーザーが所有する顧客を部分更新する。
// パッチで指定されなかったフィールドは変更しない。
func (s *Service) Update(ctx context.Context, ownerID, clientID string, patch model.ClientPatch) (*model.Client, error) {
	c, err := s.Get(ctx, ownerID, clientID)
	if err != nil {
		return nil, err
	}

	patch.Apply(c)
	c.UpdatedAt = s.now()

	updated, err := s.clientRepo.Update(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("顧客の更新に失敗しました: %w", err)
	}
	if !updated {
		// 取得後に削除された
		return nil, model.NewClientNotFoundError()
	}
	return c, nil
}

// Delete は呼び出し元ユーザーが所有する顧客を削除する。
func (s *Service) Delete(ctx context.Context, ownerID, clientID string) error {
	if !isValidID(clientID) {
		return model.NewClientNotFoundError()
	}

	deleted, err := s.clientRepo.DeleteByIDAndOwner(ctx, clientID, ownerID)
	if err != nil {
		return fmt.Errorf("顧客の削除に失敗しました: %w", err)
	}
	if !deleted {
		return model.NewClientNotFoundError()
	}
	return nil
}

// List は呼び出し元ユーザーの顧客を1ページ分取得する。
// page・pageSizeが1未満の場合は1として扱う。pageSizeに上限は設けない。
// searchは前後の空白を除いた上で、空でなければ名前の部分一致で絞り込む。
// 空白のみのsearchは絞り込みなしとして扱う。
func (s *Service) List(ctx context.Context, ownerID string, page, pageSize int, search string) (*model.ClientPage, error) {
	page, pageSize = normalizePaging(page, pageSize)
	search = strings.TrimSpace(search)

	offset := (page - 1) * pageSize
	clients, total, err := s.clientRepo.ListByOwner(ctx, ownerID, search, pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("顧客一覧の取得に失敗しました: %w", err)
	}
	if clients == nil {
		clients = []*model.Client{}
	}

	return &model.ClientPage{
		Clients:  clients,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

func normalizePaging(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 1
	}
	return page, pageSize
}

func isValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
