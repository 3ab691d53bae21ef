// Package auth はパスワード認証とアクセストークンの発行・検証を提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/microcrm/internal/metrics"
	"github.com/hitoshi/microcrm/internal/model"
	"github.com/hitoshi/microcrm/internal/repository"
)

// TokenIssuer はアクセストークンの発行インターフェース。
type TokenIssuer interface {
	Issue(claim model.IdentityClaim) (string, error)
}

// LoginResult はログイン成功時の結果。
type LoginResult struct {
	AccessToken string
	User        model.PublicUser
}

// Service は登録・ログインに関するビジネスロジックを提供する。
type Service struct {
	userRepo repository.UserRepository
	hasher   PasswordHasher
	tokens   TokenIssuer
	recorder metrics.AuthRecorder

	now   func() time.Time
	newID func() string

	dummyOnce   sync.Once
	dummyDigest string
}

// NewService はServiceを生成する。recorderはnilでもよい。
func NewService(
	userRepo repository.UserRepository,
	hasher PasswordHasher,
	tokens TokenIssuer,
	recorder metrics.AuthRecorder,
) *Service {
	return &Service{
		userRepo: userRepo,
		hasher:   hasher,
		tokens:   tokens,
		recorder: recorder,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Register はユーザーを新規登録する。
// メールアドレスが既に存在する場合はDuplicateEmailエラーを返す。
// 同時登録による一意制約違反も同じエラーに変換する。
func (s *Service) Register(ctx context.Context, email, password string) (*model.PublicUser, error) {
	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		s.record(metrics.EventRegister, metrics.OutcomeError)
		return nil, fmt.Errorf("ユーザーの検索に失敗しました: %w", err)
	}
	if existing != nil {
		s.record(metrics.EventRegister, metrics.OutcomeDuplicateEmail)
		return nil, model.NewDuplicateEmailError()
	}

	digest, err := s.hasher.Hash(password)
	if errors.Is(err, ErrInvalidEncoding) {
		return nil, model.NewValidationError("パスワードに使用できない文字が含まれています")
	}
	if err != nil {
		s.record(metrics.EventRegister, metrics.OutcomeError)
		return nil, err
	}

	now := s.now()
	user := &model.User{
		ID:           s.newID(),
		Email:        email,
		PasswordHash: &digest,
		Provider:     model.ProviderLocal,
		Tier:         model.TierFree,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUniqueViolation) {
			s.record(metrics.EventRegister, metrics.OutcomeDuplicateEmail)
			return nil, model.NewDuplicateEmailError()
		}
		s.record(metrics.EventRegister, metrics.OutcomeError)
		return nil, fmt.Errorf("ユーザーの作成に失敗しました: %w", err)
	}

	slog.Info("user registered", slog.String("user_id", user.ID))
	s.record(metrics.EventRegister, metrics.OutcomeSuccess)

	public := user.Public()
	return &public, nil
}

// Login はメールアドレスとパスワードを照合し、アクセストークンを発行する。
// ユーザー不在・パスワード未設定・パスワード不一致はすべて同一のInvalidCredentialsエラーになる。
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		s.record(metrics.EventLogin, metrics.OutcomeError)
		return nil, fmt.Errorf("ユーザーの検索に失敗しました: %w", err)
	}

	if user == nil || user.PasswordHash == nil {
		// ユーザー不在時も照合を1回行い、応答時間を揃える
		s.hasher.Verify(password, s.dummyHash())
		s.record(metrics.EventLogin, metrics.OutcomeInvalidCredentials)
		return nil, model.NewInvalidCredentialsError()
	}

	if !s.hasher.Verify(password, *user.PasswordHash) {
		s.record(metrics.EventLogin, metrics.OutcomeInvalidCredentials)
		return nil, model.NewInvalidCredentialsError()
	}

	token, err := s.tokens.Issue(model.IdentityClaim{
		Subject: user.ID,
		Email:   user.Email,
	})
	if err != nil {
		s.record(metrics.EventLogin, metrics.OutcomeError)
		return nil, fmt.Errorf("アクセストークンの発行に失敗しました: %w", err)
	}

	s.record(metrics.EventLogin, metrics.OutcomeSuccess)
	return &LoginResult{
		AccessToken: token,
		User:        user.Public(),
	}, nil
}

// CurrentUser はトークンの主体に対応するユーザーをストアから再取得する。
// ユーザーが削除済みの場合はUnauthorizedエラーを返す。
func (s *Service) CurrentUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUnauthorizedError()
	}
	return user, nil
}

func (s *Service) dummyHash() string {
	s.dummyOnce.Do(func() {
		s.dummyDigest, _ = s.hasher.Hash("microcrm-timing-equalizer")
	})
	return s.dummyDigest
}

func (s *Service) record(event, outcome string) {
	if s.recorder != nil {
		s.recorder.RecordAuthEvent(event, outcome)
	}
}
