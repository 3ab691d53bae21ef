// Package seed は開発用のサンプルデータ投入を提供する。
package seed

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/microcrm/internal/auth"
	"github.com/hitoshi/microcrm/internal/config"
	"github.com/hitoshi/microcrm/internal/model"
	"github.com/hitoshi/microcrm/internal/repository"
)

// DefaultPassword は投入する全ユーザー共通のパスワード。
const DefaultPassword = "Password123!"

// ErrUnsafeEnvironment は本番環境と判断される場合にシードを拒否するエラー。
var ErrUnsafeEnvironment = errors.New("seeding is not allowed in this environment")

// 本番データベースと判断するデータベース名の部分文字列
var dangerousDatabaseNames = []string{"production", "prod", "live"}

// CheckEnvironment はシードを実行してよい環境かどうかを検証する。
// APP_ENVがproductionの場合、またはデータベース名に本番を示す語が含まれる場合はエラーを返す。
func CheckEnvironment(appEnv, databaseName string) error {
	if strings.EqualFold(appEnv, config.EnvProduction) {
		return fmt.Errorf("%w: APP_ENV is %q", ErrUnsafeEnvironment, appEnv)
	}
	lower := strings.ToLower(databaseName)
	for _, name := range dangerousDatabaseNames {
		if strings.Contains(lower, name) {
			return fmt.Errorf("%w: database name %q looks like a production database", ErrUnsafeEnvironment, databaseName)
		}
	}
	return nil
}

// Execer はテーブルの初期化に使うSQL実行インターフェース。*sql.DBが満たす。
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Options はシードの件数設定。
type Options struct {
	Users          int
	ClientsPerUser int
}

// Summary はシード結果の概要。
type Summary struct {
	Users   []model.PublicUser
	Clients int
}

// Seeder はユーザーと顧客のサンプルデータを投入する。
type Seeder struct {
	db      Execer
	users   repository.UserRepository
	clients repository.ClientRepository
	hasher  auth.PasswordHasher
	rng     *rand.Rand
	now     func() time.Time
	newID   func() string
}

// NewSeeder はSeederを生成する。同じseedからは同じデータが生成される。
func NewSeeder(
	db Execer,
	users repository.UserRepository,
	clients repository.ClientRepository,
	hasher auth.PasswordHasher,
	seed uint64,
) *Seeder {
	return &Seeder{
		db:      db,
		users:   users,
		clients: clients,
		hasher:  hasher,
		rng:     rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// Run は既存のusers/clientsを全削除したうえでサンプルデータを投入する。
// ログにはメールアドレスと件数のみを出力し、パスワードやハッシュは出力しない。
func (s *Seeder) Run(ctx context.Context, opts Options) (*Summary, error) {
	if opts.Users < 1 {
		return nil, fmt.Errorf("number of users must be positive: %d", opts.Users)
	}
	if opts.ClientsPerUser < 0 {
		return nil, fmt.Errorf("number of clients per user must not be negative: %d", opts.ClientsPerUser)
	}

	if _, err := s.db.ExecContext(ctx, "TRUNCATE TABLE clients, users CASCADE"); err != nil {
		return nil, fmt.Errorf("failed to truncate tables: %w", err)
	}
	slog.Info("existing data cleared")

	digest, err := s.hasher.Hash(DefaultPassword)
	if err != nil {
		return nil, fmt.Errorf("failed to hash seed password: %w", err)
	}

	summary := &Summary{Users: make([]model.PublicUser, 0, opts.Users)}
	base := s.now()

	for i := 0; i < opts.Users; i++ {
		user := s.fakeUser(i, digest, base)
		if err := s.users.Create(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to create seed user %s: %w", user.Email, err)
		}
		summary.Users = append(summary.Users, user.Public())

		for j := 0; j < opts.ClientsPerUser; j++ {
			// 一覧の並び順が安定するよう作成日時を1秒ずつずらす
			c := s.fakeClient(user.ID, base.Add(-time.Duration(j)*time.Second))
			if err := s.clients.Create(ctx, c); err != nil {
				return nil, fmt.Errorf("failed to create seed client for %s: %w", user.Email, err)
			}
			summary.Clients++
		}

		slog.Info("seed user created",
			slog.String("email", user.Email),
			slog.String("tier", string(user.Tier)),
			slog.Int("clients", opts.ClientsPerUser),
		)
	}

	slog.Info("seeding completed",
		slog.Int("users", len(summary.Users)),
		slog.Int("clients", summary.Clients),
	)
	return summary, nil
}

func (s *Seeder) fakeUser(index int, digest string, now time.Time) *model.User {
	first := s.pick(firstNames)
	last := s.pick(lastNames)
	tier := model.TierFree
	if s.rng.IntN(2) == 1 {
		tier = model.TierPro
	}

	// インデックスを含めてメールアドレスの重複を避ける
	email := fmt.Sprintf("%s.%s%d@example.com", strings.ToLower(first), strings.ToLower(last), index+1)

	return &model.User{
		ID:           s.newID(),
		Email:        email,
		PasswordHash: &digest,
		Provider:     model.ProviderLocal,
		Tier:         tier,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func (s *Seeder) fakeClient(ownerID string, createdAt time.Time) *model.Client {
	first := s.pick(firstNames)
	last := s.pick(lastNames)

	c := &model.Client{
		ID:        s.newID(),
		Name:      first + " " + last,
		UserID:    ownerID,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	if s.maybe(0.8) {
		email := fmt.Sprintf("%s.%s@%s", strings.ToLower(first), strings.ToLower(last), s.pick(emailDomains))
		c.Email = &email
	}
	if s.maybe(0.7) {
		phone := fmt.Sprintf("555-%04d", s.rng.IntN(10000))
		c.Phone = &phone
	}
	if s.maybe(0.5) {
		notes := s.pick(noteSentences)
		c.Notes = &notes
	}
	return c
}

func (s *Seeder) pick(values []string) string {
	return values[s.rng.IntN(len(values))]
}

func (s *Seeder) maybe(probability float64) bool {
	return s.rng.Float64() < probability
}
