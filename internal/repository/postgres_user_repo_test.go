package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"

	"github.com/hitoshi/microcrm/internal/model"
)

func newMockDB(t *testing.T) (*PostgresUserRepo, *PostgresClientRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New err: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})
	return NewPostgresUserRepo(db), NewPostgresClientRepo(db), mock
}

var userRowColumns = []string{"id", "email", "password_hash", "provider", "tier", "created_at", "updated_at"}

func TestPostgresUserRepo_FindByEmail_Found(t *testing.T) {
	repo, _, mock := newMockDB(t)
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email = $1")).
		WithArgs("alice@example.com").
		WillReturnRows(sqlmock.NewRows(userRowColumns).
			AddRow("user-1", "alice@example.com", "$2a$10$hash", "local", "pro", now, now))

	user, err := repo.FindByEmail(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("FindByEmail returned error: %v", err)
	}
	if user == nil {
		t.Fatal("expected user, got nil")
	}
	if user.ID != "user-1" {
		t.Errorf("ID = %q, want %q", user.ID, "user-1")
	}
	if user.PasswordHash == nil || *user.PasswordHash != "$2a$10$hash" {
		t.Errorf("PasswordHash = %v, want %q", user.PasswordHash, "$2a$10$hash")
	}
	if user.Tier != model.TierPro {
		t.Errorf("Tier = %q, want %q", user.Tier, model.TierPro)
	}
	if user.Provider != model.ProviderLocal {
		t.Errorf("Provider = %q, want %q", user.Provider, model.ProviderLocal)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresUserRepo_FindByEmail_NullPasswordHash(t *testing.T) {
	repo, _, mock := newMockDB(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email = $1")).
		WithArgs("oauth@example.com").
		WillReturnRows(sqlmock.NewRows(userRowColumns).
			AddRow("user-2", "oauth@example.com", nil, "google", "free", now, now))

	user, err := repo.FindByEmail(context.Background(), "oauth@example.com")
	if err != nil {
		t.Fatalf("FindByEmail returned error: %v", err)
	}
	if user.PasswordHash != nil {
		t.Errorf("PasswordHash = %q, want nil", *user.PasswordHash)
	}
}

func TestPostgresUserRepo_FindByEmail_NotFound(t *testing.T) {
	repo, _, mock := newMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email = $1")).
		WithArgs("nobody@example.com").
		WillReturnRows(sqlmock.NewRows(userRowColumns))

	user, err := repo.FindByEmail(context.Background(), "nobody@example.com")
	if err != nil {
		t.Fatalf("FindByEmail returned error: %v", err)
	}
	if user != nil {
		t.Errorf("expected nil user, got %+v", user)
	}
}

func TestPostgresUserRepo_FindByID_QueryError(t *testing.T) {
	repo, _, mock := newMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = $1")).
		WithArgs("user-1").
		WillReturnError(errors.New("connection reset"))

	if _, err := repo.FindByID(context.Background(), "user-1"); err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestPostgresUserRepo_Create(t *testing.T) {
	repo, _, mock := newMockDB(t)
	hash := "$2a$10$hash"
	now := time.Now()
	user := &model.User{
		ID:           "user-1",
		Email:        "alice@example.com",
		PasswordHash: &hash,
		Provider:     model.ProviderLocal,
		Tier:         model.TierFree,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WithArgs("user-1", "alice@example.com", hash, "local", "free", now, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

// TestPostgresUserRepo_Create_UniqueViolation は一意制約違反がErrUniqueViolationに変換されることを検証する。
func TestPostgresUserRepo_Create_UniqueViolation(t *testing.T) {
	repo, _, mock := newMockDB(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "uq_users_email"})

	err := repo.Create(context.Background(), &model.User{ID: "user-1", Email: "dup@example.com"})
	if !errors.Is(err, ErrUniqueViolation) {
		t.Errorf("err = %v, want ErrUniqueViolation", err)
	}
}

func TestPostgresUserRepo_Create_OtherError(t *testing.T) {
	repo, _, mock := newMockDB(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnError(&pq.Error{Code: "23514"})

	err := repo.Create(context.Background(), &model.User{ID: "user-1", Email: "a@example.com"})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if errors.Is(err, ErrUniqueViolation) {
		t.Error("check violation must not be reported as unique violation")
	}
}
