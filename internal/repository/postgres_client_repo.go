package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hitoshi/microcrm/internal/model"
)

const clientColumns = `id, name, email, phone, notes, user_id, created_at, updated_at`

// PostgresClientRepo はPostgreSQLを使用した顧客リポジトリ。
type PostgresClientRepo struct {
	db *sql.DB
}

// NewPostgresClientRepo はPostgresClientRepoを生成する。
func NewPostgresClientRepo(db *sql.DB) *PostgresClientRepo {
	return &PostgresClientRepo{db: db}
}

// Create は顧客を作成する。
func (r *PostgresClientRepo) Create(ctx context.Context, client *model.Client) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO clients (id, name, email, phone, notes, user_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		client.ID, client.Name, nullString(client.Email), nullString(client.Phone),
		nullString(client.Notes), client.UserID, client.CreatedAt, client.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("顧客の作成に失敗しました: %w", err)
	}
	return nil
}

// FindByIDAndOwner はIDと所有者IDに一致する顧客を取得する。見つからない場合はnilを返す。
func (r *PostgresClientRepo) FindByIDAndOwner(ctx context.Context, id, ownerID string) (*model.Client, error) {
	client, err := scanClient(r.db.QueryRowContext(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE id = $1 AND user_id = $2`,
		id, ownerID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("顧客の取得に失敗しました: %w", err)
	}
	return client, nil
}

// Update は所有者IDが一致する顧客を上書き更新する。
func (r *PostgresClientRepo) Update(ctx context.Context, client *model.Client) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE clients SET name = $1, email = $2, phone = $3, notes = $4, updated_at = $5
		 WHERE id = $6 AND user_id = $7`,
		client.Name, nullString(client.Email), nullString(client.Phone), nullString(client.Notes),
		client.UpdatedAt, client.ID, client.UserID,
	)
	if err != nil {
		return false, fmt.Errorf("顧客の更新に失敗しました: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n > 0, nil
}

// DeleteByIDAndOwner はIDと所有者IDに一致する顧客を削除する。
func (r *PostgresClientRepo) DeleteByIDAndOwner(ctx context.Context, id, ownerID string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM clients WHERE id = $1 AND user_id = $2`,
		id, ownerID,
	)
	if err != nil {
		return false, fmt.Errorf("顧客の削除に失敗しました: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n > 0, nil
}

// ListByOwner は所有者の顧客を作成日時の降順で取得する。
// 同一時刻の行はIDの降順で並べ、ページ間で順序が安定するようにする。
func (r *PostgresClientRepo) ListByOwner(ctx context.Context, ownerID, search string, limit, offset int) ([]*model.Client, int, error) {
	where := ` WHERE user_id = $1`
	args := []interface{}{ownerID}
	argIndex := 2

	if search != "" {
		where += fmt.Sprintf(` AND name ILIKE '%%' || $%d || '%%' ESCAPE '\'`, argIndex)
		args = append(args, escapeLike(search))
		argIndex++
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM clients`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("顧客件数の取得に失敗しました: %w", err)
	}

	query := `SELECT ` + clientColumns + ` FROM clients` + where +
		fmt.Sprintf(` ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`, argIndex, argIndex+1)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("顧客一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	clients := make([]*model.Client, 0, limit)
	for rows.Next() {
		client, err := scanClient(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("顧客行の読み取りに失敗しました: %w", err)
		}
		clients = append(clients, client)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("顧客一覧の走査に失敗しました: %w", err)
	}

	return clients, total, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanClient(row rowScanner) (*model.Client, error) {
	c := &model.Client{}
	var email, phone, notes sql.NullString
	if err := row.Scan(&c.ID, &c.Name, &email, &phone, &notes, &c.UserID, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.Email = nullStringPtr(email)
	c.Phone = nullStringPtr(phone)
	c.Notes = nullStringPtr(notes)
	return c, nil
}

// compile-time interface check
var _ ClientRepository = (*PostgresClientRepo)(nil)
