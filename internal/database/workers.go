package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const workerColumns = `id, username, password_hash, display_name, position, salary, created_at, updated_at`

func scanWorker(row interface{ Scan(dest ...any) error }) (Worker, error) {
	var w Worker
	err := row.Scan(&w.ID, &w.Username, &w.PasswordHash, &w.DisplayName, &w.Position, &w.Salary, &w.CreatedAt, &w.UpdatedAt)
	return w, err
}

type CreateWorkerParams struct {
	Username     string
	PasswordHash string
	DisplayName  string
	Position     string
	Salary       pgtype.Numeric
}

func (q *Queries) CreateWorker(ctx context.Context, arg CreateWorkerParams) (Worker, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO workers (username, password_hash, display_name, position, salary)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+workerColumns,
		arg.Username, arg.PasswordHash, arg.DisplayName, arg.Position, arg.Salary,
	)
	return scanWorker(row)
}

func (q *Queries) GetWorker(ctx context.Context, id uuid.UUID) (Worker, error) {
	row := q.db.QueryRow(ctx, `SELECT `+workerColumns+` FROM workers WHERE id = $1`, id)
	return scanWorker(row)
}

func (q *Queries) GetWorkerByUsername(ctx context.Context, username string) (Worker, error) {
	row := q.db.QueryRow(ctx, `SELECT `+workerColumns+` FROM workers WHERE username = $1`, username)
	return scanWorker(row)
}

func (q *Queries) ListWorkers(ctx context.Context) ([]Worker, error) {
	rows, err := q.db.Query(ctx, `SELECT `+workerColumns+` FROM workers ORDER BY display_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var workers []Worker
	for rows.Next() {
		w, err := scanWorker(rows)
		if err != nil {
			return nil, err
		}
		workers = append(workers, w)
	}
	return workers, rows.Err()
}
