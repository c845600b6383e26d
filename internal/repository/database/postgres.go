package database

import (
	"context"
	"database/sql"

	"github.com/Adithyan-b-raj/Anonchat/internal/domain"
	"github.com/jmoiron/sqlx"
)

// PostgresStore persists the room in Postgres. DeactivateUser flips the
// is_active flag instead of deleting, so the user log survives the session.
type PostgresStore struct {
	db *sqlx.DB
}

func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func Connect(dsn string) (*sqlx.DB, error) {
	return sqlx.Connect("postgres", dsn)
}

func (ps *PostgresStore) AppendMessage(ctx context.Context, content, username string, kind domain.MessageType) (*domain.Message, error) {
	query := `
		INSERT INTO messages (content, username, type)
		VALUES ($1, $2, $3)
		RETURNING id, content, username, type, created_at;
	`

	var msg domain.Message
	err := ps.db.QueryRowxContext(ctx, query, content, username, string(kind)).StructScan(&msg)
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func (ps *PostgresStore) RecentMessages(ctx context.Context, limit int) ([]domain.Message, error) {
	query := `
		SELECT id, content, username, type, created_at
		FROM (
			SELECT id, content, username, type, created_at, seq
			FROM messages
			ORDER BY seq DESC
			LIMIT $1
		) recent
		ORDER BY seq ASC;
	`

	messages := []domain.Message{}
	err := ps.db.SelectContext(ctx, &messages, query, limit)
	if err != nil && err != sql.ErrNoRows {
		return nil, err
	}
	return messages, nil
}

func (ps *PostgresStore) CreateActiveUser(ctx context.Context, username string) (*domain.User, error) {
	query := `
		INSERT INTO users (username, is_active)
		VALUES ($1, TRUE)
		RETURNING id, username, is_active, joined_at;
	`

	var user domain.User
	err := ps.db.QueryRowxContext(ctx, query, username).StructScan(&user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (ps *PostgresStore) DeactivateUser(ctx context.Context, id string) error {
	query := `
		UPDATE users SET is_active = FALSE WHERE id = $1;
	`

	_, err := ps.db.ExecContext(ctx, query, id)
	return err
}

func (ps *PostgresStore) ActiveUsers(ctx context.Context) ([]domain.User, error) {
	query := `
		SELECT id, username, is_active, joined_at
		FROM users
		WHERE is_active = TRUE
		ORDER BY joined_at ASC;
	`

	users := []domain.User{}
	err := ps.db.SelectContext(ctx, &users, query)
	if err != nil && err != sql.ErrNoRows {
		return nil, err
	}
	return users, nil
}

func (ps *PostgresStore) CountActiveUsers(ctx context.Context) (int, error) {
	query := `
		SELECT COUNT(*) FROM users WHERE is_active = TRUE;
	`

	var count int
	err := ps.db.QueryRowContext(ctx, query).Scan(&count)
	return count, err
}

func (ps *PostgresStore) Close() error {
	return ps.db.Close()
}
