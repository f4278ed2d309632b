package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vidstream/identity-service/internal/auth/domain"
	autherror "github.com/vidstream/identity-service/internal/errors"
)

const uniqueViolation = "23505"

// PgxIface is the slice of pgxpool.Pool the repository needs; pgxmock
// implements it for tests.
type PgxIface interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

type PostgresRepository struct {
	db PgxIface
}

func NewPostgresUserRepository(db PgxIface) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const userColumns = `id, username, email, full_name, avatar_url, cover_image_url,
		password_hash, COALESCE(current_refresh_token, ''), created_at, updated_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.FullName,
		&user.AvatarURL, &user.CoverImageURL, &user.PasswordHash,
		&user.CurrentRefreshToken, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *PostgresRepository) GetByUsernameOrEmail(ctx context.Context, identifier string) (*domain.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE username = $1 OR email = $1
		LIMIT 1;
	`

	user, err := scanUser(r.db.QueryRow(ctx, query, identifier))
	if err != nil {
		return nil, fmt.Errorf("failed to get user by identifier: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = $1
		LIMIT 1;
	`

	user, err := scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) Create(ctx context.Context, user *domain.User) error {
	_, err := r.db.Exec(ctx, `
        INSERT INTO users (id, username, email, full_name, avatar_url, cover_image_url,
            password_hash, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
    `, user.ID, user.Username, user.Email, user.FullName, user.AvatarURL,
		user.CoverImageURL, user.PasswordHash, user.CreatedAt, user.UpdatedAt)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		// the service pre-checks, this closes the race window
		return autherror.ErrUserAlreadyExists
	}

	return err
}

func (r *PostgresRepository) SetRefreshToken(ctx context.Context, userID, token string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE users
		SET current_refresh_token = NULLIF($2, ''), updated_at = now()
		WHERE id = $1
	`, userID, token)

	return err
}

// RotateRefreshToken is the compare-and-swap behind single-use refresh
// tokens: the write lands only if the stored token still equals current.
func (r *PostgresRepository) RotateRefreshToken(ctx context.Context, userID, current, next string) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE users
		SET current_refresh_token = $3, updated_at = now()
		WHERE id = $1 AND current_refresh_token = $2
	`, userID, current, next)
	if err != nil {
		return false, err
	}

	return tag.RowsAffected() == 1, nil
}

func (r *PostgresRepository) UpdatePasswordHash(ctx context.Context, userID, passwordHash string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE users
		SET password_hash = $2, updated_at = now()
		WHERE id = $1
	`, userID, passwordHash)

	return err
}

func (r *PostgresRepository) UpdateAccountDetails(ctx context.Context, userID, fullName, email string) (*domain.User, error) {
	query := `
		UPDATE users
		SET full_name = COALESCE(NULLIF($2, ''), full_name),
		    email = COALESCE(NULLIF($3, ''), email),
		    updated_at = now()
		WHERE id = $1
		RETURNING ` + userColumns + `;
	`

	user, err := scanUser(r.db.QueryRow(ctx, query, userID, fullName, email))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, autherror.ErrUserAlreadyExists
		}
		return nil, fmt.Errorf("failed to update account details: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) UpdateAvatarURL(ctx context.Context, userID, url string) (*domain.User, error) {
	return r.updateImageURL(ctx, "avatar_url", userID, url)
}

func (r *PostgresRepository) UpdateCoverImageURL(ctx context.Context, userID, url string) (*domain.User, error) {
	return r.updateImageURL(ctx, "cover_image_url", userID, url)
}

func (r *PostgresRepository) updateImageURL(ctx context.Context, column, userID, url string) (*domain.User, error) {
	query := `
		UPDATE users
		SET ` + column + ` = $2, updated_at = now()
		WHERE id = $1
		RETURNING ` + userColumns + `;
	`

	user, err := scanUser(r.db.QueryRow(ctx, query, userID, url))
	if err != nil {
		return nil, fmt.Errorf("failed to update %s: %w", column, err)
	}

	return user, nil
}

func (r *PostgresRepository) GetChannelProfile(ctx context.Context, username, viewerID string) (*domain.ChannelProfile, error) {
	query := `
		SELECT u.id, u.username, u.full_name, u.email, u.avatar_url, u.cover_image_url,
			(SELECT count(*) FROM subscriptions s WHERE s.channel_id = u.id) AS subscribers_count,
			(SELECT count(*) FROM subscriptions s WHERE s.subscriber_id = u.id) AS subscribed_to_count,
			EXISTS (
				SELECT 1 FROM subscriptions s
				WHERE s.channel_id = u.id AND s.subscriber_id::text = $2
			) AS is_subscribed
		FROM users u
		WHERE u.username = $1
		LIMIT 1;
	`

	row := r.db.QueryRow(ctx, query, username, viewerID)

	var p domain.ChannelProfile
	err := row.Scan(&p.ID, &p.Username, &p.FullName, &p.Email, &p.AvatarURL,
		&p.CoverImageURL, &p.SubscribersCount, &p.ChannelsSubscribedToCount, &p.IsSubscribed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get channel profile: %w", err)
	}

	return &p, nil
}

func (r *PostgresRepository) GetWatchHistory(ctx context.Context, userID string) ([]domain.WatchHistoryEntry, error) {
	query := `
		SELECT v.id, v.title, v.thumbnail_url, v.duration_seconds, v.views, wh.watched_at,
			o.id, o.username, o.full_name, o.avatar_url
		FROM watch_history wh
		JOIN videos v ON v.id = wh.video_id
		JOIN users o ON o.id = v.owner_id
		WHERE wh.user_id = $1
		ORDER BY wh.watched_at DESC;
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get watch history: %w", err)
	}
	defer rows.Close()

	var entries []domain.WatchHistoryEntry
	for rows.Next() {
		var e domain.WatchHistoryEntry
		err := rows.Scan(&e.VideoID, &e.Title, &e.ThumbnailURL, &e.DurationSeconds,
			&e.Views, &e.WatchedAt, &e.OwnerID, &e.OwnerUsername, &e.OwnerFullName, &e.OwnerAvatarURL)
		if err != nil {
			return nil, fmt.Errorf("failed to scan watch history row: %w", err)
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}
