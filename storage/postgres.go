package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"diffhunt/domain"
)

type PostgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresRepo(ctx context.Context, connString string) (*PostgresRepo, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, err
	}
	return &PostgresRepo{pool: pool}, nil
}

func (repo *PostgresRepo) Close() {
	repo.pool.Close()
}

func (repo *PostgresRepo) InsertRoom(ctx context.Context, rec domain.RoomRecord) error {
	_, err := repo.pool.Exec(ctx,
		"INSERT INTO rooms(id, code, status, current_image_index) VALUES($1, $2, $3, $4)",
		rec.ID, rec.Code, string(rec.Status), rec.CurrentImageIndex)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			// unique_violation on the room code
			return domain.ErrDuplicateRoomCode
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return fmt.Errorf("%w: %w", domain.UnexpectedDatabaseError, err)
	}
	return nil
}

func (repo *PostgresRepo) UpdateRoom(ctx context.Context, code string, patch domain.RoomPatch) error {
	sets := make([]string, 0, 2)
	args := make([]any, 0, 3)

	if patch.Status != nil {
		args = append(args, string(*patch.Status))
		sets = append(sets, fmt.Sprintf("status = $%d", len(args)))
	}
	if patch.CurrentImageIndex != nil {
		args = append(args, *patch.CurrentImageIndex)
		sets = append(sets, fmt.Sprintf("current_image_index = $%d", len(args)))
	}
	if len(sets) == 0 {
		return nil
	}

	args = append(args, code)
	query := fmt.Sprintf("UPDATE rooms SET %s WHERE code = $%d", strings.Join(sets, ", "), len(args))

	tag, err := repo.pool.Exec(ctx, query, args...)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return fmt.Errorf("%w: %w", domain.UnexpectedDatabaseError, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRoomNotFound
	}
	return nil
}

func (repo *PostgresRepo) DeleteRoom(ctx context.Context, id string) error {
	_, err := repo.pool.Exec(ctx, "DELETE FROM rooms WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return fmt.Errorf("%w: %w", domain.UnexpectedDatabaseError, err)
	}
	return nil
}

func (repo *PostgresRepo) UpsertPlayer(ctx context.Context, rec domain.PlayerRecord) error {
	_, err := repo.pool.Exec(ctx,
		`INSERT INTO players(id, room_id, nickname, avatar, score, is_online)
		 VALUES($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (id) DO UPDATE
		 SET nickname = EXCLUDED.nickname,
		     avatar = EXCLUDED.avatar,
		     score = EXCLUDED.score,
		     is_online = EXCLUDED.is_online`,
		rec.ID, rec.RoomID, rec.Nickname, rec.Avatar, rec.Score, rec.IsOnline)

	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return fmt.Errorf("%w: %w", domain.UnexpectedDatabaseError, err)
	}
	return nil
}

func (repo *PostgresRepo) DeletePlayers(ctx context.Context, roomID string) error {
	_, err := repo.pool.Exec(ctx, "DELETE FROM players WHERE room_id = $1", roomID)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return fmt.Errorf("%w: %w", domain.UnexpectedDatabaseError, err)
	}
	return nil
}

// SelectImages loads the requested images with their differences, ordered
// by annotation position. Every requested id must exist.
func (repo *PostgresRepo) SelectImages(ctx context.Context, ids []string) ([]domain.Image, error) {
	rows, err := repo.pool.Query(ctx,
		"SELECT id, original_url, modified_url FROM images WHERE id = ANY($1)", ids)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.UnexpectedDatabaseError, err)
	}

	byID := make(map[string]*domain.Image, len(ids))
	for rows.Next() {
		img := domain.Image{}
		if err := rows.Scan(&img.ID, &img.OriginalURL, &img.ModifiedURL); err != nil {
			rows.Close()
			return nil, fmt.Errorf("%w: %w", domain.UnexpectedDatabaseError, err)
		}
		byID[img.ID] = &img
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.UnexpectedDatabaseError, err)
	}

	if len(byID) != len(ids) {
		return nil, domain.ErrImagesNotFound
	}

	diffRows, err := repo.pool.Query(ctx,
		`SELECT image_id, id, x, y, width, height
		 FROM image_differences WHERE image_id = ANY($1)
		 ORDER BY image_id, position`, ids)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.UnexpectedDatabaseError, err)
	}
	defer diffRows.Close()

	for diffRows.Next() {
		var imageID string
		diff := domain.Difference{}
		if err := diffRows.Scan(&imageID, &diff.ID, &diff.X, &diff.Y, &diff.Width, &diff.Height); err != nil {
			return nil, fmt.Errorf("%w: %w", domain.UnexpectedDatabaseError, err)
		}
		if img, ok := byID[imageID]; ok {
			img.Differences = append(img.Differences, diff)
		}
	}
	if err := diffRows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.UnexpectedDatabaseError, err)
	}

	// Preserve the caller's ordering: the image queue is fixed at room
	// creation and the request order is the queue order.
	images := make([]domain.Image, 0, len(ids))
	for _, id := range ids {
		images = append(images, *byID[id])
	}
	return images, nil
}

func (repo *PostgresRepo) GetRoomByCode(ctx context.Context, code string) (domain.RoomRecord, error) {
	rec := domain.RoomRecord{Code: code}
	var status string

	row := repo.pool.QueryRow(ctx,
		"SELECT id, status, current_image_index FROM rooms WHERE code = $1", code)
	err := row.Scan(&rec.ID, &status, &rec.CurrentImageIndex)
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return domain.RoomRecord{}, domain.ErrRoomNotFound
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return domain.RoomRecord{}, err
		default:
			return domain.RoomRecord{}, fmt.Errorf("%w: %w", domain.UnexpectedDatabaseError, err)
		}
	}
	rec.Status = domain.RoomStatus(status)
	return rec, nil
}
