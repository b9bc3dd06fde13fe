package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/File-Sharing-BondBridg/Coupon-File-Service/internal/models"
)

const recordColumns = `id, original_name, storage_key, size_bytes, content_type, status, failure_reason, uploaded_at, validated_at`

// PostgresStorage implements Repository on PostgreSQL.
type PostgresStorage struct {
	db     *sql.DB
	logger *slog.Logger
}

// Connect opens and pings connectionString.
func Connect(ctx context.Context, connectionString string, logger *slog.Logger) (*PostgresStorage, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	logger.Info("connected to PostgreSQL")
	return NewPostgresStorage(db, logger), nil
}

func NewPostgresStorage(db *sql.DB, logger *slog.Logger) *PostgresStorage {
	return &PostgresStorage{db: db, logger: logger}
}

func (p *PostgresStorage) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

func (p *PostgresStorage) Close() error {
	return p.db.Close()
}

func (p *PostgresStorage) Create(ctx context.Context, rec *models.FileRecord) error {
	query := `
    INSERT INTO file_records (` + recordColumns + `)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
    `

	_, err := p.db.ExecContext(ctx, query,
		rec.ID,
		rec.OriginalName,
		rec.StorageKey,
		rec.SizeBytes,
		rec.ContentType,
		string(rec.Status),
		nullString(rec.FailureReason),
		rec.UploadedAt,
		nullTime(rec.ValidatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert file record %s: %w", rec.ID, err)
	}
	return nil
}

// FindByID returns ErrNotFound for ids that are not UUIDs, which the id
// column could never hold.
func (p *PostgresStorage) FindByID(ctx context.Context, id string) (*models.FileRecord, error) {
	if !isUUID(id) {
		return nil, ErrNotFound
	}
	query := `SELECT ` + recordColumns + ` FROM file_records WHERE id = $1`

	rec, err := scanRecord(p.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select file record %s: %w", id, err)
	}
	return rec, nil
}

func (p *PostgresStorage) UpdateStatus(ctx context.Context, rec *models.FileRecord) error {
	if !isUUID(rec.ID) {
		return ErrNotFound
	}
	query := `
    UPDATE file_records
    SET status = $1,
        failure_reason = $2,
        validated_at = $3,
        updated_at = NOW()
    WHERE id = $4 AND status = 'PENDING'
    `

	result, err := p.db.ExecContext(ctx, query,
		string(rec.Status),
		nullString(rec.FailureReason),
		nullTime(rec.ValidatedAt),
		rec.ID,
	)
	if err != nil {
		return fmt.Errorf("update file record %s: %w", rec.ID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update file record %s: %w", rec.ID, err)
	}
	if affected == 1 {
		return nil
	}

	var exists bool
	if err := p.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM file_records WHERE id = $1)`, rec.ID).Scan(&exists); err != nil {
		return fmt.Errorf("check file record %s: %w", rec.ID, err)
	}
	if !exists {
		return ErrNotFound
	}
	return models.ErrAlreadyFinalized
}

func (p *PostgresStorage) ListPending(ctx context.Context, uploadedBefore time.Time, limit int) ([]*models.FileRecord, error) {
	query := `
    SELECT ` + recordColumns + `
    FROM file_records WHERE status = 'PENDING' AND uploaded_at < $1
    ORDER BY uploaded_at ASC LIMIT $2
    `

	rows, err := p.db.QueryContext(ctx, query, uploadedBefore, limit)
	if err != nil {
		return nil, fmt.Errorf("query pending file records: %w", err)
	}
	defer func(rows *sql.Rows) {
		if cerr := rows.Close(); cerr != nil {
			p.logger.Warn("error closing rows", "error", cerr)
		}
	}(rows)

	var records []*models.FileRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pending file record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func isUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*models.FileRecord, error) {
	var (
		rec         models.FileRecord
		status      string
		reason      sql.NullString
		validatedAt sql.NullTime
	)

	err := row.Scan(
		&rec.ID,
		&rec.OriginalName,
		&rec.StorageKey,
		&rec.SizeBytes,
		&rec.ContentType,
		&status,
		&reason,
		&rec.UploadedAt,
		&validatedAt,
	)
	if err != nil {
		return nil, err
	}

	rec.Status = models.FileStatus(status)
	rec.FailureReason = reason.String
	if validatedAt.Valid {
		t := validatedAt.Time
		rec.ValidatedAt = &t
	}
	return &rec, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
