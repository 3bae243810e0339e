// Package repository wraps all SQL used by the API and the CLI.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oceaneye/oceaneye/internal/model"
)

// ErrNotFound is returned when a row does not exist.
var ErrNotFound = errors.New("not found")

// ReportRepository persists and retrieves hazard reports.
type ReportRepository struct {
	pool *pgxpool.Pool
}

// NewReportRepository constructs a repository.
func NewReportRepository(pool *pgxpool.Pool) *ReportRepository {
	return &ReportRepository{pool: pool}
}

// Insert assigns id and timestamps, writes the report, and re-reads it joined
// with the author row. The returned report always carries the author display
// name; callers never receive a bare foreign-key reference.
func (r *ReportRepository) Insert(ctx context.Context, rep *model.Report) (*model.Report, error) {
	now := time.Now().UTC()
	rep.ID = uuid.NewString()
	rep.CreatedAt = now
	rep.UpdatedAt = now

	var analysis []byte
	if rep.AIAnalysis != nil {
		data, err := json.Marshal(rep.AIAnalysis)
		if err != nil {
			return nil, fmt.Errorf("marshal analysis: %w", err)
		}
		analysis = data
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO reports (id, author_id, description, severity, location, lat, lon, media_url, ai_analysis, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`, rep.ID, rep.Author.ID, rep.Description, rep.Severity, rep.Location, rep.Lat, rep.Lon, rep.MediaURL, analysis, rep.CreatedAt, rep.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert report: %w", err)
	}
	return r.Get(ctx, rep.ID)
}

// Get returns a single report with the author name resolved.
func (r *ReportRepository) Get(ctx context.Context, id string) (*model.Report, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT r.id, r.author_id, u.name, r.description, r.severity, r.location, r.lat, r.lon, r.media_url, r.ai_analysis, r.created_at, r.updated_at
		FROM reports r
		JOIN users u ON u.id = r.author_id
		WHERE r.id=$1
	`, id)
	rep, err := scanReport(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("report %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("select report: %w", err)
	}
	return rep, nil
}

// ListAll returns every report ordered by created_at descending with the
// author name attached. The id tiebreak keeps the order deterministic when
// timestamps collide.
func (r *ReportRepository) ListAll(ctx context.Context) ([]model.Report, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT r.id, r.author_id, u.name, r.description, r.severity, r.location, r.lat, r.lon, r.media_url, r.ai_analysis, r.created_at, r.updated_at
		FROM reports r
		JOIN users u ON u.id = r.author_id
		ORDER BY r.created_at DESC, r.id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("select reports: %w", err)
	}
	defer rows.Close()

	reports := make([]model.Report, 0)
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		reports = append(reports, *rep)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reports: %w", err)
	}
	return reports, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReport(row rowScanner) (*model.Report, error) {
	var (
		rep      model.Report
		analysis []byte
	)
	if err := row.Scan(&rep.ID, &rep.Author.ID, &rep.Author.Name, &rep.Description, &rep.Severity, &rep.Location,
		&rep.Lat, &rep.Lon, &rep.MediaURL, &analysis, &rep.CreatedAt, &rep.UpdatedAt); err != nil {
		return nil, err
	}
	if len(analysis) > 0 {
		if err := json.Unmarshal(analysis, &rep.AIAnalysis); err != nil {
			return nil, fmt.Errorf("decode analysis: %w", err)
		}
	}
	return &rep, nil
}
