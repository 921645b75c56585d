package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jobscout/jobscout/pkg/domain"
	"github.com/lib/pq"
)

// GeneratedContentRepository stores rows of the generated_content table
type GeneratedContentRepository struct {
	db querier
}

// NewGeneratedContentRepository creates a new generated content repository
func NewGeneratedContentRepository(db *sql.DB) *GeneratedContentRepository {
	return &GeneratedContentRepository{db: db}
}

const contentColumns = `id, prompt_id, user_id, bullet_points, skills, keywords, achievements, summary, openai_model, processing_time_ms, created_at`

func scanContent(row rowScanner) (*domain.GeneratedContent, error) {
	var (
		gc      domain.GeneratedContent
		summary sql.NullString
		elapsed sql.NullInt64
	)
	if err := row.Scan(&gc.ID, &gc.PromptID, &gc.UserID,
		pq.Array(&gc.BulletPoints), pq.Array(&gc.Skills), pq.Array(&gc.Keywords), pq.Array(&gc.Achievements),
		&summary, &gc.Model, &elapsed, &gc.CreatedAt); err != nil {
		return nil, err
	}
	gc.Summary = stringPtr(summary)
	if elapsed.Valid {
		ms := elapsed.Int64
		gc.ProcessingTimeMS = &ms
	}
	gc.BulletPoints = nonNil(gc.BulletPoints)
	gc.Skills = nonNil(gc.Skills)
	gc.Keywords = nonNil(gc.Keywords)
	gc.Achievements = nonNil(gc.Achievements)
	return &gc, nil
}

// Create inserts generated content, assigning id and timestamp when unset
func (r *GeneratedContentRepository) Create(ctx context.Context, gc *domain.GeneratedContent) error {
	if gc.ID == "" {
		gc.ID = uuid.NewString()
	}
	if gc.CreatedAt.IsZero() {
		gc.CreatedAt = time.Now().UTC()
	}
	var elapsed sql.NullInt64
	if gc.ProcessingTimeMS != nil {
		elapsed = sql.NullInt64{Int64: *gc.ProcessingTimeMS, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO generated_content (`+contentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		gc.ID, gc.PromptID, gc.UserID,
		pq.Array(nonNil(gc.BulletPoints)), pq.Array(nonNil(gc.Skills)),
		pq.Array(nonNil(gc.Keywords)), pq.Array(nonNil(gc.Achievements)),
		nullString(gc.Summary), gc.Model, elapsed, gc.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert generated content: %w", err)
	}
	return nil
}

// LatestByPrompt returns the newest content row for a prompt
func (r *GeneratedContentRepository) LatestByPrompt(ctx context.Context, promptID string) (*domain.GeneratedContent, error) {
	if _, err := uuid.Parse(promptID); err != nil {
		return nil, domain.ErrNotFound
	}
	gc, err := scanContent(r.db.QueryRowContext(ctx, `
		SELECT `+contentColumns+` FROM generated_content
		WHERE prompt_id = $1 ORDER BY created_at DESC LIMIT 1`, promptID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get generated content: %w", err)
	}
	return gc, nil
}
