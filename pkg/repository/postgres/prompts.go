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

// PromptRepository stores prompts in the prompts table
type PromptRepository struct {
	db querier
}

// NewPromptRepository creates a new prompt repository
func NewPromptRepository(db *sql.DB) *PromptRepository {
	return &PromptRepository{db: db}
}

const promptColumns = `id, user_id, title, content, company, position, category, status, is_active, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPrompt(row rowScanner) (*domain.Prompt, error) {
	var (
		p                 domain.Prompt
		company, position sql.NullString
		status            string
	)
	if err := row.Scan(&p.ID, &p.UserID, &p.Title, &p.Content, &company, &position,
		&p.Category, &status, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Company = stringPtr(company)
	p.Position = stringPtr(position)
	p.Status = domain.PromptStatus(status)
	return &p, nil
}

// Create inserts a prompt, assigning id and timestamps when unset
func (r *PromptRepository) Create(ctx context.Context, p *domain.Prompt) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Category == "" {
		p.Category = domain.DefaultCategory
	}
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = p.CreatedAt

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO prompts (`+promptColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		p.ID, p.UserID, p.Title, p.Content, nullString(p.Company), nullString(p.Position),
		p.Category, string(p.Status), p.IsActive, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert prompt: %w", err)
	}
	return nil
}

// Get loads a prompt by id
func (r *PromptRepository) Get(ctx context.Context, id string) (*domain.Prompt, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrNotFound
	}
	p, err := scanPrompt(r.db.QueryRowContext(ctx,
		`SELECT `+promptColumns+` FROM prompts WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get prompt: %w", err)
	}
	return p, nil
}

// previousStatuses lists the states a prompt may leave to reach status
func previousStatuses(status domain.PromptStatus) []string {
	var from []string
	for _, s := range []domain.PromptStatus{
		domain.PromptStatusPending, domain.PromptStatusProcessing,
		domain.PromptStatusCompleted, domain.PromptStatusFailed,
	} {
		if s.CanTransitionTo(status) {
			from = append(from, string(s))
		}
	}
	return from
}

// UpdateStatus moves a prompt forward. Backward or repeated transitions
// affect no row and return domain.ErrConflict.
func (r *PromptRepository) UpdateStatus(ctx context.Context, id string, status domain.PromptStatus) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE prompts SET status = $2, updated_at = now()
		WHERE id = $1 AND status = ANY($3)`,
		id, string(status), pq.Array(previousStatuses(status)),
	)
	if err != nil {
		return fmt.Errorf("failed to update prompt status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update prompt status: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("prompt %s cannot move to %s: %w", id, status, domain.ErrConflict)
	}
	return nil
}

// CountActiveSince counts active prompts created in [from, to)
func (r *PromptRepository) CountActiveSince(ctx context.Context, userID string, from, to time.Time) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT count(*) FROM prompts
		WHERE user_id = $1 AND is_active = TRUE AND created_at >= $2 AND created_at < $3`,
		userID, from.UTC(), to.UTC(),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count prompts: %w", err)
	}
	return n, nil
}

// ListActiveWithContent returns the user's active prompts newest first,
// each with its generated content rows newest first
func (r *PromptRepository) ListActiveWithContent(ctx context.Context, userID string) ([]domain.PromptWithContent, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+promptColumns+` FROM prompts
		WHERE user_id = $1 AND is_active = TRUE
		ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list prompts: %w", err)
	}
	defer rows.Close()

	var (
		out   []domain.PromptWithContent
		ids   []string
		index = map[string]int{}
	)
	for rows.Next() {
		p, err := scanPrompt(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan prompt: %w", err)
		}
		index[p.ID] = len(out)
		ids = append(ids, p.ID)
		out = append(out, domain.PromptWithContent{Prompt: *p, Content: []domain.GeneratedContent{}})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list prompts: %w", err)
	}
	if len(ids) == 0 {
		return out, nil
	}

	contentRows, err := r.db.QueryContext(ctx, `
		SELECT `+contentColumns+` FROM generated_content
		WHERE prompt_id = ANY($1::uuid[])
		ORDER BY created_at DESC`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to list generated content: %w", err)
	}
	defer contentRows.Close()

	for contentRows.Next() {
		gc, err := scanContent(contentRows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan generated content: %w", err)
		}
		if i, ok := index[gc.PromptID]; ok {
			out[i].Content = append(out[i].Content, *gc)
		}
	}
	if err := contentRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list generated content: %w", err)
	}
	return out, nil
}

// Deactivate soft-deletes an owned prompt
func (r *PromptRepository) Deactivate(ctx context.Context, userID, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrNotFound
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE prompts SET is_active = FALSE, updated_at = now()
		WHERE id = $1 AND user_id = $2 AND is_active = TRUE`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to deactivate prompt: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to deactivate prompt: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ResolveStale settles prompts left in processing since before olderThan.
// A prompt whose content row exists is completed, the rest are failed.
func (r *PromptRepository) ResolveStale(ctx context.Context, olderThan time.Time) (domain.StaleResolution, error) {
	var res domain.StaleResolution
	rows, err := r.db.QueryContext(ctx, `
		UPDATE prompts SET
			status = CASE WHEN EXISTS (
				SELECT 1 FROM generated_content gc WHERE gc.prompt_id = prompts.id
			) THEN 'completed' ELSE 'failed' END,
			updated_at = now()
		WHERE status = 'processing' AND created_at < $1
		RETURNING status`, olderThan.UTC())
	if err != nil {
		return res, fmt.Errorf("failed to reap stale prompts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		if err := rows.Scan(&status); err != nil {
			return res, fmt.Errorf("failed to reap stale prompts: %w", err)
		}
		if domain.PromptStatus(status) == domain.PromptStatusCompleted {
			res.Completed++
		} else {
			res.Failed++
		}
	}
	if err := rows.Err(); err != nil {
		return res, fmt.Errorf("failed to reap stale prompts: %w", err)
	}
	return res, nil
}
