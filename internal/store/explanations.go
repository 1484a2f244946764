package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// CachedExplanation is a stored model answer for one sentence.
type CachedExplanation struct {
	Translation string
	Explanation string
	CreatedAt   time.Time
}

func cacheKey(model, sentence string) (string, string) {
	return strings.TrimSpace(model), strings.TrimSpace(sentence)
}

// LookupExplanation returns the cached answer for sentence under model.
func (s *Store) LookupExplanation(ctx context.Context, model, sentence string) (CachedExplanation, bool, error) {
	model, sentence = cacheKey(model, sentence)
	var (
		cached    CachedExplanation
		createdAt string
	)
	err := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT translation, explanation, created_at FROM explanations WHERE model = ? AND sentence = ?`,
		model, sentence,
	).Scan(&cached.Translation, &cached.Explanation, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return CachedExplanation{}, false, nil
	}
	if err != nil {
		return CachedExplanation{}, false, fmt.Errorf("lookup explanation: %w", err)
	}
	cached.CreatedAt = parseTime(createdAt)
	return cached, true, nil
}

// SaveExplanation stores or replaces the answer for sentence under model.
func (s *Store) SaveExplanation(ctx context.Context, model, sentence, translation, explanation string) error {
	model, sentence = cacheKey(model, sentence)
	if sentence == "" {
		return errors.New("save explanation: sentence required")
	}
	_, err := s.execWithRetry(ctx,
		`INSERT INTO explanations (model, sentence, translation, explanation, created_at)
         VALUES (?, ?, ?, ?, ?)
         ON CONFLICT(model, sentence) DO UPDATE SET
            translation = excluded.translation,
            explanation = excluded.explanation,
            created_at = excluded.created_at`,
		model, sentence, translation, explanation, formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("save explanation: %w", err)
	}
	return nil
}

// ClearExplanations deletes cached answers. An empty model clears every model.
func (s *Store) ClearExplanations(ctx context.Context, model string) (int64, error) {
	query := `DELETE FROM explanations`
	var args []any
	if model = strings.TrimSpace(model); model != "" {
		query += ` WHERE model = ?`
		args = append(args, model)
	}
	res, err := s.execWithRetry(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("clear explanations: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return removed, nil
}

// ExplanationCount reports how many answers are cached.
func (s *Store) ExplanationCount(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ensureContext(ctx), `SELECT COUNT(1) FROM explanations`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count explanations: %w", err)
	}
	return count, nil
}
