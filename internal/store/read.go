package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/storyreel/internal/story"
)

// GetStory returns story metadata. A missing story wraps story.ErrNotFound.
func (s *Store) GetStory(ctx context.Context, storyID string) (story.Metadata, error) {
	var meta story.Metadata
	err := s.db.QueryRowContext(ctx, `SELECT id, title FROM stories WHERE id = ?`, storyID).
		Scan(&meta.ID, &meta.Title)
	if errors.Is(err, sql.ErrNoRows) {
		return story.Metadata{}, fmt.Errorf("story %s: %w", storyID, story.ErrNotFound)
	}
	if err != nil {
		return story.Metadata{}, fmt.Errorf("get story: %w", err)
	}
	return meta, nil
}

// ListStories returns all stories ordered by id.
func (s *Store) ListStories(ctx context.Context) ([]story.Metadata, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, title FROM stories ORDER BY id COLLATE BINARY ASC`)
	if err != nil {
		return nil, fmt.Errorf("query stories: %w", err)
	}
	defer rows.Close()

	stories := []story.Metadata{}
	for rows.Next() {
		var meta story.Metadata
		if err := rows.Scan(&meta.ID, &meta.Title); err != nil {
			return nil, fmt.Errorf("scan story: %w", err)
		}
		stories = append(stories, meta)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stories: %w", err)
	}
	return stories, nil
}

// ListScenelets returns a story's scenelets in declared order.
//
// Returns an empty slice (not nil) when the story has none.
func (s *Store) ListScenelets(ctx context.Context, storyID string) ([]story.SceneletRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, parent_id, choice_label, choice_prompt, content,
		       is_branch_point, is_terminal, branch_audio_path, created_at
		FROM scenelets
		WHERE story_id = ?
		ORDER BY position ASC, id COLLATE BINARY ASC
	`, storyID)
	if err != nil {
		return nil, fmt.Errorf("query scenelets: %w", err)
	}
	defer rows.Close()

	records := []story.SceneletRecord{}
	for rows.Next() {
		r, err := scanScenelet(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scenelets: %w", err)
	}
	return records, nil
}

func scanScenelet(rows *sql.Rows) (story.SceneletRecord, error) {
	var (
		r                    story.SceneletRecord
		parent               sql.NullString
		content              string
		isBranch, isTerminal int
		createdAt            int64
	)
	if err := rows.Scan(
		&r.ID,
		&parent,
		&r.ChoiceLabel,
		&r.ChoicePrompt,
		&content,
		&isBranch,
		&isTerminal,
		&r.BranchAudioPath,
		&createdAt,
	); err != nil {
		return story.SceneletRecord{}, fmt.Errorf("scan scenelet: %w", err)
	}

	c, err := unmarshalContent(content)
	if err != nil {
		return story.SceneletRecord{}, fmt.Errorf("scenelet %s: %w", r.ID, err)
	}
	r.Content = c
	r.ParentID = parent.String
	r.IsBranchPoint = isBranch != 0
	r.IsTerminal = isTerminal != 0
	r.CreatedAt = decodeTime(createdAt)
	return r, nil
}

// ListShots returns a story's shots ordered by scenelet id, then index.
func (s *Store) ListShots(ctx context.Context, storyID string) ([]story.ShotRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT scenelet_id, scenelet_alias, shot_index, image_path, audio_path
		FROM shots
		WHERE story_id = ?
		ORDER BY scenelet_id COLLATE BINARY ASC, shot_index ASC
	`, storyID)
	if err != nil {
		return nil, fmt.Errorf("query shots: %w", err)
	}
	defer rows.Close()

	shots := []story.ShotRecord{}
	for rows.Next() {
		var shot story.ShotRecord
		if err := rows.Scan(&shot.SceneletID, &shot.SceneletAlias, &shot.ShotIndex, &shot.ImagePath, &shot.AudioPath); err != nil {
			return nil, fmt.Errorf("scan shot: %w", err)
		}
		shots = append(shots, shot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate shots: %w", err)
	}
	return shots, nil
}

// GetAudioDesign returns the raw audio-design document, or nil when none is
// stored. A missing story wraps story.ErrNotFound.
func (s *Store) GetAudioDesign(ctx context.Context, storyID string) ([]byte, error) {
	var doc sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT audio_design FROM stories WHERE id = ?`, storyID).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("story %s: %w", storyID, story.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get audio design: %w", err)
	}
	if !doc.Valid {
		return nil, nil
	}
	return []byte(doc.String), nil
}
