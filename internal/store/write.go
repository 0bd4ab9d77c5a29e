package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/storyreel/internal/story"
)

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// PutStory inserts a story or updates its title.
func (s *Store) PutStory(ctx context.Context, meta story.Metadata) error {
	return putStory(ctx, s.db, meta)
}

func putStory(ctx context.Context, db execer, meta story.Metadata) error {
	if meta.ID == "" {
		return fmt.Errorf("put story: id is required")
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO stories (id, title)
		VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET title = excluded.title
	`, meta.ID, meta.Title)
	if err != nil {
		return fmt.Errorf("put story: %w", err)
	}
	return nil
}

// PutAudioDesign stores the raw audio-design document of a story. A nil doc
// clears it.
func (s *Store) PutAudioDesign(ctx context.Context, storyID string, doc []byte) error {
	return putAudioDesign(ctx, s.db, storyID, doc)
}

func putAudioDesign(ctx context.Context, db execer, storyID string, doc []byte) error {
	var value any
	if doc != nil {
		value = string(doc)
	}
	res, err := db.ExecContext(ctx, `UPDATE stories SET audio_design = ? WHERE id = ?`, value, storyID)
	if err != nil {
		return fmt.Errorf("put audio design: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("put audio design: story %s: %w", storyID, story.ErrNotFound)
	}
	return nil
}

// PutScenelet inserts or replaces a scenelet. A new scenelet is appended to
// the story's declared order; replacing one keeps its position.
func (s *Store) PutScenelet(ctx context.Context, storyID string, r story.SceneletRecord) error {
	return putScenelet(ctx, s.db, storyID, r)
}

func putScenelet(ctx context.Context, db execer, storyID string, r story.SceneletRecord) error {
	content, err := marshalContent(r.Content)
	if err != nil {
		return fmt.Errorf("put scenelet %s: %w", r.ID, err)
	}

	var parent any
	if r.ParentID != "" {
		parent = r.ParentID
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO scenelets
		(story_id, id, parent_id, choice_label, choice_prompt, content,
		 is_branch_point, is_terminal, branch_audio_path, created_at, position)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?,
			(SELECT COALESCE(MAX(position), 0) + 1 FROM scenelets WHERE story_id = ?))
		ON CONFLICT(story_id, id) DO UPDATE SET
			parent_id = excluded.parent_id,
			choice_label = excluded.choice_label,
			choice_prompt = excluded.choice_prompt,
			content = excluded.content,
			is_branch_point = excluded.is_branch_point,
			is_terminal = excluded.is_terminal,
			branch_audio_path = excluded.branch_audio_path,
			created_at = excluded.created_at
	`,
		storyID,
		r.ID,
		parent,
		r.ChoiceLabel,
		r.ChoicePrompt,
		content,
		boolInt(r.IsBranchPoint),
		boolInt(r.IsTerminal),
		r.BranchAudioPath,
		encodeTime(r.CreatedAt),
		storyID,
	)
	if err != nil {
		return fmt.Errorf("put scenelet %s: %w", r.ID, err)
	}
	return nil
}

// PutShot inserts or replaces a shot.
func (s *Store) PutShot(ctx context.Context, storyID string, shot story.ShotRecord) error {
	return putShot(ctx, s.db, storyID, shot)
}

func putShot(ctx context.Context, db execer, storyID string, shot story.ShotRecord) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO shots (story_id, scenelet_id, scenelet_alias, shot_index, image_path, audio_path)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(story_id, scenelet_id, shot_index) DO UPDATE SET
			scenelet_alias = excluded.scenelet_alias,
			image_path = excluded.image_path,
			audio_path = excluded.audio_path
	`,
		storyID,
		shot.SceneletID,
		shot.SceneletAlias,
		shot.ShotIndex,
		shot.ImagePath,
		shot.AudioPath,
	)
	if err != nil {
		return fmt.Errorf("put shot %s/%d: %w", shot.SceneletID, shot.ShotIndex, err)
	}
	return nil
}

// Import is a whole story to be written at once.
type Import struct {
	Story       story.Metadata
	Scenelets   []story.SceneletRecord
	Shots       []story.ShotRecord
	AudioDesign []byte
}

// ImportStory replaces everything stored for imp.Story.ID in one transaction.
func (s *Store) ImportStory(ctx context.Context, imp Import) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("import story: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if err := putStory(ctx, tx, imp.Story); err != nil {
		return err
	}
	for _, table := range []string{"scenelets", "shots"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE story_id = ?", imp.Story.ID); err != nil {
			return fmt.Errorf("import story: clear %s: %w", table, err)
		}
	}
	if err := putAudioDesign(ctx, tx, imp.Story.ID, imp.AudioDesign); err != nil {
		return err
	}
	for _, r := range imp.Scenelets {
		if err := putScenelet(ctx, tx, imp.Story.ID, r); err != nil {
			return err
		}
	}
	for _, shot := range imp.Shots {
		if err := putShot(ctx, tx, imp.Story.ID, shot); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("import story: commit: %w", err)
	}
	return nil
}

// DeleteStory removes a story with its scenelets and shots.
func (s *Store) DeleteStory(ctx context.Context, storyID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM stories WHERE id = ?`, storyID)
	if err != nil {
		return fmt.Errorf("delete story: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("delete story %s: %w", storyID, story.ErrNotFound)
	}
	return nil
}
