package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"descant/internal/services"
)

const sceneColumns = `id, project_id, frame_number, timestamp, thumbnail_path, description, audio_path, duration`

// CommitAnalysis atomically replaces a project's scenes with a new batch and
// marks the project analyzed. Either every scene lands or none does; a failure
// part way through leaves the previous scene set untouched.
func (s *Store) CommitAnalysis(ctx context.Context, projectID string, scenes []Scene) ([]Scene, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "store", "commit analysis", "begin transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM scenes WHERE project_id = ?`, projectID); err != nil {
		return nil, services.Wrap(services.ErrTransient, "store", "commit analysis", "clear previous scenes", err)
	}

	committed := make([]Scene, len(scenes))
	for i, scene := range scenes {
		scene.ProjectID = projectID
		if scene.ID == "" {
			scene.ID = uuid.NewString()
		}
		_, err := tx.ExecContext(ctx, `
            INSERT INTO scenes (id, project_id, frame_number, timestamp, thumbnail_path, description, audio_path, duration)
            VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			scene.ID, scene.ProjectID, scene.FrameNumber, scene.Timestamp,
			scene.ThumbnailPath, scene.Description, scene.AudioPath, scene.Duration)
		if err != nil {
			return nil, services.Wrap(services.ErrTransient, "store", "commit analysis", "insert scene", err)
		}
		committed[i] = scene
	}

	result, err := tx.ExecContext(ctx, `
        UPDATE projects SET status = ?, total_scenes = ?, error_message = NULL, updated_at = ? WHERE id = ?`,
		string(StatusAnalyzed), len(committed), timeToString(time.Now().UTC()), projectID)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "store", "commit analysis", "update project", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "store", "commit analysis", "read rows affected", err)
	}
	if affected == 0 {
		return nil, services.Wrap(services.ErrNotFound, "store", "commit analysis", "project "+projectID+" not found", nil)
	}

	if err := tx.Commit(); err != nil {
		return nil, services.Wrap(services.ErrTransient, "store", "commit analysis", "commit transaction", err)
	}
	return committed, nil
}

// GetScene fetches a single scene by ID.
func (s *Store) GetScene(ctx context.Context, id string) (*Scene, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sceneColumns+` FROM scenes WHERE id = ?`, id)
	scene, err := scanScene(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, services.Wrap(services.ErrNotFound, "store", "get scene", "scene "+id+" not found", nil)
	}
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "store", "get scene", "query scene", err)
	}
	return scene, nil
}

// ScenesForProject returns a project's scenes ordered by frame number.
func (s *Store) ScenesForProject(ctx context.Context, projectID string) ([]Scene, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT `+sceneColumns+` FROM scenes WHERE project_id = ? ORDER BY frame_number, id`, projectID)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "store", "scenes for project", "query scenes", err)
	}
	defer rows.Close()

	var scenes []Scene
	for rows.Next() {
		scene, err := scanScene(rows)
		if err != nil {
			return nil, services.Wrap(services.ErrTransient, "store", "scenes for project", "scan scene", err)
		}
		scenes = append(scenes, *scene)
	}
	if err := rows.Err(); err != nil {
		return nil, services.Wrap(services.ErrTransient, "store", "scenes for project", "iterate scenes", err)
	}
	return scenes, nil
}

// UpdateSceneNarration stores an edited description plus its regenerated
// audio path and duration. Frame fields never change after analysis.
func (s *Store) UpdateSceneNarration(ctx context.Context, id, description, audioPath string, duration float64) error {
	result, err := s.db.ExecContext(ctx, `
        UPDATE scenes SET description = ?, audio_path = ?, duration = ? WHERE id = ?`,
		description, audioPath, duration, id)
	if err != nil {
		return services.Wrap(services.ErrTransient, "store", "update scene", "update scene", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return services.Wrap(services.ErrTransient, "store", "update scene", "read rows affected", err)
	}
	if affected == 0 {
		return services.Wrap(services.ErrNotFound, "store", "update scene", "scene "+id+" not found", nil)
	}
	return nil
}

func scanScene(row rowScanner) (*Scene, error) {
	var scene Scene
	err := row.Scan(&scene.ID, &scene.ProjectID, &scene.FrameNumber, &scene.Timestamp,
		&scene.ThumbnailPath, &scene.Description, &scene.AudioPath, &scene.Duration)
	if err != nil {
		return nil, err
	}
	return &scene, nil
}
