package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"descant/internal/services"
)

const projectColumns = `id, video_path, original_filename, status, total_scenes, error_message, created_at, updated_at`

// NewProjectID allocates an identifier for a project whose assets must be
// laid out before the row is inserted.
func NewProjectID() string {
	return uuid.NewString()
}

// CreateProject inserts a new project in the uploaded state and returns it.
func (s *Store) CreateProject(ctx context.Context, videoPath, originalFilename string) (*Project, error) {
	return s.CreateProjectWithID(ctx, NewProjectID(), videoPath, originalFilename)
}

// CreateProjectWithID inserts a new project under a caller-allocated ID.
func (s *Store) CreateProjectWithID(ctx context.Context, id, videoPath, originalFilename string) (*Project, error) {
	now := time.Now().UTC()
	project := &Project{
		ID:               id,
		VideoPath:        videoPath,
		OriginalFilename: originalFilename,
		Status:           StatusUploaded,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO projects (id, video_path, original_filename, status, total_scenes, error_message, created_at, updated_at)
        VALUES (?, ?, ?, ?, 0, NULL, ?, ?)`,
		project.ID, project.VideoPath, project.OriginalFilename, string(project.Status),
		timeToString(project.CreatedAt), timeToString(project.UpdatedAt))
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "store", "create project", "insert project", err)
	}
	return project, nil
}

// GetProject fetches a project by ID. Returns ErrNotFound when absent.
func (s *Store) GetProject(ctx context.Context, id string) (*Project, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, id)
	project, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, services.Wrap(services.ErrNotFound, "store", "get project", "project "+id+" not found", nil)
	}
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "store", "get project", "query project", err)
	}
	return project, nil
}

// ListProjects returns all projects, most recently created first.
func (s *Store) ListProjects(ctx context.Context) ([]*Project, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "store", "list projects", "query projects", err)
	}
	defer rows.Close()

	var projects []*Project
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, services.Wrap(services.ErrTransient, "store", "list projects", "scan project", err)
		}
		projects = append(projects, project)
	}
	if err := rows.Err(); err != nil {
		return nil, services.Wrap(services.ErrTransient, "store", "list projects", "iterate projects", err)
	}
	return projects, nil
}

// SetProjectStatus transitions a project to the given status. A non-empty
// errorMessage is recorded alongside; otherwise any previous message clears.
func (s *Store) SetProjectStatus(ctx context.Context, id string, status Status, errorMessage string) error {
	result, err := s.db.ExecContext(ctx, `
        UPDATE projects SET status = ?, error_message = ?, updated_at = ? WHERE id = ?`,
		string(status), nullableString(errorMessage), timeToString(time.Now().UTC()), id)
	if err != nil {
		return services.Wrap(services.ErrTransient, "store", "set project status", "update project", err)
	}
	return requireRow(result, "set project status", id)
}

// DeleteProject removes a project and, via cascade, its scenes.
func (s *Store) DeleteProject(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return services.Wrap(services.ErrTransient, "store", "delete project", "delete project", err)
	}
	return requireRow(result, "delete project", id)
}

func requireRow(result sql.Result, operation, id string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return services.Wrap(services.ErrTransient, "store", operation, "read rows affected", err)
	}
	if affected == 0 {
		return services.Wrap(services.ErrNotFound, "store", operation, "project "+id+" not found", nil)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (*Project, error) {
	var (
		project    Project
		status     string
		errMessage sql.NullString
		createdAt  string
		updatedAt  string
	)
	err := row.Scan(&project.ID, &project.VideoPath, &project.OriginalFilename, &status,
		&project.TotalScenes, &errMessage, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	parsed, ok := ParseStatus(status)
	if !ok {
		parsed = StatusError
	}
	project.Status = parsed
	project.ErrorMessage = errMessage.String
	project.CreatedAt = parseTimeString(createdAt)
	project.UpdatedAt = parseTimeString(updatedAt)
	return &project, nil
}
