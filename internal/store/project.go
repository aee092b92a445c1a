package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"planforge.app/anvil/internal/model"
)

type projectStore struct {
	db DBTX
}

func newProjectStore(db DBTX) ProjectStore {
	return &projectStore{db: db}
}

const projectColumns = `id, name, customer_name, status, created_at, updated_at`

func (s *projectStore) GetByID(ctx context.Context, id int64) (*model.Project, error) {
	row := s.db.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1`, id)
	return scanProject(row)
}

func (s *projectStore) Create(ctx context.Context, project *model.Project) error {
	row := s.db.QueryRow(ctx, `
		INSERT INTO projects (id, name, customer_name, status)
		VALUES ($1, $2, $3, $4)
		RETURNING `+projectColumns,
		project.ID, project.Name, project.CustomerName, project.Status)

	created, err := scanProject(row)
	if err != nil {
		return err
	}
	*project = *created
	return nil
}

func (s *projectStore) Update(ctx context.Context, project *model.Project) error {
	row := s.db.QueryRow(ctx, `
		UPDATE projects
		SET name = $2, customer_name = $3, status = $4, updated_at = now()
		WHERE id = $1
		RETURNING `+projectColumns,
		project.ID, project.Name, project.CustomerName, project.Status)

	updated, err := scanProject(row)
	if err != nil {
		return err
	}
	*project = *updated
	return nil
}

func (s *projectStore) List(ctx context.Context, status *model.ProjectStatus) ([]model.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects ORDER BY created_at DESC`
	args := []any{}
	if status != nil {
		query = `SELECT ` + projectColumns + ` FROM projects WHERE status = $1 ORDER BY created_at DESC`
		args = append(args, *status)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []model.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, *p)
	}
	return projects, rows.Err()
}

func scanProject(row pgx.Row) (*model.Project, error) {
	var p model.Project
	err := row.Scan(&p.ID, &p.Name, &p.CustomerName, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}
