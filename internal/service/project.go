package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"planforge.app/anvil/common/id"
	"planforge.app/anvil/internal/model"
	"planforge.app/anvil/internal/store"
)

type ProjectService interface {
	Create(ctx context.Context, name, customerName string) (*model.Project, error)
	Get(ctx context.Context, projectID int64) (*model.Project, error)
	List(ctx context.Context, status *model.ProjectStatus) ([]model.Project, error)
	Rename(ctx context.Context, projectID int64, name string) (*model.Project, error)
	Archive(ctx context.Context, projectID int64) (*model.Project, error)
}

type projectService struct {
	projectStore store.ProjectStore
}

func NewProjectService(projectStore store.ProjectStore) ProjectService {
	return &projectService{projectStore: projectStore}
}

func (s *projectService) Create(ctx context.Context, name, customerName string) (*model.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("project name is required")
	}

	project := &model.Project{
		ID:           id.New(),
		Name:         name,
		CustomerName: strings.TrimSpace(customerName),
		Status:       model.ProjectStatusActive,
	}

	if err := s.projectStore.Create(ctx, project); err != nil {
		slog.ErrorContext(ctx, "failed to create project", "error", err, "name", name)
		return nil, fmt.Errorf("creating project: %w", err)
	}

	slog.InfoContext(ctx, "project created", "project_id", project.ID)
	return project, nil
}

func (s *projectService) Get(ctx context.Context, projectID int64) (*model.Project, error) {
	return s.projectStore.GetByID(ctx, projectID)
}

func (s *projectService) List(ctx context.Context, status *model.ProjectStatus) ([]model.Project, error) {
	return s.projectStore.List(ctx, status)
}

func (s *projectService) Rename(ctx context.Context, projectID int64, name string) (*model.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("project name is required")
	}

	project, err := s.projectStore.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}

	project.Name = name
	if err := s.projectStore.Update(ctx, project); err != nil {
		return nil, fmt.Errorf("renaming project: %w", err)
	}

	slog.InfoContext(ctx, "project renamed", "project_id", project.ID)
	return project, nil
}

func (s *projectService) Archive(ctx context.Context, projectID int64) (*model.Project, error) {
	project, err := s.projectStore.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}

	project.Status = model.ProjectStatusArchived
	if err := s.projectStore.Update(ctx, project); err != nil {
		return nil, fmt.Errorf("archiving project: %w", err)
	}

	slog.InfoContext(ctx, "project archived", "project_id", project.ID)
	return project, nil
}
