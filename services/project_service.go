package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"rbac-center/models"
	"rbac-center/repositories"
)

type CreateProjectInput struct {
	Name        string `json:"name" validate:"required,max=150"`
	Description string `json:"description"`
}

type CreateReleaseInput struct {
	Version     string `json:"version" validate:"required,max=20"`
	Description string `json:"description"`
	FileName    string `json:"file_name" validate:"max=255"`
}

type ProjectService interface {
	CreateProject(ctx context.Context, input *CreateProjectInput) (*models.Project, error)
	ListProjects(ctx context.Context) ([]models.Project, error)
	GetProject(ctx context.Context, id uint) (*models.Project, error)
	AddRelease(ctx context.Context, projectID uint, input *CreateReleaseInput) (*models.Release, error)
}

type projectService struct {
	store *repositories.Store
}

func NewProjectService(store *repositories.Store) ProjectService {
	return &projectService{store: store}
}

func (s *projectService) CreateProject(ctx context.Context, input *CreateProjectInput) (*models.Project, error) {
	if err := validate.Struct(input); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	project := &models.Project{Name: input.Name, Description: input.Description}
	if err := s.store.Projects.Create(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

func (s *projectService) ListProjects(ctx context.Context) ([]models.Project, error) {
	return s.store.Projects.FindAll(ctx)
}

func (s *projectService) GetProject(ctx context.Context, id uint) (*models.Project, error) {
	project, err := s.store.Projects.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: id %d", ErrProjectNotFound, id)
		}
		return nil, err
	}
	return project, nil
}

func (s *projectService) AddRelease(ctx context.Context, projectID uint, input *CreateReleaseInput) (*models.Release, error) {
	if err := validate.Struct(input); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if _, err := s.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	release := &models.Release{
		ProjectID:   projectID,
		Version:     input.Version,
		Description: input.Description,
		FileName:    input.FileName,
	}
	if err := s.store.Projects.AddRelease(ctx, release); err != nil {
		return nil, err
	}
	return release, nil
}
