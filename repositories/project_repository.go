package repositories

import (
	"context"

	"gorm.io/gorm"

	"rbac-center/models"
)

type ProjectRepository interface {
	Create(ctx context.Context, project *models.Project) error
	FindByID(ctx context.Context, id uint) (*models.Project, error)
	FindAll(ctx context.Context) ([]models.Project, error)
	AddRelease(ctx context.Context, release *models.Release) error
}

type projectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &projectRepository{db: db}
}

func (r *projectRepository) Create(ctx context.Context, project *models.Project) error {
	return r.db.WithContext(ctx).Create(project).Error
}

// FindByID loads the project with its releases, newest first.
func (r *projectRepository) FindByID(ctx context.Context, id uint) (*models.Project, error) {
	var project models.Project
	err := r.db.WithContext(ctx).
		Preload("Releases", func(db *gorm.DB) *gorm.DB { return db.Order("id DESC") }).
		First(&project, id).Error
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func (r *projectRepository) FindAll(ctx context.Context) ([]models.Project, error) {
	var projects []models.Project
	err := r.db.WithContext(ctx).Order("name").Find(&projects).Error
	return projects, err
}

func (r *projectRepository) AddRelease(ctx context.Context, release *models.Release) error {
	return r.db.WithContext(ctx).Create(release).Error
}
