package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rbac-center/services"
)

func TestProjects(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.projects.CreateProject(ctx, &services.CreateProjectInput{})
	assert.ErrorIs(t, err, services.ErrInvalidInput)

	beta, err := f.projects.CreateProject(ctx, &services.CreateProjectInput{Name: "beta"})
	require.NoError(t, err)
	alpha, err := f.projects.CreateProject(ctx, &services.CreateProjectInput{Name: "alpha", Description: "first"})
	require.NoError(t, err)

	projects, err := f.projects.ListProjects(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 2)
	assert.Equal(t, alpha.ID, projects[0].ID)
	assert.Equal(t, beta.ID, projects[1].ID)

	_, err = f.projects.AddRelease(ctx, alpha.ID, &services.CreateReleaseInput{Version: "1.0.0", FileName: "alpha-1.0.0.tar.gz"})
	require.NoError(t, err)
	_, err = f.projects.AddRelease(ctx, alpha.ID, &services.CreateReleaseInput{Version: "1.1.0"})
	require.NoError(t, err)

	got, err := f.projects.GetProject(ctx, alpha.ID)
	require.NoError(t, err)
	require.Len(t, got.Releases, 2)
	assert.Equal(t, "1.1.0", got.Releases[0].Version, "newest release first")

	_, err = f.projects.AddRelease(ctx, 999, &services.CreateReleaseInput{Version: "1.0.0"})
	assert.ErrorIs(t, err, services.ErrProjectNotFound)
	_, err = f.projects.AddRelease(ctx, alpha.ID, &services.CreateReleaseInput{})
	assert.ErrorIs(t, err, services.ErrInvalidInput)
	_, err = f.projects.GetProject(ctx, 999)
	assert.ErrorIs(t, err, services.ErrProjectNotFound)
}
