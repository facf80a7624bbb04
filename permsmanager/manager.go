// Package permsmanager collects permission declarations from feature modules
// while the application is being assembled, then persists them in one pass
// once the database is available.
//
// A Manager is filled during single-threaded startup and only read after
// that. It does no locking; registering from request handlers is a bug.
package permsmanager

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"rbac-center/models"
	"rbac-center/repositories"
)

var (
	ErrDuplicateStage = errors.New("permission already staged")
	ErrNotInitialized = errors.New("permsmanager: no store attached")
)

// Declaration describes one permission a module needs. Default marks
// permissions that the bootstrap grants to the default role.
type Declaration struct {
	Description string
	Default     bool
}

// Declarations maps permission names to their declaration.
type Declarations map[string]Declaration

type Manager struct {
	staged map[string]Declaration
	store  *repositories.Store
}

// New returns an empty manager with no store attached.
func New() *Manager {
	return &Manager{staged: make(map[string]Declaration)}
}

// Register stages decls. If any name is already staged, nothing from decls
// is staged and the error wraps ErrDuplicateStage. A malformed name rejects
// the batch the same way, wrapping models.ErrInvalidPermissionName.
func (m *Manager) Register(decls Declarations) error {
	for _, name := range sortedNames(decls) {
		if err := models.ValidatePermissionName(name); err != nil {
			return err
		}
		if _, ok := m.staged[name]; ok {
			return fmt.Errorf("%w: %q", ErrDuplicateStage, name)
		}
	}
	for name, decl := range decls {
		m.staged[name] = decl
	}
	return nil
}

// Init attaches the store CreateAll writes to.
func (m *Manager) Init(store *repositories.Store) {
	m.store = store
}

// CreateAll flushes the stage into the store given to Init.
func (m *Manager) CreateAll(ctx context.Context) (int, error) {
	if m.store == nil {
		return 0, ErrNotInitialized
	}
	return m.Flush(ctx, m.store)
}

// Flush inserts every staged permission not yet persisted and commits once.
// Persisted permissions are left as they are, so repeated flushes create
// nothing new. It returns the number of permissions created.
func (m *Manager) Flush(ctx context.Context, store *repositories.Store) (int, error) {
	created := 0
	err := store.Transaction(ctx, func(tx *repositories.Store) error {
		created = 0
		names, err := tx.Permissions.ListNames(ctx)
		if err != nil {
			return fmt.Errorf("list persisted permissions: %w", err)
		}
		existing := make(map[string]struct{}, len(names))
		for _, name := range names {
			existing[name] = struct{}{}
		}

		for _, name := range m.Names() {
			if _, ok := existing[name]; ok {
				continue
			}
			perm := &models.Permission{Name: name, Description: m.staged[name].Description}
			if err := tx.Permissions.Create(ctx, perm); err != nil {
				return fmt.Errorf("create permission %q: %w", name, err)
			}
			created++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return created, nil
}

// Names returns the staged permission names in sorted order.
func (m *Manager) Names() []string {
	return sortedNames(m.staged)
}

// Defaults returns name -> description for declarations flagged Default.
func (m *Manager) Defaults() map[string]string {
	out := make(map[string]string)
	for name, decl := range m.staged {
		if decl.Default {
			out[name] = decl.Description
		}
	}
	return out
}

func (m *Manager) Len() int {
	return len(m.staged)
}

func sortedNames[V any](decls map[string]V) []string {
	names := make([]string, 0, len(decls))
	for name := range decls {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
