package stencil

import (
	"context"
	"sync"
	"time"
)

// MemoryStorage keeps templates in process memory. Intended for tests and
// development; everything is lost on exit.
type MemoryStorage struct {
	mu        sync.RWMutex
	templates map[string][]*StoredTemplate // newest version first
	closed    bool
}

// MemoryStorageDriver opens MemoryStorage instances.
type MemoryStorageDriver struct{}

func init() {
	RegisterStorageDriver(StorageDriverNameMemory, &MemoryStorageDriver{})
}

// Open ignores the connection string.
func (d *MemoryStorageDriver) Open(_ string) (TemplateStorage, error) {
	return NewMemoryStorage(), nil
}

// NewMemoryStorage creates an empty in-memory storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		templates: make(map[string][]*StoredTemplate),
	}
}

// Get returns the latest version of a template.
func (s *MemoryStorage) Get(ctx context.Context, name string) (*StoredTemplate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, NewStorageClosedError()
	}

	versions := s.templates[name]
	if len(versions) == 0 {
		return nil, NewTemplateNotFoundError(name)
	}
	return copyStoredTemplate(versions[0]), nil
}

// GetVersion returns one specific version.
func (s *MemoryStorage) GetVersion(ctx context.Context, name string, version int) (*StoredTemplate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, NewStorageClosedError()
	}

	for _, tmpl := range s.templates[name] {
		if tmpl.Version == version {
			return copyStoredTemplate(tmpl), nil
		}
	}
	return nil, NewVersionNotFoundError(name, version)
}

// Save stores tmpl as the next version.
func (s *MemoryStorage) Save(ctx context.Context, tmpl *StoredTemplate) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateTemplateName(tmpl.Name); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return NewStorageClosedError()
	}

	versions := s.templates[tmpl.Name]
	next := 1
	if len(versions) > 0 {
		next = versions[0].Version + 1
	}

	now := time.Now()
	tmpl.ID = generateTemplateID()
	tmpl.Version = next
	tmpl.CreatedAt = now
	tmpl.UpdatedAt = now

	s.templates[tmpl.Name] = append([]*StoredTemplate{copyStoredTemplate(tmpl)}, versions...)
	return nil
}

// Delete removes every version of a template.
func (s *MemoryStorage) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return NewStorageClosedError()
	}

	if _, ok := s.templates[name]; !ok {
		return NewTemplateNotFoundError(name)
	}
	delete(s.templates, name)
	return nil
}

// DeleteVersion removes one version.
func (s *MemoryStorage) DeleteVersion(ctx context.Context, name string, version int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return NewStorageClosedError()
	}

	versions := s.templates[name]
	for i, tmpl := range versions {
		if tmpl.Version != version {
			continue
		}
		rest := append(versions[:i:i], versions[i+1:]...)
		if len(rest) == 0 {
			delete(s.templates, name)
		} else {
			s.templates[name] = rest
		}
		return nil
	}
	return NewVersionNotFoundError(name, version)
}

// List returns templates matching query.
func (s *MemoryStorage) List(ctx context.Context, query *TemplateQuery) ([]*StoredTemplate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, NewStorageClosedError()
	}
	if query == nil {
		query = &TemplateQuery{}
	}

	var results []*StoredTemplate
	for _, versions := range s.templates {
		if len(versions) == 0 {
			continue
		}
		candidates := versions[:1]
		if query.IncludeAllVersions {
			candidates = versions
		}
		for _, tmpl := range candidates {
			if matchesQuery(tmpl, query) {
				results = append(results, copyStoredTemplate(tmpl))
			}
		}
	}
	return pageResults(results, query), nil
}

// Exists reports whether any version of name is stored.
func (s *MemoryStorage) Exists(ctx context.Context, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return false, NewStorageClosedError()
	}
	return len(s.templates[name]) > 0, nil
}

// ListVersions returns version numbers, newest first.
func (s *MemoryStorage) ListVersions(ctx context.Context, name string) ([]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, NewStorageClosedError()
	}

	versions := s.templates[name]
	result := make([]int, len(versions))
	for i, tmpl := range versions {
		result[i] = tmpl.Version
	}
	return result, nil
}

// Close drops all templates.
func (s *MemoryStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.templates = nil
	return nil
}
