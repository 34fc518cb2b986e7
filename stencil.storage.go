package stencil

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"sort"
	"strings"
	"sync"
	"time"
)

// TemplateID uniquely identifies one stored template version.
type TemplateID string

// StoredTemplate is one version of a template source held by a storage
// backend.
type StoredTemplate struct {
	// ID is unique per version.
	ID TemplateID `json:"id"`

	// Name is the view name, e.g. "mail/welcome".
	Name string `json:"name"`

	// Source is the raw template text.
	Source string `json:"source"`

	// Version starts at 1 and increments on every Save.
	Version int `json:"version"`

	Metadata map[string]string `json:"metadata,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// CreatedBy identifies who saved this version (optional).
	CreatedBy string `json:"created_by,omitempty"`

	Tags []string `json:"tags,omitempty"`
}

// TemplateQuery filters List results. Zero values match everything.
type TemplateQuery struct {
	NamePrefix   string
	NameContains string
	CreatedBy    string
	// Tags must all be present on a template
	Tags []string

	Limit  int
	Offset int

	// IncludeAllVersions lists every version instead of only the latest.
	IncludeAllVersions bool
}

// TemplateStorage stores versioned template sources.
// Implementations must be safe for concurrent use.
type TemplateStorage interface {
	// Get returns the latest version of a template.
	Get(ctx context.Context, name string) (*StoredTemplate, error)

	// GetVersion returns one specific version.
	GetVersion(ctx context.Context, name string, version int) (*StoredTemplate, error)

	// Save stores tmpl as a new version and fills in its ID, Version and
	// timestamps.
	Save(ctx context.Context, tmpl *StoredTemplate) error

	// Delete removes every version of a template.
	Delete(ctx context.Context, name string) error

	// DeleteVersion removes one version.
	DeleteVersion(ctx context.Context, name string, version int) error

	// List returns templates matching query, ordered by name then version
	// descending.
	List(ctx context.Context, query *TemplateQuery) ([]*StoredTemplate, error)

	// Exists reports whether any version of a template is stored.
	Exists(ctx context.Context, name string) (bool, error)

	// ListVersions returns the stored version numbers, newest first.
	ListVersions(ctx context.Context, name string) ([]int, error)

	// Close releases resources. Later calls fail.
	Close() error
}

// StorageDriver opens storage instances from a connection string.
// Drivers register themselves during init().
type StorageDriver interface {
	// Open creates a storage instance. The connection string format is
	// driver-specific.
	Open(connectionString string) (TemplateStorage, error)
}

// Storage driver registry
var (
	storageDriversMu sync.RWMutex
	storageDrivers   = make(map[string]StorageDriver)
)

// RegisterStorageDriver registers a storage driver by name.
// Panics if the driver is nil or the name is taken.
func RegisterStorageDriver(name string, driver StorageDriver) {
	storageDriversMu.Lock()
	defer storageDriversMu.Unlock()

	if driver == nil {
		panic(ErrMsgNilStorageDriver)
	}
	if _, exists := storageDrivers[name]; exists {
		panic(ErrMsgDriverAlreadyRegistered + ": " + name)
	}
	storageDrivers[name] = driver
}

// OpenStorage opens a storage using the named driver.
//
//	storage, err := stencil.OpenStorage("memory", "")
//	storage, err := stencil.OpenStorage("filesystem", "/srv/views")
//	storage, err := stencil.OpenStorage("postgres", "postgres://...")
func OpenStorage(driverName, connectionString string) (TemplateStorage, error) {
	storageDriversMu.RLock()
	driver, ok := storageDrivers[driverName]
	storageDriversMu.RUnlock()

	if !ok {
		return nil, NewStorageDriverNotFoundError(driverName)
	}
	return driver.Open(connectionString)
}

// ListStorageDrivers returns the registered driver names, sorted.
func ListStorageDrivers() []string {
	storageDriversMu.RLock()
	defer storageDriversMu.RUnlock()

	names := make([]string, 0, len(storageDrivers))
	for name := range storageDrivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// matchesQuery checks a stored template against the query filters
func matchesQuery(tmpl *StoredTemplate, query *TemplateQuery) bool {
	if query.NamePrefix != "" && !strings.HasPrefix(tmpl.Name, query.NamePrefix) {
		return false
	}
	if query.NameContains != "" && !strings.Contains(tmpl.Name, query.NameContains) {
		return false
	}
	if query.CreatedBy != "" && tmpl.CreatedBy != query.CreatedBy {
		return false
	}
	for _, tag := range query.Tags {
		if !containsString(tmpl.Tags, tag) {
			return false
		}
	}
	return true
}

// pageResults sorts by name then version descending and applies offset and
// limit
func pageResults(results []*StoredTemplate, query *TemplateQuery) []*StoredTemplate {
	sort.Slice(results, func(i, j int) bool {
		if results[i].Name != results[j].Name {
			return results[i].Name < results[j].Name
		}
		return results[i].Version > results[j].Version
	})

	if query.Offset > 0 {
		if query.Offset >= len(results) {
			return []*StoredTemplate{}
		}
		results = results[query.Offset:]
	}
	if query.Limit > 0 && len(results) > query.Limit {
		results = results[:query.Limit]
	}
	if results == nil {
		results = []*StoredTemplate{}
	}
	return results
}

func containsString(slice []string, s string) bool {
	for _, item := range slice {
		if item == s {
			return true
		}
	}
	return false
}

// generateTemplateID returns a random "tmpl_" prefixed ID
func generateTemplateID() TemplateID {
	b := make([]byte, TemplateIDRandBytes)
	_, _ = rand.Read(b)
	return TemplateID(TemplateIDPrefix + hex.EncodeToString(b))
}

// copyStoredTemplate deep-copies a stored template
func copyStoredTemplate(tmpl *StoredTemplate) *StoredTemplate {
	if tmpl == nil {
		return nil
	}
	out := *tmpl
	if tmpl.Metadata != nil {
		out.Metadata = make(map[string]string, len(tmpl.Metadata))
		for k, v := range tmpl.Metadata {
			out.Metadata[k] = v
		}
	}
	if tmpl.Tags != nil {
		out.Tags = append([]string(nil), tmpl.Tags...)
	}
	return &out
}

// validateTemplateName rejects names that cannot be stored
func validateTemplateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return NewInvalidTemplateNameError(name)
	}
	return nil
}
