package stencil

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"
)

// FilesystemStorage stores every template version as a JSON file.
// Slash-separated names map to nested directories:
//
//	<root>/
//	  mail/
//	    welcome/
//	      v1.json
//	      v2.json
type FilesystemStorage struct {
	mu     sync.RWMutex
	root   string
	closed bool
}

// FilesystemStorageDriver opens FilesystemStorage instances.
type FilesystemStorageDriver struct{}

func init() {
	RegisterStorageDriver(StorageDriverNameFilesystem, &FilesystemStorageDriver{})
}

// Open treats the connection string as the root directory.
func (d *FilesystemStorageDriver) Open(connectionString string) (TemplateStorage, error) {
	return NewFilesystemStorage(connectionString)
}

// NewFilesystemStorage creates a storage rooted at root, creating the
// directory if needed.
func NewFilesystemStorage(root string) (*FilesystemStorage, error) {
	if root == "" {
		return nil, NewStorageError(ErrMsgInvalidStorageRoot, "", nil)
	}
	if err := os.MkdirAll(root, FilesystemDirPerm); err != nil {
		return nil, NewStorageError(ErrMsgStorageWriteFailed, root, err)
	}
	return &FilesystemStorage{root: root}, nil
}

// Root returns the storage directory.
func (s *FilesystemStorage) Root() string {
	return s.root
}

// Get returns the latest version of a template.
func (s *FilesystemStorage) Get(ctx context.Context, name string) (*StoredTemplate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validateFilesystemName(name); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, NewStorageClosedError()
	}

	versions, err := s.versions(name)
	if err != nil {
		return nil, err
	}
	if len(versions) == 0 {
		return nil, NewTemplateNotFoundError(name)
	}
	return s.load(name, versions[0])
}

// GetVersion returns one specific version.
func (s *FilesystemStorage) GetVersion(ctx context.Context, name string, version int) (*StoredTemplate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validateFilesystemName(name); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, NewStorageClosedError()
	}
	return s.load(name, version)
}

// Save writes tmpl as the next version file.
func (s *FilesystemStorage) Save(ctx context.Context, tmpl *StoredTemplate) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateFilesystemName(tmpl.Name); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return NewStorageClosedError()
	}

	dir := s.dir(tmpl.Name)
	if err := os.MkdirAll(dir, FilesystemDirPerm); err != nil {
		return NewStorageError(ErrMsgStorageWriteFailed, tmpl.Name, err)
	}

	versions, err := s.versions(tmpl.Name)
	if err != nil {
		return err
	}
	next := 1
	if len(versions) > 0 {
		next = versions[0] + 1
	}

	now := time.Now()
	stored := copyStoredTemplate(tmpl)
	stored.ID = generateTemplateID()
	stored.Version = next
	stored.CreatedAt = now
	stored.UpdatedAt = now

	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return NewStorageError(ErrMsgStorageWriteFailed, tmpl.Name, err)
	}
	if err := os.WriteFile(s.file(tmpl.Name, next), data, FilesystemFilePerm); err != nil {
		return NewStorageError(ErrMsgStorageWriteFailed, tmpl.Name, err)
	}

	tmpl.ID = stored.ID
	tmpl.Version = stored.Version
	tmpl.CreatedAt = stored.CreatedAt
	tmpl.UpdatedAt = stored.UpdatedAt
	return nil
}

// Delete removes every version file of a template. Nested templates below
// the same directory are kept.
func (s *FilesystemStorage) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateFilesystemName(name); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return NewStorageClosedError()
	}

	versions, err := s.versions(name)
	if err != nil {
		return err
	}
	if len(versions) == 0 {
		return NewTemplateNotFoundError(name)
	}
	for _, v := range versions {
		if err := os.Remove(s.file(name, v)); err != nil {
			return NewStorageError(ErrMsgStorageWriteFailed, name, err)
		}
	}
	// best effort: only succeeds when the directory is now empty
	_ = os.Remove(s.dir(name))
	return nil
}

// DeleteVersion removes one version file.
func (s *FilesystemStorage) DeleteVersion(ctx context.Context, name string, version int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateFilesystemName(name); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return NewStorageClosedError()
	}

	err := os.Remove(s.file(name, version))
	if os.IsNotExist(err) {
		return NewVersionNotFoundError(name, version)
	}
	if err != nil {
		return NewStorageError(ErrMsgStorageWriteFailed, name, err)
	}
	_ = os.Remove(s.dir(name))
	return nil
}

// List walks the root directory and returns templates matching query.
// Unreadable version files are skipped.
func (s *FilesystemStorage) List(ctx context.Context, query *TemplateQuery) ([]*StoredTemplate, error) {
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
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() || path == s.root {
			return nil
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)

		versions, err := s.versions(name)
		if err != nil || len(versions) == 0 {
			return nil
		}
		if !query.IncludeAllVersions {
			versions = versions[:1]
		}
		for _, v := range versions {
			tmpl, err := s.load(name, v)
			if err != nil {
				continue
			}
			if matchesQuery(tmpl, query) {
				results = append(results, tmpl)
			}
		}
		return nil
	})
	if err != nil {
		return nil, NewStorageError(ErrMsgStorageReadFailed, "", err)
	}
	return pageResults(results, query), nil
}

// Exists reports whether any version file of name exists.
func (s *FilesystemStorage) Exists(ctx context.Context, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if err := validateFilesystemName(name); err != nil {
		return false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return false, NewStorageClosedError()
	}

	versions, err := s.versions(name)
	if err != nil {
		return false, err
	}
	return len(versions) > 0, nil
}

// ListVersions returns version numbers, newest first.
func (s *FilesystemStorage) ListVersions(ctx context.Context, name string) ([]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validateFilesystemName(name); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, NewStorageClosedError()
	}
	return s.versions(name)
}

// Close marks the storage as closed.
func (s *FilesystemStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}

func (s *FilesystemStorage) dir(name string) string {
	return filepath.Join(s.root, filepath.FromSlash(name))
}

func (s *FilesystemStorage) file(name string, version int) string {
	return filepath.Join(s.dir(name), FilesystemVersionPrefix+strconv.Itoa(version)+FilesystemFileExt)
}

// versions lists the version numbers stored for name, newest first (no
// locking)
func (s *FilesystemStorage) versions(name string) ([]int, error) {
	entries, err := os.ReadDir(s.dir(name))
	if err != nil {
		if os.IsNotExist(err) {
			return []int{}, nil
		}
		return nil, NewStorageError(ErrMsgStorageReadFailed, name, err)
	}

	versions := []int{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if v := parseVersionFile(entry.Name()); v > 0 {
			versions = append(versions, v)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(versions)))
	return versions, nil
}

// load reads one version file (no locking)
func (s *FilesystemStorage) load(name string, version int) (*StoredTemplate, error) {
	data, err := os.ReadFile(s.file(name, version))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, NewVersionNotFoundError(name, version)
		}
		return nil, NewStorageError(ErrMsgStorageReadFailed, name, err)
	}

	var tmpl StoredTemplate
	if err := json.Unmarshal(data, &tmpl); err != nil {
		return nil, NewStorageError(ErrMsgStorageDecodeFailed, name, err)
	}
	return &tmpl, nil
}

// parseVersionFile extracts N from "vN.json", or returns 0
func parseVersionFile(filename string) int {
	if !strings.HasPrefix(filename, FilesystemVersionPrefix) || !strings.HasSuffix(filename, FilesystemFileExt) {
		return 0
	}
	digits := filename[len(FilesystemVersionPrefix) : len(filename)-len(FilesystemFileExt)]
	v, err := strconv.Atoi(digits)
	if err != nil || v <= 0 || strconv.Itoa(v) != digits {
		return 0
	}
	return v
}

// validateFilesystemName rejects names that would escape the root or are
// not portable as paths
func validateFilesystemName(name string) error {
	if err := validateTemplateName(name); err != nil {
		return err
	}
	if strings.HasPrefix(name, ViewPathSeparator) || strings.ContainsAny(name, "\\:*?\"<>|") {
		return NewInvalidTemplateNameError(name)
	}
	for _, seg := range strings.Split(name, ViewPathSeparator) {
		if seg == "" || seg == ViewParentSegment || seg == ViewCurrentSegment {
			return NewInvalidTemplateNameError(name)
		}
	}
	return nil
}
