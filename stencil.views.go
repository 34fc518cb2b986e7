package stencil

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Views renders named templates loaded from a TemplateStorage. Compiled
// templates are cached per name and version, so a new Save is picked up
// by the next Render without explicit invalidation.
type Views struct {
	engine  *Engine
	storage TemplateStorage
	logger  *zap.Logger

	mu    sync.RWMutex
	cache map[string]map[int]*Template // name -> version -> template
}

// NewViews creates a view renderer over storage.
func NewViews(engine *Engine, storage TemplateStorage) (*Views, error) {
	if engine == nil {
		return nil, NewStorageError(ErrMsgNilEngine, "", nil)
	}
	if storage == nil {
		return nil, NewStorageError(ErrMsgNilStorage, "", nil)
	}
	return &Views{
		engine:  engine,
		storage: storage,
		logger:  engine.logger,
		cache:   make(map[string]map[int]*Template),
	}, nil
}

// Render renders the latest version of a view, e.g. "mail/welcome".
func (v *Views) Render(ctx context.Context, name string, data map[string]any) (string, error) {
	tmpl, err := v.Load(ctx, name)
	if err != nil {
		return "", err
	}
	return tmpl.Execute(ctx, data)
}

// RenderVersion renders one specific version of a view.
func (v *Views) RenderVersion(ctx context.Context, name string, version int, data map[string]any) (string, error) {
	tmpl, err := v.LoadVersion(ctx, name, version)
	if err != nil {
		return "", err
	}
	return tmpl.Execute(ctx, data)
}

// Load returns the compiled latest version of a view.
func (v *Views) Load(ctx context.Context, name string) (*Template, error) {
	key, err := NormalizeViewName(name)
	if err != nil {
		return nil, err
	}
	stored, err := v.storage.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	return v.compile(stored)
}

// LoadVersion returns one compiled version of a view.
func (v *Views) LoadVersion(ctx context.Context, name string, version int) (*Template, error) {
	key, err := NormalizeViewName(name)
	if err != nil {
		return nil, err
	}
	if tmpl, ok := v.cached(key, version); ok {
		return tmpl, nil
	}
	stored, err := v.storage.GetVersion(ctx, key, version)
	if err != nil {
		return nil, err
	}
	return v.compile(stored)
}

// Save compiles source and, when it is valid, stores it as the next
// version of the view.
func (v *Views) Save(ctx context.Context, name, source string) (*StoredTemplate, error) {
	key, err := NormalizeViewName(name)
	if err != nil {
		return nil, err
	}
	if err := v.engine.Validate(source); err != nil {
		return nil, err
	}
	stored := &StoredTemplate{Name: key, Source: source}
	if err := v.storage.Save(ctx, stored); err != nil {
		return nil, err
	}
	v.logger.Debug(LogMsgTemplateSaved,
		zap.String(LogFieldView, key),
		zap.Int(LogFieldVersion, stored.Version),
	)
	return stored, nil
}

// Delete removes every stored version of a view and its cache entries.
func (v *Views) Delete(ctx context.Context, name string) error {
	key, err := NormalizeViewName(name)
	if err != nil {
		return err
	}
	if err := v.storage.Delete(ctx, key); err != nil {
		return err
	}
	v.Invalidate(key)
	v.logger.Debug(LogMsgTemplateDeleted, zap.String(LogFieldView, key))
	return nil
}

// Invalidate drops every cached version of a view.
func (v *Views) Invalidate(name string) {
	key, err := NormalizeViewName(name)
	if err != nil {
		return
	}
	v.mu.Lock()
	delete(v.cache, key)
	v.mu.Unlock()
	v.logger.Debug(LogMsgViewInvalidated, zap.String(LogFieldView, key))
}

// InvalidateAll empties the cache.
func (v *Views) InvalidateAll() {
	v.mu.Lock()
	v.cache = make(map[string]map[int]*Template)
	v.mu.Unlock()
	v.logger.Debug(LogMsgViewsInvalidated)
}

// Cached reports how many compiled templates are held.
func (v *Views) Cached() int {
	v.mu.RLock()
	defer v.mu.RUnlock()

	n := 0
	for _, versions := range v.cache {
		n += len(versions)
	}
	return n
}

func (v *Views) cached(name string, version int) (*Template, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	tmpl, ok := v.cache[name][version]
	return tmpl, ok
}

// compile returns the cached template for a stored version, compiling it
// on first use
func (v *Views) compile(stored *StoredTemplate) (*Template, error) {
	if tmpl, ok := v.cached(stored.Name, stored.Version); ok {
		v.logger.Debug(LogMsgViewCacheHit,
			zap.String(LogFieldView, stored.Name),
			zap.Int(LogFieldVersion, stored.Version),
		)
		return tmpl, nil
	}

	tmpl, err := v.engine.Compile(stored.Source)
	if err != nil {
		v.logger.Warn(LogMsgTemplateLoadFailed,
			zap.String(LogFieldView, stored.Name),
			zap.Int(LogFieldVersion, stored.Version),
			zap.Error(err),
		)
		return nil, err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	versions := v.cache[stored.Name]
	if versions == nil {
		versions = make(map[int]*Template)
		v.cache[stored.Name] = versions
	}
	if existing, ok := versions[stored.Version]; ok {
		return existing, nil
	}
	versions[stored.Version] = tmpl
	v.logger.Debug(LogMsgViewCompiled,
		zap.String(LogFieldView, stored.Name),
		zap.Int(LogFieldVersion, stored.Version),
	)
	return tmpl, nil
}

// NormalizeViewName turns a view reference such as "/mail/welcome.tpl"
// into its storage name "mail/welcome". Empty segments, "." and ".." are
// rejected.
func NormalizeViewName(name string) (string, error) {
	key := strings.Trim(strings.TrimSpace(name), ViewPathSeparator)
	for _, ext := range ViewExtensions {
		if strings.HasSuffix(key, ext) && len(key) > len(ext) {
			key = strings.TrimSuffix(key, ext)
			break
		}
	}
	if key == "" || strings.ContainsAny(key, "\\:*?\"<>|") {
		return "", NewInvalidViewNameError(name)
	}
	for _, seg := range strings.Split(key, ViewPathSeparator) {
		if seg == "" || seg == ViewParentSegment || seg == ViewCurrentSegment {
			return "", NewInvalidViewNameError(name)
		}
	}
	return key, nil
}
