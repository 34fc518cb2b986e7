package stencil

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestViews(t *testing.T) (*Views, TemplateStorage) {
	t.Helper()
	storage := NewMemoryStorage()
	views, err := NewViews(MustNew(), storage)
	require.NoError(t, err)
	return views, storage
}

func TestNewViews_NilArguments(t *testing.T) {
	_, err := NewViews(nil, NewMemoryStorage())
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrMsgNilEngine)

	_, err = NewViews(MustNew(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrMsgNilStorage)
}

func TestViews_SaveAndRender(t *testing.T) {
	views, _ := newTestViews(t)
	ctx := context.Background()

	stored, err := views.Save(ctx, "/mail/welcome.tpl", "Hello {$name}!")
	require.NoError(t, err)
	assert.Equal(t, "mail/welcome", stored.Name)
	assert.Equal(t, 1, stored.Version)

	out, err := views.Render(ctx, "mail/welcome", map[string]any{"name": "Ada"})
	require.NoError(t, err)
	assert.Equal(t, "Hello Ada!", out)
	assert.Equal(t, 1, views.Cached())
}

func TestViews_SaveRejectsInvalidSource(t *testing.T) {
	views, storage := newTestViews(t)
	ctx := context.Background()

	_, err := views.Save(ctx, "broken", "{if a}never closed")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnbalancedTag))

	ok, err := storage.Exists(ctx, "broken")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestViews_NewVersionPickedUp(t *testing.T) {
	views, _ := newTestViews(t)
	ctx := context.Background()

	_, err := views.Save(ctx, "page", "one")
	require.NoError(t, err)
	out, err := views.Render(ctx, "page", nil)
	require.NoError(t, err)
	assert.Equal(t, "one", out)

	_, err = views.Save(ctx, "page", "two")
	require.NoError(t, err)
	out, err = views.Render(ctx, "page", nil)
	require.NoError(t, err)
	assert.Equal(t, "two", out)

	out, err = views.RenderVersion(ctx, "page", 1, nil)
	require.NoError(t, err)
	assert.Equal(t, "one", out)
	assert.Equal(t, 2, views.Cached())
}

func TestViews_CacheReused(t *testing.T) {
	views, _ := newTestViews(t)
	ctx := context.Background()
	_, err := views.Save(ctx, "page", "x")
	require.NoError(t, err)

	first, err := views.Load(ctx, "page")
	require.NoError(t, err)
	second, err := views.Load(ctx, "page.html")
	require.NoError(t, err)
	assert.Same(t, first, second)

	byVersion, err := views.LoadVersion(ctx, "page", 1)
	require.NoError(t, err)
	assert.Same(t, first, byVersion)
}

func TestViews_Invalidate(t *testing.T) {
	views, _ := newTestViews(t)
	ctx := context.Background()
	for _, name := range []string{"a", "b"} {
		_, err := views.Save(ctx, name, name)
		require.NoError(t, err)
		_, err = views.Load(ctx, name)
		require.NoError(t, err)
	}
	require.Equal(t, 2, views.Cached())

	views.Invalidate("a.tpl")
	assert.Equal(t, 1, views.Cached())

	views.Invalidate("../bad")
	assert.Equal(t, 1, views.Cached())

	views.InvalidateAll()
	assert.Equal(t, 0, views.Cached())
}

func TestViews_Delete(t *testing.T) {
	views, _ := newTestViews(t)
	ctx := context.Background()
	_, err := views.Save(ctx, "gone", "x")
	require.NoError(t, err)
	_, err = views.Render(ctx, "gone", nil)
	require.NoError(t, err)

	require.NoError(t, views.Delete(ctx, "gone"))
	assert.Equal(t, 0, views.Cached())

	_, err = views.Render(ctx, "gone", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))

	assert.True(t, errors.Is(views.Delete(ctx, "gone"), ErrNotFound))
}

func TestViews_NotFoundAndInvalidName(t *testing.T) {
	views, _ := newTestViews(t)
	ctx := context.Background()

	_, err := views.Render(ctx, "missing", nil)
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = views.RenderVersion(ctx, "missing", 2, nil)
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = views.Render(ctx, "a/../b", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrMsgInvalidViewName)
}

func TestViews_FilesystemBacked(t *testing.T) {
	storage, err := NewFilesystemStorage(t.TempDir())
	require.NoError(t, err)
	views, err := NewViews(MustNew(), storage)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = views.Save(ctx, "mail/list", "{foreach $u in $users}{$u},{/foreach}")
	require.NoError(t, err)

	out, err := views.Render(ctx, "mail/list.stencil", map[string]any{"users": []string{"a", "b"}})
	require.NoError(t, err)
	assert.Equal(t, "a,b,", out)
}

func TestViews_ConcurrentRender(t *testing.T) {
	views, _ := newTestViews(t)
	ctx := context.Background()
	_, err := views.Save(ctx, "page", "[{$n}]")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out, err := views.Render(ctx, "page", map[string]any{"n": i})
			assert.NoError(t, err)
			assert.NotEmpty(t, out)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 1, views.Cached())
}

func TestNormalizeViewName(t *testing.T) {
	valid := map[string]string{
		"page":               "page",
		"/page":              "page",
		" mail/welcome.tpl ": "mail/welcome",
		"mail/welcome.php":   "mail/welcome",
		"mail/welcome/":      "mail/welcome",
		"report.v2.html":     "report.v2",
		"docs/readme.md":     "docs/readme.md",
		"only.one.stencil":   "only.one",
		"nested/deep/x.html": "nested/deep/x",
	}
	for in, want := range valid {
		got, err := NormalizeViewName(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, in := range []string{"", "/", "a//b", "../x", "a/./b", "a\\b", "a:b", "a*"} {
		_, err := NormalizeViewName(in)
		assert.Error(t, err, in)
	}
}
