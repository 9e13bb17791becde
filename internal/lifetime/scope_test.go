package lifetime_test

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/junioryono/inject/internal/callsite"
	"github.com/junioryono/inject/internal/lifetime"
	"github.com/junioryono/inject/internal/registry"
)

var errClose = errors.New("close failed")

func newKey() callsite.CacheKey {
	return callsite.CacheKey{Descriptor: &registry.Descriptor{}}
}

type recorder struct {
	mu     sync.Mutex
	closed []string
}

func (r *recorder) record(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = append(r.closed, name)
}

func (r *recorder) order() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.closed...)
}

type closer struct {
	name     string
	recorder *recorder
	err      error
	closes   atomic.Int32
}

func (c *closer) Close() error {
	c.closes.Add(1)
	if c.recorder != nil {
		c.recorder.record(c.name)
	}
	return c.err
}

type contextCloser struct {
	ctxErr error
	closes int
}

func (c *contextCloser) Close(ctx context.Context) error {
	c.closes++
	c.ctxErr = ctx.Err()
	return nil
}

type stubProvider struct{}

func (stubProvider) GetService(reflect.Type) (any, error) { return nil, nil }

func TestNewRoot(t *testing.T) {
	root := lifetime.NewRoot(nil) //nolint:staticcheck
	defer root.Close()

	assert.True(t, root.IsRoot())
	assert.Same(t, root, root.Root())
	assert.NotNil(t, root.Context())
	assert.False(t, root.IsDisposed())

	_, err := uuid.Parse(root.ID())
	assert.NoError(t, err)

	stats := root.Stats()
	assert.True(t, stats.Root)
	assert.Equal(t, root.ID(), stats.ID)
	assert.False(t, stats.Created.IsZero())
}

func TestNewChild(t *testing.T) {
	root := lifetime.NewRoot(context.Background())

	type ctxKey struct{}
	ctx := context.WithValue(context.Background(), ctxKey{}, "child")

	child, err := root.NewChild(ctx)
	require.NoError(t, err)

	assert.False(t, child.IsRoot())
	assert.Same(t, root, child.Root())
	assert.Equal(t, "child", child.Context().Value(ctxKey{}))
	assert.NotEqual(t, root.ID(), child.ID())

	grandchild, err := child.NewChild(context.Background())
	require.NoError(t, err)
	assert.Same(t, root, grandchild.Root())
	assert.Equal(t, 2, root.Stats().Children)

	require.NoError(t, child.Close())
	assert.Equal(t, 1, root.Stats().Children)

	require.NoError(t, root.Close())
	assert.True(t, grandchild.IsDisposed())

	_, err = root.NewChild(context.Background())
	assert.ErrorIs(t, err, lifetime.ErrScopeDisposed)
}

func TestBind(t *testing.T) {
	root := lifetime.NewRoot(context.Background())
	defer root.Close()

	assert.Nil(t, root.Provider())
	root.Bind(stubProvider{})
	assert.Equal(t, stubProvider{}, root.Provider())
}

func TestGetOrCreate(t *testing.T) {
	root := lifetime.NewRoot(context.Background())
	defer root.Close()

	t.Run("caches by key", func(t *testing.T) {
		key := newKey()
		calls := 0
		create := func(callsite.Scope) (any, error) {
			calls++
			return &struct{ n int }{calls}, nil
		}

		a, err := root.GetOrCreate(key, create)
		require.NoError(t, err)
		b, err := root.GetOrCreate(key, create)
		require.NoError(t, err)
		c, err := root.GetOrCreate(newKey(), create)
		require.NoError(t, err)

		assert.Same(t, a, b)
		assert.NotSame(t, a, c)
		assert.Equal(t, 2, calls)
	})

	t.Run("create receives the scope", func(t *testing.T) {
		var got callsite.Scope
		_, err := root.GetOrCreate(newKey(), func(s callsite.Scope) (any, error) {
			got = s
			return "v", nil
		})
		require.NoError(t, err)
		assert.Same(t, root, got)
	})

	t.Run("errors are not cached", func(t *testing.T) {
		key := newKey()

		_, err := root.GetOrCreate(key, func(callsite.Scope) (any, error) { return nil, errClose })
		require.ErrorIs(t, err, errClose)

		v, err := root.GetOrCreate(key, func(callsite.Scope) (any, error) { return "ok", nil })
		require.NoError(t, err)
		assert.Equal(t, "ok", v)
	})

	t.Run("panics are not cached", func(t *testing.T) {
		key := newKey()

		assert.Panics(t, func() {
			_, _ = root.GetOrCreate(key, func(callsite.Scope) (any, error) { panic("boom") })
		})

		v, err := root.GetOrCreate(key, func(callsite.Scope) (any, error) { return "recovered", nil })
		require.NoError(t, err)
		assert.Equal(t, "recovered", v)
	})

	t.Run("tracks disposables", func(t *testing.T) {
		before := root.Stats().Disposables
		_, err := root.GetOrCreate(newKey(), func(callsite.Scope) (any, error) { return &closer{}, nil })
		require.NoError(t, err)
		_, err = root.GetOrCreate(newKey(), func(callsite.Scope) (any, error) { return "plain", nil })
		require.NoError(t, err)
		assert.Equal(t, before+1, root.Stats().Disposables)
	})
}

func TestGetOrCreate_Concurrent(t *testing.T) {
	root := lifetime.NewRoot(context.Background())
	defer root.Close()

	key := newKey()
	var calls atomic.Int32

	const goroutines = 50
	results := make([]any, goroutines)

	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			v, err := root.GetOrCreate(key, func(callsite.Scope) (any, error) {
				calls.Add(1)
				time.Sleep(10 * time.Millisecond)
				return &closer{}, nil
			})
			assert.NoError(t, err)
			results[i] = v
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, v := range results {
		assert.Same(t, results[0], v)
	}
	assert.Equal(t, 1, root.Stats().Disposables)
}

func TestClose_ReverseOrder(t *testing.T) {
	root := lifetime.NewRoot(context.Background())
	rec := &recorder{}

	for _, name := range []string{"first", "second", "third"} {
		_, err := root.GetOrCreate(newKey(), func(callsite.Scope) (any, error) {
			return &closer{name: name, recorder: rec}, nil
		})
		require.NoError(t, err)
	}

	require.NoError(t, root.Close())
	assert.Equal(t, []string{"third", "second", "first"}, rec.order())
}

func TestClose_ExactlyOnce(t *testing.T) {
	root := lifetime.NewRoot(context.Background())
	child, err := root.NewChild(context.Background())
	require.NoError(t, err)

	c := &closer{}
	require.NoError(t, child.CaptureDisposable(c))

	require.NoError(t, child.Close())
	require.NoError(t, child.Close())
	require.NoError(t, root.Close())
	require.NoError(t, root.Close())

	assert.Equal(t, int32(1), c.closes.Load())
	assert.True(t, child.IsDisposed())

	select {
	case <-child.Done():
	default:
		t.Fatal("done channel not closed")
	}
}

func TestClose_RootClosesChildrenFirst(t *testing.T) {
	root := lifetime.NewRoot(context.Background())
	rec := &recorder{}

	_, err := root.GetOrCreate(newKey(), func(callsite.Scope) (any, error) {
		return &closer{name: "singleton", recorder: rec}, nil
	})
	require.NoError(t, err)

	child, err := root.NewChild(context.Background())
	require.NoError(t, err)
	_, err = child.GetOrCreate(newKey(), func(callsite.Scope) (any, error) {
		return &closer{name: "scoped", recorder: rec}, nil
	})
	require.NoError(t, err)

	require.NoError(t, root.Close())
	assert.Equal(t, []string{"scoped", "singleton"}, rec.order())
	assert.True(t, child.IsDisposed())
}

func TestClose_AggregatesErrors(t *testing.T) {
	root := lifetime.NewRoot(context.Background())
	child, err := root.NewChild(context.Background())
	require.NoError(t, err)

	ok := &closer{}
	require.NoError(t, child.CaptureDisposable(&closer{err: errClose}))
	require.NoError(t, child.CaptureDisposable(ok))
	require.NoError(t, child.CaptureDisposable(&closer{err: fmt.Errorf("second: %w", errClose)}))

	err = child.Close()

	var disposal lifetime.DisposalError
	require.ErrorAs(t, err, &disposal)
	assert.Equal(t, "scope", disposal.Context)
	assert.Len(t, disposal.Errors, 2)
	assert.ErrorIs(t, err, errClose)
	assert.Contains(t, err.Error(), "2 errors")
	assert.Equal(t, int32(1), ok.closes.Load())

	require.NoError(t, root.Close())
}

func TestClose_ProviderErrorsIncludeChildren(t *testing.T) {
	root := lifetime.NewRoot(context.Background())
	child, err := root.NewChild(context.Background())
	require.NoError(t, err)

	require.NoError(t, child.CaptureDisposable(&closer{err: errClose}))
	require.NoError(t, root.CaptureDisposable(&closer{err: errClose}))

	err = root.Close()

	var disposal lifetime.DisposalError
	require.ErrorAs(t, err, &disposal)
	assert.Equal(t, "provider", disposal.Context)
	assert.Len(t, disposal.Errors, 2)
}

func TestClose_UsesUncancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	root := lifetime.NewRoot(ctx)
	c := &contextCloser{}
	require.NoError(t, root.CaptureDisposable(c))

	require.NoError(t, root.Close())
	assert.Equal(t, 1, c.closes)
	assert.NoError(t, c.ctxErr)
}

func TestDisposedScope(t *testing.T) {
	root := lifetime.NewRoot(context.Background())
	require.NoError(t, root.Close())

	_, err := root.GetOrCreate(newKey(), func(callsite.Scope) (any, error) { return "late", nil })
	assert.ErrorIs(t, err, lifetime.ErrScopeDisposed)

	c := &closer{}
	err = root.CaptureDisposable(c)
	assert.ErrorIs(t, err, lifetime.ErrScopeDisposed)
	assert.Equal(t, int32(1), c.closes.Load())

	assert.NoError(t, root.CaptureDisposable("not disposable"))
}

func TestDisposedDuringConstruction(t *testing.T) {
	root := lifetime.NewRoot(context.Background())

	started := make(chan struct{})
	release := make(chan struct{})
	c := &closer{}

	type result struct {
		value any
		err   error
	}
	done := make(chan result, 1)

	go func() {
		v, err := root.GetOrCreate(newKey(), func(callsite.Scope) (any, error) {
			close(started)
			<-release
			return c, nil
		})
		done <- result{v, err}
	}()

	<-started
	require.NoError(t, root.Close())
	close(release)

	r := <-done
	assert.Nil(t, r.value)
	assert.ErrorIs(t, r.err, lifetime.ErrScopeDisposed)
	assert.Equal(t, int32(1), c.closes.Load())
}

func TestIsDisposable(t *testing.T) {
	assert.True(t, lifetime.IsDisposable(&closer{}))
	assert.True(t, lifetime.IsDisposable(&contextCloser{}))
	assert.False(t, lifetime.IsDisposable(struct{}{}))
	assert.False(t, lifetime.IsDisposable(nil))
}

func TestDisposalError_SingleError(t *testing.T) {
	err := lifetime.DisposalError{Context: "scope", Errors: []error{errClose}}
	assert.Equal(t, "scope disposal failed: close failed", err.Error())
	assert.True(t, errors.Is(err, errClose))
}
