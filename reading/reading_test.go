package reading

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"nihongo.exe.dev/dict"
)

type mockLookuper struct {
	mock.Mock
}

func (m *mockLookuper) Lookup(ctx context.Context, word string) ([]dict.Entry, error) {
	args := m.Called(word)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]dict.Entry), args.Error(1)
}

type mockExister struct {
	mock.Mock
}

func (m *mockExister) Exists(ctx context.Context, word string) (bool, error) {
	args := m.Called(word)
	return args.Bool(0), args.Error(1)
}

func TestResolveKanaSkipsLookup(t *testing.T) {
	lk := &mockLookuper{}
	r := NewResolver(lk, nil)

	got, ok := r.Resolve(context.Background(), "さくら")
	assert.True(t, ok)
	assert.Equal(t, "さくら", got)
	lk.AssertNotCalled(t, "Lookup", mock.Anything)
}

func TestResolvePrefersExactMatch(t *testing.T) {
	lk := &mockLookuper{}
	lk.On("Lookup", "専門").Return([]dict.Entry{
		{Word: "専門家", Reading: "せんもんか"},
		{Word: "専門", Reading: "せんもん"},
	}, nil).Once()
	r := NewResolver(lk, nil)

	got, ok := r.Resolve(context.Background(), "専門")
	assert.True(t, ok)
	assert.Equal(t, "せんもん", got)

	// Cached: the mock would fail on a second call.
	got, ok = r.Resolve(context.Background(), "専門")
	assert.True(t, ok)
	assert.Equal(t, "せんもん", got)
	lk.AssertExpectations(t)
}

func TestResolveFallsBackToContainingReading(t *testing.T) {
	lk := &mockLookuper{}
	lk.On("Lookup", "お茶").Return([]dict.Entry{
		{Word: "御茶", Reading: "おちゃ"},
		{Reading: "お茶お茶"},
	}, nil)
	r := NewResolver(lk, nil)

	got, ok := r.Resolve(context.Background(), "お茶")
	assert.True(t, ok)
	assert.Equal(t, "お茶お茶", got)
}

func TestResolveNegativeIsCached(t *testing.T) {
	lk := &mockLookuper{}
	lk.On("Lookup", "専門").Return([]dict.Entry{{Word: "専", Reading: "せん"}}, nil).Once()
	r := NewResolver(lk, nil)

	for i := 0; i < 3; i++ {
		got, ok := r.Resolve(context.Background(), "専門")
		assert.False(t, ok)
		assert.Empty(t, got)
	}
	lk.AssertNumberOfCalls(t, "Lookup", 1)
}

func TestResolveErrorIsCachedAsMiss(t *testing.T) {
	lk := &mockLookuper{}
	lk.On("Lookup", "猫").Return(nil, errors.New("connection refused")).Once()
	cache := NewMemoryCache()
	r := NewResolver(lk, cache)

	_, ok := r.Resolve(context.Background(), "猫")
	assert.False(t, ok)
	_, ok = r.Resolve(context.Background(), "猫")
	assert.False(t, ok)
	lk.AssertNumberOfCalls(t, "Lookup", 1)

	_, found, cached := cache.Get("猫")
	assert.True(t, cached)
	assert.False(t, found)
}

func TestResolveConcurrentMissesShareLookup(t *testing.T) {
	release := make(chan struct{})
	lk := &mockLookuper{}
	lk.On("Lookup", "犬").WaitUntil(release).Return([]dict.Entry{{Word: "犬", Reading: "いぬ"}}, nil)
	r := NewResolver(lk, nil)

	var wg sync.WaitGroup
	results := make([]string, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = r.Resolve(context.Background(), "犬")
		}(i)
	}
	close(release)
	wg.Wait()

	for _, got := range results {
		assert.Equal(t, "いぬ", got)
	}
	assert.LessOrEqual(t, len(lk.Calls), 8)
	assert.GreaterOrEqual(t, len(lk.Calls), 1)
}

func TestResolveCancelledCallerDoesNotPoisonCache(t *testing.T) {
	release := make(chan struct{})
	lk := &mockLookuper{}
	lk.On("Lookup", "犬").WaitUntil(release).Return([]dict.Entry{{Word: "犬", Reading: "いぬ"}}, nil).Once()
	r := NewResolver(lk, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, ok := r.Resolve(ctx, "犬")
	assert.False(t, ok)

	close(release)
	got, ok := r.Resolve(context.Background(), "犬")
	assert.True(t, ok)
	assert.Equal(t, "いぬ", got)
	lk.AssertExpectations(t)
}

func TestMemoryCacheDelete(t *testing.T) {
	c := NewMemoryCache()
	c.Set("犬", "いぬ", true)
	c.Delete("犬")
	_, _, ok := c.Get("犬")
	assert.False(t, ok)
}

func TestValidator(t *testing.T) {
	ex := &mockExister{}
	ex.On("Exists", "さくら").Return(true, nil)
	ex.On("Exists", "ほげ").Return(false, nil)
	ex.On("Exists", "専門").Return(false, errors.New("timeout"))
	v := NewValidator(ex)

	assert.True(t, v.Exists(context.Background(), "さくら"))
	assert.False(t, v.Exists(context.Background(), "ほげ"))
	assert.False(t, v.Exists(context.Background(), "専門"))

	var nilValidator *Validator
	assert.False(t, nilValidator.Exists(context.Background(), "さくら"))
}
