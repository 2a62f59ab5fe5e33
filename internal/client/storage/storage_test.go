package storage

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/dmitrijs2005/accountkeeper/internal/client/repositories/localstorage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

// fakeBackend records writes and can be told to fail.
type fakeBackend struct {
	values map[string][]byte

	ListErr   error
	SetErr    error
	DeleteErr error
	ClearErr  error

	SetCalls []string
}

func (f *fakeBackend) List(context.Context) (map[string][]byte, error) {
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	out := make(map[string][]byte, len(f.values))
	for k, v := range f.values {
		out[k] = v
	}
	return out, nil
}

func (f *fakeBackend) Set(_ context.Context, key string, value []byte) error {
	f.SetCalls = append(f.SetCalls, key)
	if f.SetErr != nil {
		return f.SetErr
	}
	if f.values == nil {
		f.values = map[string][]byte{}
	}
	f.values[key] = value
	return nil
}

func (f *fakeBackend) Delete(_ context.Context, key string) error {
	if f.DeleteErr != nil {
		return f.DeleteErr
	}
	delete(f.values, key)
	return nil
}

func (f *fakeBackend) Clear(context.Context) error {
	if f.ClearErr != nil {
		return f.ClearErr
	}
	f.values = map[string][]byte{}
	return nil
}

func TestMemory_SetGetRemove(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "currentAccountUid", "uid"))

	var uid string
	require.True(t, s.Get("currentAccountUid", &uid))
	assert.Equal(t, "uid", uid)
	assert.True(t, s.Has("currentAccountUid"))

	require.NoError(t, s.Remove(ctx, "currentAccountUid"))
	assert.False(t, s.Get("currentAccountUid", &uid))
	assert.False(t, s.Has("currentAccountUid"))
}

func TestGet_MalformedValueReadsAsAbsent(t *testing.T) {
	ctx := context.Background()
	s, err := New(ctx, &fakeBackend{values: map[string][]byte{"accounts": []byte("{not json")}})
	require.NoError(t, err)

	var v map[string]any
	assert.False(t, s.Get("accounts", &v))
	assert.True(t, s.Has("accounts"))
}

func TestNew_LoadsFromBackend(t *testing.T) {
	ctx := context.Background()
	s, err := New(ctx, &fakeBackend{values: map[string][]byte{
		"currentAccountUid": []byte(`"u1"`),
		"accounts":          []byte(`{}`),
	}})
	require.NoError(t, err)

	assert.Equal(t, []string{"accounts", "currentAccountUid"}, s.Keys())
}

func TestNew_ListErrorWrapped(t *testing.T) {
	_, err := New(context.Background(), &fakeBackend{ListErr: errors.New("disk")})
	require.ErrorContains(t, err, "load storage: disk")
}

func TestSet_BackendFailureLeavesMemoryUntouched(t *testing.T) {
	ctx := context.Background()
	b := &fakeBackend{values: map[string][]byte{"k": []byte(`"old"`)}}
	s, err := New(ctx, b)
	require.NoError(t, err)

	b.SetErr = errors.New("readonly")
	require.Error(t, s.Set(ctx, "k", "new"))

	var v string
	require.True(t, s.Get("k", &v))
	assert.Equal(t, "old", v)
}

func TestSet_UnencodableValue(t *testing.T) {
	s := NewMemory()
	err := s.Set(context.Background(), "bad", make(chan int))
	require.ErrorContains(t, err, "encode bad")
}

func TestRemoveAndClear_BackendErrors(t *testing.T) {
	ctx := context.Background()
	b := &fakeBackend{values: map[string][]byte{"k": []byte(`1`)}}
	s, err := New(ctx, b)
	require.NoError(t, err)

	b.DeleteErr = errors.New("nope")
	require.Error(t, s.Remove(ctx, "k"))
	assert.True(t, s.Has("k"))

	b.ClearErr = errors.New("nope")
	require.Error(t, s.Clear(ctx))
	assert.True(t, s.Has("k"))
}

func TestReload_SeesOtherWriters(t *testing.T) {
	ctx := context.Background()
	b := &fakeBackend{values: map[string][]byte{}}
	s, err := New(ctx, b)
	require.NoError(t, err)

	b.values["currentAccountUid"] = []byte(`"other"`)
	var uid string
	assert.False(t, s.Get("currentAccountUid", &uid))

	require.NoError(t, s.Reload(ctx))
	require.True(t, s.Get("currentAccountUid", &uid))
	assert.Equal(t, "other", uid)
}

func TestSQLiteBackend_WriteThrough(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	_, err = db.Exec(`CREATE TABLE local_storage (key TEXT PRIMARY KEY, value BLOB NOT NULL, updated_at TIMESTAMP)`)
	require.NoError(t, err)

	ctx := context.Background()
	repo := localstorage.NewSQLiteRepository(db)
	s, err := New(ctx, repo)
	require.NoError(t, err)

	require.NoError(t, s.Set(ctx, "accounts", map[string]any{"uid": map[string]any{"email": "a@example.com"}}))

	raw, err := repo.Get(ctx, "accounts")
	require.NoError(t, err)
	assert.JSONEq(t, `{"uid":{"email":"a@example.com"}}`, string(raw))

	require.NoError(t, s.Clear(ctx))
	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}
