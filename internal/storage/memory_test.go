package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()

	_, err := s.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Put(ctx, "a/b.txt", []byte("hello"), "text/plain"))

	data, err := s.Get(ctx, "a/b.txt")
	require.NoError(t, err)
	require.Equal(t, "hello", string(data))

	info, err := s.Head(ctx, "a/b.txt")
	require.NoError(t, err)
	require.Equal(t, int64(5), info.Size)

	_, err = s.Head(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemStoreList(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	require.NoError(t, s.Put(ctx, "in/a.mp3", []byte("x"), ""))
	require.NoError(t, s.Put(ctx, "in/b.mp3", []byte("x"), ""))
	require.NoError(t, s.Put(ctx, "out/c.txt", []byte("x"), ""))

	infos, err := s.List(ctx, "in/")
	require.NoError(t, err)
	require.Len(t, infos, 2)
	require.Equal(t, "in/a.mp3", infos[0].Key)
	require.Equal(t, "in/b.mp3", infos[1].Key)
}

func TestAppend(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()

	require.NoError(t, Append(ctx, s, "log.txt", "first"))
	require.NoError(t, Append(ctx, s, "log.txt", "second"))

	data, err := s.Get(ctx, "log.txt")
	require.NoError(t, err)
	require.Equal(t, "first\nsecond\n", string(data))
}

func TestExists(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()

	ok, err := Exists(ctx, s, "k")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, s.Put(ctx, "k", []byte("v"), ""))

	ok, err = Exists(ctx, s, "k")
	require.NoError(t, err)
	require.True(t, ok)
}

type failingStore struct {
	*MemStore
	err error
}

func (f *failingStore) Get(ctx context.Context, key string) ([]byte, error) {
	return nil, f.err
}

func TestAppendPropagatesUnexpectedErrors(t *testing.T) {
	boom := errors.New("backend down")
	s := &failingStore{MemStore: NewMemStore(), err: boom}

	err := Append(context.Background(), s, "log.txt", "line")
	require.ErrorIs(t, err, boom)
}
