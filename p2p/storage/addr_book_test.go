package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddrBook(t *testing.T) {
	ab, err := NewAddrBook("")
	require.NoError(t, err)
	defer ab.Close()

	base := time.Unix(1700000000, 0)
	isNew, err := ab.Put("10.0.0.1:8333", 1, base)
	require.NoError(t, err)
	assert.True(t, isNew)
	isNew, err = ab.Put("10.0.0.1:8333", 1, base.Add(-time.Hour))
	require.NoError(t, err)
	assert.False(t, isNew)

	e, err := ab.Get("10.0.0.1:8333")
	require.NoError(t, err)
	assert.Equal(t, base.Unix(), e.LastSeen)

	_, err = ab.Put("10.0.0.2:8333", 1, base.Add(time.Hour))
	require.NoError(t, err)
	_, err = ab.Put("10.0.0.3:8333", 1, base.Add(-time.Hour))
	require.NoError(t, err)
	require.NoError(t, ab.MarkGood("10.0.0.3:8333", base.Add(-time.Hour)))

	list, err := ab.List(0)
	require.NoError(t, err)
	addrs := []string{}
	for _, e := range list {
		addrs = append(addrs, e.Address)
	}
	assert.Equal(t, []string{"10.0.0.3:8333", "10.0.0.2:8333", "10.0.0.1:8333"}, addrs)

	list, err = ab.List(1)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, ab.Delete("10.0.0.2:8333"))
	_, err = ab.Get("10.0.0.2:8333")
	assert.Equal(t, ErrNotExistAddress, errors.Cause(err))
}

func TestAddrBookPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "peers")
	ab, err := NewAddrBook(path)
	require.NoError(t, err)
	require.NoError(t, ab.MarkGood("[2001:db8::1]:18444", time.Unix(1700000000, 0)))
	require.NoError(t, ab.Close())

	_, err = ab.List(0)
	assert.Equal(t, ErrClosedAddrBook, errors.Cause(err))

	ab, err = NewAddrBook(path)
	require.NoError(t, err)
	defer ab.Close()
	e, err := ab.Get("[2001:db8::1]:18444")
	require.NoError(t, err)
	assert.True(t, e.Good)
}
