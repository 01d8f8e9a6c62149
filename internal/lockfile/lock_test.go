package lockfile

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireCreatesDirectoryAndRecordsPID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "_logs", "migrate.lock")

	l, err := Acquire(path)
	require.NoError(t, err)
	defer func() { _ = l.Release() }()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(os.Getpid()), strings.TrimSpace(string(data)))
}

func TestAcquireBusy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.lock")

	first, err := Acquire(path)
	require.NoError(t, err)

	// A second descriptor in the same process conflicts with flock and LockFileEx.
	_, err = Acquire(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLockBusy))

	require.NoError(t, first.Release())

	again, err := Acquire(path)
	require.NoError(t, err)
	assert.NoError(t, again.Release())
}

func TestReleaseIsIdempotent(t *testing.T) {
	l, err := Acquire(filepath.Join(t.TempDir(), "run.lock"))
	require.NoError(t, err)
	assert.NoError(t, l.Release())
	assert.NoError(t, l.Release())

	var nilLock *Lock
	assert.NoError(t, nilLock.Release())
}
