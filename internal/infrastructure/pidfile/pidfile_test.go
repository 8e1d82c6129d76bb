package pidfile_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/microgreens-go/internal/infrastructure/pidfile"
)

func TestPIDFile_AcquireAndRelease(t *testing.T) {
	// Arrange
	p := pidfile.New(filepath.Join(t.TempDir(), "greens.pid"))

	// Act
	require.NoError(t, p.Acquire())
	pid, running, err := p.Status()

	// Assert
	require.NoError(t, err)
	assert.True(t, running)
	assert.Equal(t, os.Getpid(), pid)

	var already *pidfile.ErrAlreadyRunning
	require.ErrorAs(t, p.Acquire(), &already)

	require.NoError(t, p.Release())
	_, running, err = p.Status()
	require.NoError(t, err)
	assert.False(t, running)
}

func TestPIDFile_ReplacesGarbage(t *testing.T) {
	// Arrange
	path := filepath.Join(t.TempDir(), "greens.pid")
	require.NoError(t, os.WriteFile(path, []byte("not-a-pid\n"), 0644))
	p := pidfile.New(path)

	// Act
	err := p.Acquire()

	// Assert
	require.NoError(t, err)
	pid, _, _ := p.Status()
	assert.Equal(t, os.Getpid(), pid)
}
