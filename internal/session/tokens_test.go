package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/faunagram-go/internal/errors"
)

func TestFileTokenStoreRoundTrip(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "nested", "session.yaml")
	s := NewFileTokenStore(path)

	tok, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, tok)

	require.NoError(t, s.Save("abc"))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	tok, err = s.Load()
	require.NoError(t, err)
	assert.Equal(t, "abc", tok)

	require.NoError(t, s.Clear())
	require.NoError(t, s.Clear(), "clearing twice is not an error")
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestFileTokenStoreCorruptFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "session.yaml")
	require.NoError(t, os.WriteFile(path, []byte("token: [unclosed"), 0o600))

	_, err := NewFileTokenStore(path).Load()
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryFileParsing))
}

func TestMemoryTokenStore(t *testing.T) {
	t.Parallel()
	s := NewMemoryTokenStore("x")
	tok, _ := s.Load()
	assert.Equal(t, "x", tok)
	require.NoError(t, s.Clear())
	tok, _ = s.Load()
	assert.Empty(t, tok)
}
