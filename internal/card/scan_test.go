package card

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scanFixture(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	nested := filepath.Join(root, "2024", "june")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".cache"), 0o755))

	writeFile(t, root, "front.JPG", []byte("x"))
	writeFile(t, root, "back.png", []byte("x"))
	writeFile(t, root, "notes.txt", []byte("x"))
	writeFile(t, root, ".hidden.png", []byte("x"))
	writeFile(t, filepath.Join(root, "2024"), "scan.pdf", []byte("x"))
	writeFile(t, nested, "deep.webp", []byte("x"))
	writeFile(t, filepath.Join(root, ".cache"), "cached.png", []byte("x"))
	return root
}

func names(files []FileInfo) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		out = append(out, f.Name)
	}
	sort.Strings(out)
	return out
}

func TestScanner_Scan(t *testing.T) {
	root := scanFixture(t)

	result, err := NewScanner(0, 0, 0).Scan(context.Background(), root)
	require.NoError(t, err)
	assert.False(t, result.Truncated)
	assert.Equal(t, []string{"back.png", "deep.webp", "front.JPG", "scan.pdf"}, names(result.Files))

	for _, f := range result.Files {
		assert.True(t, strings.HasPrefix(f.Path, root))
		assert.Equal(t, int64(1), f.Size)
		assert.NotEmpty(t, f.ModifiedTime)
	}
}

func TestScanner_Limits(t *testing.T) {
	root := scanFixture(t)

	t.Run("depth", func(t *testing.T) {
		result, err := NewScanner(1, 0, 0).Scan(context.Background(), root)
		require.NoError(t, err)
		assert.Equal(t, []string{"back.png", "front.JPG"}, names(result.Files))
	})

	t.Run("file count", func(t *testing.T) {
		result, err := NewScanner(0, 2, 0).Scan(context.Background(), root)
		require.NoError(t, err)
		assert.Len(t, result.Files, 2)
		assert.True(t, result.Truncated)
	})
}

func TestScanner_Cancelled(t *testing.T) {
	root := scanFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := NewScanner(0, 0, 0).Scan(ctx, root)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, result.Files)
}
