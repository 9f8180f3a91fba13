package runtime

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestGolden runs every testdata/*.ka program and compares what it prints with the
// .expected file next to it.
func TestGolden(t *testing.T) {
	sources, err := filepath.Glob(filepath.Join("..", "..", "testdata", "*.ka"))
	require.NoError(t, err)
	require.NotEmpty(t, sources)

	for _, path := range sources {
		name := strings.TrimSuffix(filepath.Base(path), ".ka")
		t.Run(name, func(t *testing.T) {
			source, err := os.ReadFile(path)
			require.NoError(t, err)
			expected, err := os.ReadFile(strings.TrimSuffix(path, ".ka") + ".expected")
			require.NoError(t, err)

			_, got, err := evalSource(string(source), Options{})
			require.NoError(t, err)

			expectedLines := strings.Split(strings.TrimRight(string(expected), "\n"), "\n")
			gotLines := strings.Split(strings.TrimRight(got, "\n"), "\n")
			assert.Equal(t, expectedLines, gotLines)
		})
	}
}
