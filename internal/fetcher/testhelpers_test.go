package fetcher

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

// writeTestFile writes an input fixture and fails the test on error.
func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}
