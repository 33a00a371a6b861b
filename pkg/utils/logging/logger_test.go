package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitLogger(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	var console bytes.Buffer

	logger, err := InitLogger("test", Options{Dir: dir, Console: &console})
	require.NoError(t, err)

	logger.Debug("file only")
	logger.Info("both outputs")
	require.NoError(t, logger.Sync())

	assert.Contains(t, console.String(), "both outputs")
	assert.NotContains(t, console.String(), "file only")

	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.True(t, strings.HasPrefix(files[0].Name(), "test_"))

	data, err := os.ReadFile(filepath.Join(dir, files[0].Name()))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"file only"`)
	assert.Contains(t, string(data), `"env":"test"`)
}

func TestInitLogger_Verbose(t *testing.T) {
	var console bytes.Buffer

	logger, err := InitLogger("test", Options{Dir: t.TempDir(), Console: &console, Verbose: true})
	require.NoError(t, err)

	logger.Debug("debug line")
	require.NoError(t, logger.Sync())

	assert.Contains(t, console.String(), "debug line")
}
