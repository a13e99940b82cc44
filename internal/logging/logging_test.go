package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, "info", "json")
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("chapter done", "index", 3)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, "chapter done", rec["msg"])
	assert.EqualValues(t, 3, rec["index"])
}

func TestLogfmtAndLevels(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, "debug", "logfmt")
	require.NoError(t, err)
	logger.With("pool", "tts").Debug("started")
	assert.Contains(t, buf.String(), "pool=tts")
	assert.Contains(t, buf.String(), "msg=started")
}

func TestInvalid(t *testing.T) {
	_, err := New(&bytes.Buffer{}, "loud", "text")
	assert.Error(t, err)
	_, err = New(&bytes.Buffer{}, "info", "xml")
	assert.Error(t, err)
}
