package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup_WritesJSON(t *testing.T) {
	var buf bytes.Buffer
	l := Setup(&buf, "info")
	l.Info("signed in", "uid", "u1")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "signed in", entry["msg"])
	assert.Equal(t, "u1", entry["uid"])
}

func TestSetup_LevelFiltersDebug(t *testing.T) {
	var buf bytes.Buffer
	Setup(&buf, "warn").Info("dropped")
	assert.Empty(t, buf.String())

	buf.Reset()
	Setup(&buf, "debug").Debug("kept")
	assert.Contains(t, buf.String(), "kept")
}
