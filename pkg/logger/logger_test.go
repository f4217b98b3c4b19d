package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func capture(t *testing.T, lvl string) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	Init(lvl)
	t.Cleanup(func() {
		SetOutput(&bytes.Buffer{})
		Init("info")
	})
	return &buf
}

func records(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var rec map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &rec), line)
		out = append(out, rec)
	}
	return out
}

func TestInit_Levels(t *testing.T) {
	t.Cleanup(func() { Init("info") })
	for in, want := range map[string]string{
		"debug": "debug", "WARN": "warn", "warning": "warn", " Error ": "error",
		"fatal": "fatal", "nonsense": "info", "": "info",
	} {
		Init(in)
		assert.Equal(t, want, LevelString(), "Init(%q)", in)
	}
}

func TestLevelFiltering(t *testing.T) {
	buf := capture(t, "warn")
	Debugf("render %s", "devis")
	Infof("document %d saved", 1)
	Warnf("template relation broken for %s", "doc-1")
	Error("store down")

	recs := records(t, buf)
	require.Len(t, recs, 2)
	assert.Equal(t, "WARN", recs[0]["level"])
	assert.Equal(t, "template relation broken for doc-1", recs[0]["msg"])
	assert.Equal(t, "ERROR", recs[1]["level"])
}

func TestFatalLevelLabel(t *testing.T) {
	buf := capture(t, "fatal")
	Errorf("hidden")
	Logger().Log(context.Background(), LevelFatal, "boom")

	recs := records(t, buf)
	require.Len(t, recs, 1)
	assert.Equal(t, "FATAL", recs[0]["level"])
	assert.Equal(t, "boom", recs[0]["msg"])
}
