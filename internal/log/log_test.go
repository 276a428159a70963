package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSONIncludesComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelInfo, Format: "json", Component: ComponentReport, Output: &buf})
	l.Info("hello", FieldUserID, 7)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "report", rec[FieldComponent])
	assert.Equal(t, float64(7), rec[FieldUserID])
	assert.Equal(t, ComponentReport, l.Component())
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: ParseLevel("warn"), Output: &buf})
	l.Info("hidden")
	l.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("nonsense"))
}

func TestFromContextDefault(t *testing.T) {
	l := FromContext(context.Background())
	require.NotNil(t, l)
	assert.Equal(t, "unknown", l.Component())
}

func TestWithContextRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	base := New(Config{Output: &buf}).With(FieldRequestID, "req-1")
	ctx := WithContext(context.Background(), base)
	FromContext(ctx).InfoContext(ctx, "inside")
	assert.True(t, strings.Contains(buf.String(), "request_id=req-1"), buf.String())
}

func TestLogFields(t *testing.T) {
	f := NewFields().
		WithUser(3).
		WithOperation(OpDelete).
		WithError(errors.New("boom")).
		WithError(nil)
	assert.Equal(t, int64(3), f[FieldUserID])
	assert.Equal(t, "boom", f[FieldError])
	assert.Len(t, f.ToSlice(), 6)
}
