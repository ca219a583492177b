package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextAttrsAreLogged(t *testing.T) {
	var (
		buf = &bytes.Buffer{}
		l   = New(buf, "json", slog.LevelInfo)
		ctx = Ctx(context.Background(), slog.String("request_id", "abc"))
	)

	l.InfoContext(ctx, "hello", "user_id", 7)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "hello", line["msg"])
	assert.Equal(t, "abc", line["request_id"])
	assert.EqualValues(t, 7, line["user_id"])
}

func TestCtxDoesNotLeakBetweenSiblings(t *testing.T) {
	parent := Ctx(context.Background(), slog.String("a", "1"))

	left := Ctx(parent, slog.String("b", "left"))
	right := Ctx(parent, slog.String("b", "right"))

	assert.Equal(t, "left", Attrs(left)[1].Value.String())
	assert.Equal(t, "right", Attrs(right)[1].Value.String())
	assert.Len(t, Attrs(parent), 1)
}

func TestNewTextFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	New(buf, "text", slog.LevelInfo).With("component", "api").Info("started")

	assert.Contains(t, buf.String(), "msg=started")
	assert.Contains(t, buf.String(), "component=api")
}
