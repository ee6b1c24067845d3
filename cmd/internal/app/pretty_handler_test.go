package app

import (
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestPrettyHandler_PlainOutput(t *testing.T) {
	t.Parallel()

	var sb strings.Builder
	log := slog.New(newPrettyHandler(&sb, &slog.HandlerOptions{Level: slog.LevelDebug}, false))

	log.Info("http.request", "method", "get", "path", "/api/notes", "status", 201, "duration_ms", int64(12))

	line := sb.String()
	for _, want := range []string{
		"lvl=[INFO]",
		"msg=http.request",
		"method=GET",
		"path=/api/notes",
		"status=201",
		"duration_ms=12ms",
	} {
		if !strings.Contains(line, want) {
			t.Fatalf("output missing %q:\n%s", want, line)
		}
	}
	if strings.Contains(line, "\x1b[") {
		t.Fatalf("color disabled but output has ANSI codes:\n%s", line)
	}
}

func TestPrettyHandler_ColorAndQuoting(t *testing.T) {
	t.Parallel()

	var sb strings.Builder
	log := slog.New(newPrettyHandler(&sb, nil, true))

	log.Error("boom", "err", "something went wrong", "status", 502)

	line := sb.String()
	if !strings.Contains(line, ansiRed+"[ERROR]"+ansiReset) {
		t.Fatalf("error level not colorized:\n%s", line)
	}
	if !strings.Contains(line, `err="something went wrong"`) {
		t.Fatalf("value with spaces not quoted:\n%s", line)
	}
	if !strings.Contains(line, ansiRed+"502"+ansiReset) {
		t.Fatalf("5xx status not red:\n%s", line)
	}
}

func TestPrettyHandler_GroupsAndAttrs(t *testing.T) {
	t.Parallel()

	var sb strings.Builder
	base := slog.New(newPrettyHandler(&sb, nil, false))

	base.With("component", "gateway").Info("client.connected")
	if !strings.Contains(sb.String(), "component=gateway") {
		t.Fatalf("pre-bound attr missing:\n%s", sb.String())
	}

	sb.Reset()
	base.WithGroup("ws").Info("client.connected", "user_id", "u1")
	if !strings.Contains(sb.String(), "ws.user_id=u1") {
		t.Fatalf("group prefix missing:\n%s", sb.String())
	}
}

func TestPrettyHandler_LevelFiltering(t *testing.T) {
	t.Parallel()

	h := newPrettyHandler(&strings.Builder{}, &slog.HandlerOptions{Level: slog.LevelWarn}, false)

	if h.Enabled(context.Background(), slog.LevelInfo) {
		t.Fatalf("info enabled at warn level")
	}
	if !h.Enabled(context.Background(), slog.LevelError) {
		t.Fatalf("error disabled at warn level")
	}
}
