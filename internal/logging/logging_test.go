package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestReleaseModeWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	log := newWithWriter("release", &buf)
	log.Info("session saved", "sid", "abc")
	log.Debug("hidden")

	out := buf.String()
	if !strings.Contains(out, `"msg":"session saved"`) || !strings.Contains(out, `"sid":"abc"`) {
		t.Fatalf("unexpected output: %s", out)
	}
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug line should be filtered in release mode: %s", out)
	}
}

func TestDebugModeWritesText(t *testing.T) {
	var buf bytes.Buffer
	log := newWithWriter("debug", &buf)
	log.Debug("dbg", "k", "v")

	out := buf.String()
	if !strings.Contains(out, "level=DEBUG") || !strings.Contains(out, "k=v") {
		t.Fatalf("unexpected output: %s", out)
	}
}
