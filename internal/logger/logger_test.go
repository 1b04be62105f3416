package logger

import (
	"bytes"
	"log"
	"strings"
	"testing"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prevOut, prevFlags := log.Writer(), log.Flags()
	log.SetOutput(&buf)
	log.SetFlags(0)
	t.Cleanup(func() {
		log.SetOutput(prevOut)
		log.SetFlags(prevFlags)
		SetPrefix("")
		SetLevel("info")
	})
	return &buf
}

func TestPrefixAndLevels(t *testing.T) {
	buf := capture(t)
	SetPrefix("client")
	SetLevel("info")

	Debugf("hidden %d", 1)
	Infof("joined group %d", 7)
	Errorf("dial failed: %s", "refused")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug line leaked at info level: %q", out)
	}
	if !strings.Contains(out, "[client] joined group 7") {
		t.Errorf("missing info line: %q", out)
	}
	if !strings.Contains(out, "[client] ERROR: dial failed: refused") {
		t.Errorf("missing error line: %q", out)
	}
}

func TestErrorLevelSuppressesInfo(t *testing.T) {
	buf := capture(t)
	SetLevel("error")
	Info("quiet")
	Error("loud")
	if out := buf.String(); strings.Contains(out, "quiet") || !strings.Contains(out, "loud") {
		t.Errorf("unexpected output at error level: %q", out)
	}
}
