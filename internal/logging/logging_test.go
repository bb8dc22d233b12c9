package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestEmitWithoutColorIsPlain(t *testing.T) {
	var buf bytes.Buffer
	l := &Logger{color: false, out: &buf}
	l.Info("hello %s", "world")
	line := buf.String()
	if !strings.Contains(line, "[INFO] hello world") {
		t.Errorf("unexpected line: %q", line)
	}
	if strings.Contains(line, "\x1b[") {
		t.Errorf("expected no ANSI escapes, got: %q", line)
	}
}

func TestEmitMirrorsToFile(t *testing.T) {
	var stderr, file bytes.Buffer
	l := &Logger{color: false, out: &stderr, file: &file}
	l.Error("boom")
	if !strings.Contains(file.String(), "[ERROR] boom") {
		t.Errorf("file did not receive line: %q", file.String())
	}
}
