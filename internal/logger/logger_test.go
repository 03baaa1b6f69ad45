package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestCustomFormatter(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(logrus.DebugLevel, &buf)

	l.WithFields(logrus.Fields{"analysis": "risk", "state": "dispatched"}).Info("任务派发")

	line := buf.String()
	if !strings.Contains(line, "[INFO]") {
		t.Errorf("missing level in %q", line)
	}
	if !strings.Contains(line, "logger_test.go:") {
		t.Errorf("missing caller in %q", line)
	}
	if !strings.HasSuffix(line, "任务派发 analysis=risk state=dispatched\n") {
		t.Errorf("unexpected field layout in %q", line)
	}
}

func TestDefaultLoggerUsable(t *testing.T) {
	if Log == nil {
		t.Fatal("global logger should never be nil")
	}
	Discard()
	Log.Info("dropped")
}
