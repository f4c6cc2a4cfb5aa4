package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNewWithWriterLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, false)

	logger.Debug().Msg("hidden")
	logger.Info().Str("service", "webui").Msg("visible")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug event leaked at info level:\n%s", out)
	}
	if !strings.Contains(out, `"message":"visible"`) || !strings.Contains(out, `"service":"webui"`) {
		t.Fatalf("unexpected log output:\n%s", out)
	}
}

func TestVerboseEnablesDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, true)

	if logger.GetLevel() != zerolog.DebugLevel {
		t.Fatalf("expected debug level, got %s", logger.GetLevel())
	}
	logger.Debug().Msg("now visible")
	if !strings.Contains(buf.String(), "now visible") {
		t.Fatalf("debug event missing:\n%s", buf.String())
	}
}
