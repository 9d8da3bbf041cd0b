package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		"WARNING": zerolog.WarnLevel,
		" error ": zerolog.ErrorLevel,
		"off":     zerolog.Disabled,
		"bogus":   zerolog.InfoLevel,
		"":        zerolog.InfoLevel,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	InitWriter("info", false, &buf)
	t.Cleanup(func() { InitWriter("info", false, &bytes.Buffer{}) })

	WithComponent("monitors").Info().Msg("hello")
	WithComponent("monitors").Debug().Msg("filtered")

	out := buf.String()
	if !strings.Contains(out, `"component":"monitors"`) {
		t.Fatalf("missing component field in %q", out)
	}
	if strings.Contains(out, "filtered") {
		t.Fatalf("debug line leaked at info level: %q", out)
	}
}
