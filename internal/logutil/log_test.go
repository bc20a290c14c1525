package logutil

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestWithLoggerRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	ctx := WithLogger(context.Background(), zerolog.New(&buf))

	logger := GetOrDefault(ctx)
	logger.Info().Msg("carried through context")

	if !strings.Contains(buf.String(), "carried through context") {
		t.Fatalf("stored logger not used, output: %q", buf.String())
	}
}

func TestGetOrDefaultFallsBackToGlobal(t *testing.T) {
	logger := GetOrDefault(context.Background())
	// The global logger writes to stderr; just prove the call is usable.
	logger.Debug().Msg("")
}
