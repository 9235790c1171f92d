package sysutil

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func preserveGlobals(t *testing.T) {
	t.Helper()
	level, logger, def, tf := zerolog.GlobalLevel(), log.Logger, zerolog.DefaultContextLogger, zerolog.TimeFieldFormat
	t.Cleanup(func() {
		zerolog.SetGlobalLevel(level)
		log.Logger = logger
		zerolog.DefaultContextLogger = def
		zerolog.TimeFieldFormat = tf
	})
}

func TestSetLogLevel_AllVariants(t *testing.T) {
	preserveGlobals(t)

	cases := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"  DeBuG  ", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"panic", zerolog.PanicLevel},
		{"unknown", zerolog.InfoLevel},
	}
	for _, tc := range cases {
		got := SetLogLevel(tc.in)
		if got != tc.want || zerolog.GlobalLevel() != tc.want {
			t.Fatalf("SetLogLevel(%q) -> %v (global %v); want %v", tc.in, got, zerolog.GlobalLevel(), tc.want)
		}
	}
}

func TestSetupLogging_JSONCarriesServiceAndBecomesContextDefault(t *testing.T) {
	preserveGlobals(t)
	var buf bytes.Buffer

	SetupLogging(&buf, LogOptions{Level: "debug", Service: "go-closet-backend", Version: "1.2.3"})

	// A context without a logger falls back to the global one.
	zerolog.Ctx(context.Background()).Debug().Msg("hello")

	out := buf.String()
	for _, want := range []string{`"service":"go-closet-backend"`, `"version":"1.2.3"`, `"message":"hello"`, `"level":"debug"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("log output missing %s: %s", want, out)
		}
	}
	if zerolog.TimeFieldFormat != time.RFC3339Nano {
		t.Fatalf("time format not set")
	}
}

func TestSetupLogging_PrettyAndLevelFilter(t *testing.T) {
	preserveGlobals(t)
	var buf bytes.Buffer

	logger := SetupLogging(&buf, LogOptions{Level: "warn", Pretty: true})
	logger.Info().Msg("dropped")
	logger.Warn().Msg("kept")

	out := buf.String()
	if strings.Contains(out, "dropped") || !strings.Contains(out, "kept") {
		t.Fatalf("level filter unexpected: %q", out)
	}
	if strings.HasPrefix(strings.TrimSpace(out), "{") {
		t.Fatalf("pretty output should not be JSON: %q", out)
	}
}
