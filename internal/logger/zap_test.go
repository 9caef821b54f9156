package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestToZapLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		" INFO ":  zapcore.InfoLevel,
		"warn":    zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"verbose": defaultZapLevel,
		"":        defaultZapLevel,
	}
	for in, want := range cases {
		if got := toZapLevel(in); got != want {
			t.Errorf("toZapLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestGet_ReturnsSingleton(t *testing.T) {
	a := Get(InfoLevel, FormatConsole)
	b := Get(DebugLevel, FormatJSON)
	if a != b {
		t.Fatalf("Get must return the same instance")
	}
	if New(InfoLevel, FormatJSON) == a {
		t.Fatalf("New must not return the singleton")
	}
}

func TestNop_DoesNotPanic(t *testing.T) {
	l := Nop()
	l.Infow("ignored", "k", "v")
	l.Errorw("ignored", "err", "x")
}
