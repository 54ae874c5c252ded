package cmd

import (
	"testing"

	"github.com/Yates-Labs/auditbot/internal/inspect"
)

func TestCommandsRegistered(t *testing.T) {
	want := []string{"monitor", "transcribe", "chat", "report", "summarize", "sentiment", "index", "serve", "bi"}

	registered := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		registered[c.Name()] = true
	}
	for _, name := range want {
		if !registered[name] {
			t.Errorf("expected %q to be registered", name)
		}
	}
}

func TestPersistentFlags(t *testing.T) {
	for _, name := range []string{"config", "log-level", "offline"} {
		if rootCmd.PersistentFlags().Lookup(name) == nil {
			t.Errorf("expected persistent flag --%s", name)
		}
	}
}

func TestFormatPrecision(t *testing.T) {
	v := 87.5
	if got := formatPrecision(&v); got != "87.50%" {
		t.Errorf("unexpected precision %q", got)
	}
	if got := formatPrecision(nil); got != inspect.NotAvailable {
		t.Errorf("expected %s for missing precision, got %q", inspect.NotAvailable, got)
	}
}

func TestFormatFlag(t *testing.T) {
	yes, no := true, false
	tests := []struct {
		name string
		flag *bool
		want string
	}{
		{"missing", nil, "-"},
		{"finding", &yes, "Sí"},
		{"no finding", &no, "No"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatFlag(tt.flag); got != tt.want {
				t.Errorf("formatFlag() = %q, want %q", got, tt.want)
			}
		})
	}
}
