package secret

import (
	"errors"
	"strings"
	"testing"
)

func TestExpandStrict(t *testing.T) {
	env := map[string]string{"HOST": "db.internal", "EMPTY": ""}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"postgres://${HOST}/gencache", "postgres://db.internal/gencache"},
		{"x${EMPTY}y", "xy"},
		{"$HOST", "$HOST"},
		{"$$${HOST}", "$db.internal"},
		{"$${HOST}", "${HOST}"},
	}
	for _, tt := range tests {
		got, err := ExpandStrict(tt.in, lookup)
		if err != nil {
			t.Errorf("ExpandStrict(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ExpandStrict(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExpandStrict_ReportsEveryMissingVariable(t *testing.T) {
	lookup := func(string) (string, bool) { return "", false }

	_, err := ExpandStrict("${B} ${A} ${B}", lookup)
	if !errors.Is(err, ErrMissingEnv) {
		t.Fatalf("error = %v, want ErrMissingEnv", err)
	}
	if !strings.HasSuffix(err.Error(), ": A, B") {
		t.Errorf("error = %q, want sorted unique names", err.Error())
	}
}

func TestExpandEnvStrict(t *testing.T) {
	t.Setenv("GENCACHE_TEST_X", "y")

	got, err := ExpandEnvStrict("${GENCACHE_TEST_X}")
	if err != nil || got != "y" {
		t.Errorf("ExpandEnvStrict() = %q, %v, want y", got, err)
	}
}
