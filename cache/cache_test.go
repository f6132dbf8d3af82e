package cache

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestKey_Validate(t *testing.T) {
	tests := []struct {
		name    string
		key     Key
		wantErr error
	}{
		{"valid", Key{UserID: "u1", PhaseID: 2, Kind: "lesson", Fingerprint: "fp:0011223344556677"}, nil},
		{"missing user", Key{PhaseID: 2, Kind: "lesson", Fingerprint: "fp:1"}, ErrInvalidKey},
		{"missing kind", Key{UserID: "u1", Fingerprint: "fp:1"}, ErrInvalidKey},
		{"missing fingerprint", Key{UserID: "u1", Kind: "lesson"}, ErrInvalidKey},
		{"newline", Key{UserID: "u1", Kind: "lesson", Fingerprint: "fp:1\n"}, ErrInvalidKey},
		{"too long", Key{UserID: "u1", Kind: "lesson", Fingerprint: strings.Repeat("a", MaxFingerprintLength+1)}, ErrKeyTooLong},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.key.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestKey_String(t *testing.T) {
	k := Key{UserID: "u1", PhaseID: 3, Kind: "quiz", Fingerprint: "fp:ab"}
	if got, want := k.String(), "u1:3:quiz:fp:ab"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestEntry_Expired(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		expires time.Time
		want    bool
	}{
		{now.Add(time.Second), false},
		{now, true},
		{now.Add(-time.Second), true},
	}
	for _, tt := range tests {
		e := &Entry{ExpiresAt: tt.expires}
		if got := e.Expired(now); got != tt.want {
			t.Errorf("Expired(%v) with expiry %v = %v, want %v", now, tt.expires, got, tt.want)
		}
	}
}

func TestEntry_CloneDoesNotShareScore(t *testing.T) {
	score := 4.0
	e := &Entry{ID: "a", SuccessScore: &score}
	c := e.Clone()
	*c.SuccessScore = 1
	if *e.SuccessScore != 4 {
		t.Errorf("original score = %v, want 4", *e.SuccessScore)
	}
	if (*Entry)(nil).Clone() != nil {
		t.Error("Clone of nil should be nil")
	}
}

func TestValidateEntry(t *testing.T) {
	valid := func() *Entry {
		return &Entry{UserID: "u1", Kind: "lesson", Fingerprint: "fp:1", Content: "<p>x</p>", ExpiresAt: time.Now().Add(time.Hour)}
	}

	if err := ValidateEntry(valid()); err != nil {
		t.Fatalf("ValidateEntry(valid) = %v", err)
	}
	if err := ValidateEntry(nil); !errors.Is(err, ErrEmptyEntry) {
		t.Errorf("ValidateEntry(nil) = %v, want ErrEmptyEntry", err)
	}

	blank := valid()
	blank.Content = "   "
	if err := ValidateEntry(blank); !errors.Is(err, ErrEmptyEntry) {
		t.Errorf("ValidateEntry(blank) = %v, want ErrEmptyEntry", err)
	}

	noExpiry := valid()
	noExpiry.ExpiresAt = time.Time{}
	if err := ValidateEntry(noExpiry); !errors.Is(err, ErrNoExpiry) {
		t.Errorf("ValidateEntry(noExpiry) = %v, want ErrNoExpiry", err)
	}
}

func TestValidateScore(t *testing.T) {
	for _, s := range []float64{0, 2.5, 5} {
		if err := ValidateScore(s); err != nil {
			t.Errorf("ValidateScore(%v) = %v", s, err)
		}
	}
	for _, s := range []float64{-0.1, 5.1} {
		if err := ValidateScore(s); !errors.Is(err, ErrInvalidRate) {
			t.Errorf("ValidateScore(%v) = %v, want ErrInvalidRate", s, err)
		}
	}
}
