package config

import (
	"slices"
	"testing"
	"time"
)

const sample = `
app:
  name: onboarding
otp:
  ttl_seconds: 300
  window_minutes: 10
list_yaml:
  - a
  - " b "
  - ""
list_csv: "x, y,,z"
secret: aGVsbG8=
bad_secret: "%%%"
`

func newSample(t *testing.T) *Viper {
	t.Helper()
	cfg, err := NewViperFromBytes("yaml", []byte(sample))
	if err != nil {
		t.Fatalf("NewViperFromBytes() error = %v", err)
	}
	return cfg
}

func TestViper_Getters(t *testing.T) {
	cfg := newSample(t)

	if got := cfg.GetString("app.name"); got != "onboarding" {
		t.Fatalf("GetString() = %q", got)
	}
	if got := cfg.GetSecond("otp.ttl_seconds"); got != 5*time.Minute {
		t.Fatalf("GetSecond() = %v", got)
	}
	if got := cfg.GetMinute("otp.window_minutes"); got != 10*time.Minute {
		t.Fatalf("GetMinute() = %v", got)
	}
	if got := string(cfg.GetBinary("secret")); got != "hello" {
		t.Fatalf("GetBinary() = %q", got)
	}
	if got := cfg.GetBinary("bad_secret"); got != nil {
		t.Fatalf("GetBinary() on invalid base64 = %v, want nil", got)
	}
}

func TestViper_GetArray(t *testing.T) {
	tests := []struct {
		key  string
		want []string
	}{
		{key: "list_yaml", want: []string{"a", "b"}},
		{key: "list_csv", want: []string{"x", "y", "z"}},
		{key: "missing", want: nil},
	}

	cfg := newSample(t)
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if got := cfg.GetArray(tt.key); !slices.Equal(got, tt.want) {
				t.Fatalf("GetArray(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestViper_EnvOverride(t *testing.T) {
	t.Setenv("ONBOARDING_OTP_TTL_SECONDS", "60")

	cfg := newSample(t)

	if got := cfg.GetSecond("otp.ttl_seconds"); got != time.Minute {
		t.Fatalf("GetSecond() with env override = %v, want 1m", got)
	}
}

func TestNewViperFromBytes_RequiresType(t *testing.T) {
	if _, err := NewViperFromBytes(" ", nil); err == nil {
		t.Fatal("NewViperFromBytes() error = nil, want error")
	}
}
