package storage

import (
	"strings"
	"testing"
)

func TestNewImageKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		prompt     string
		wantPrefix string
	}{
		{"simple prompt", "a red fox", "a-red-fox-"},
		{"uppercase folded", "Sunset Over Water", "sunset-over-water-"},
		{"punctuation replaced", "cat, in space!", "cat--in-space-"},
		{"long prompt truncated", strings.Repeat("x", 100), strings.Repeat("x", 24) + "-"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			key := NewImageKey(tt.prompt)
			if !strings.HasPrefix(key, tt.wantPrefix) {
				t.Errorf("NewImageKey(%q) = %q, want prefix %q", tt.prompt, key, tt.wantPrefix)
			}
			if !strings.HasSuffix(key, ".png") {
				t.Errorf("NewImageKey(%q) = %q, want .png suffix", tt.prompt, key)
			}
		})
	}
}

func TestNewImageKey_Unique(t *testing.T) {
	t.Parallel()

	a := NewImageKey("same prompt")
	b := NewImageKey("same prompt")
	if a == b {
		t.Errorf("NewImageKey returned identical keys for repeated calls: %q", a)
	}
}
