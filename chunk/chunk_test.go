package chunk

import (
	"strings"
	"testing"
)

func TestSplit_Empty(t *testing.T) {
	if got := Split("", 10); got != nil {
		t.Errorf("split empty: got %v, want nil", got)
	}
}

func TestSplit_Short(t *testing.T) {
	got := Split("hello", 10)
	if len(got) != 1 || got[0] != "hello" {
		t.Errorf("split short: got %v, want [hello]", got)
	}
}

func TestSplit_ExactMultiple(t *testing.T) {
	got := Split("abcdef", 3)
	if len(got) != 2 {
		t.Fatalf("got %d segments, want 2", len(got))
	}
	if got[0] != "abc" || got[1] != "def" {
		t.Errorf("got %v, want [abc def]", got)
	}
}

func TestSplit_ConcatenationIdentity(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		maxLen int
	}{
		{"ascii", strings.Repeat("0123456789", 137), 40},
		{"cyrillic", strings.Repeat("привет мир ", 500), 100},
		{"single char segments", "abcdef", 1},
		{"one big segment", "short", 4000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			segments := Split(tt.text, tt.maxLen)

			if joined := strings.Join(segments, ""); joined != tt.text {
				t.Fatal("joined segments do not reproduce input")
			}

			textRunes := len([]rune(tt.text))
			wantCount := (textRunes + tt.maxLen - 1) / tt.maxLen
			if len(segments) != wantCount {
				t.Errorf("segment count: got %d, want %d", len(segments), wantCount)
			}

			for i, s := range segments {
				n := len([]rune(s))
				if n > tt.maxLen {
					t.Errorf("segment[%d]: %d runes > max %d", i, n, tt.maxLen)
				}
				if i < len(segments)-1 && n != tt.maxLen {
					t.Errorf("segment[%d]: %d runes, want exactly %d", i, n, tt.maxLen)
				}
			}
		})
	}
}

func TestSplit_DefaultMaxLen(t *testing.T) {
	text := strings.Repeat("x", DefaultMaxLen+1)
	got := Split(text, 0)
	if len(got) != 2 {
		t.Fatalf("got %d segments, want 2", len(got))
	}
	if len(got[0]) != DefaultMaxLen || len(got[1]) != 1 {
		t.Errorf("segment lengths: %d, %d", len(got[0]), len(got[1]))
	}
}

func TestSplit_RuneBoundary(t *testing.T) {
	// 3 two-byte runes; maxLen 2 must cut between runes, not bytes.
	got := Split("ёёё", 2)
	if len(got) != 2 {
		t.Fatalf("got %d segments, want 2", len(got))
	}
	if got[0] != "ёё" || got[1] != "ё" {
		t.Errorf("got %q", got)
	}
}
