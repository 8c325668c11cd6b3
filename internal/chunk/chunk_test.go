package chunk

import (
	"strings"
	"testing"
)

func TestSplit_Reconstructs(t *testing.T) {
	cases := []struct {
		name string
		text string
		max  int
	}{
		{"short", "hello", 10},
		{"exact", "abcdef", 3},
		{"remainder", "abcdefg", 3},
		{"single_chars", "abc", 1},
		{"long", strings.Repeat("x", 10000), 4096},
		{"multibyte", strings.Repeat("привет мир ", 500), 100},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pieces := Split(tc.text, tc.max)
			if got := strings.Join(pieces, ""); got != tc.text {
				t.Fatalf("concatenation does not reproduce input: got %d chars want %d", len(got), len(tc.text))
			}
			for i, p := range pieces {
				if n := len([]rune(p)); n > tc.max {
					t.Fatalf("piece %d has %d chars, limit %d", i, n, tc.max)
				}
			}
		})
	}
}

func TestSplit_Empty(t *testing.T) {
	if pieces := Split("", 4096); len(pieces) != 0 {
		t.Fatalf("expected no pieces for empty text, got %d", len(pieces))
	}
}

func TestSplit_PieceCount(t *testing.T) {
	pieces := Split(strings.Repeat("a", 9000), 4096)
	if len(pieces) != 3 {
		t.Fatalf("expected 3 pieces, got %d", len(pieces))
	}
	if len(pieces[0]) != 4096 || len(pieces[1]) != 4096 || len(pieces[2]) != 808 {
		t.Fatalf("unexpected piece sizes: %d %d %d", len(pieces[0]), len(pieces[1]), len(pieces[2]))
	}
}

func TestSplit_NonPositiveMaxUsesDefault(t *testing.T) {
	pieces := Split(strings.Repeat("a", 5000), 0)
	if len(pieces) != 2 {
		t.Fatalf("expected default ceiling %d to apply, got %d pieces", TelegramMax, len(pieces))
	}
}
