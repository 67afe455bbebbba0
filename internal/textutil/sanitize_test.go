package textutil

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Yua Mikami", "Yua Mikami"},
		{`a<b>c:d"e/f\g|h?i*j`, "a_b_c_d_e_f_g_h_i_j"},
		{"  ..title..  ", "title"},
		{"", Unknown},
		{" . . ", Unknown},
		{"tab\there", "tab_here"},
		{"三上悠亜", "三上悠亜"},
		{"e\u0301", "\u00e9"},
	}
	for _, tt := range tests {
		if got := Sanitize(tt.in); got != tt.want {
			t.Errorf("Sanitize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSanitizeIdempotent(t *testing.T) {
	inputs := []string{
		"", " ", ".", "..hidden", "trailing. ", "a/b", "?*?", "Unknown",
		" .:. ", "x\x00y", "Title: Part 1 / Part 2", "名前 <特別版>", "e\u0301.",
		"._.", " _ ", "...a...", "\u200b", "C:\\Windows",
	}
	for _, in := range inputs {
		once := Sanitize(in)
		if twice := Sanitize(once); twice != once {
			t.Errorf("Sanitize not idempotent for %q: %q then %q", in, once, twice)
		}
		if strings.ContainsAny(once, `<>:"/\|?*`) {
			t.Errorf("Sanitize(%q) left invalid characters: %q", in, once)
		}
	}
}

func TestSanitizeOptionalKeepsEmpty(t *testing.T) {
	if got := SanitizeOptional("  "); got != "" {
		t.Fatalf("SanitizeOptional(blank) = %q", got)
	}
	if got := SanitizeOptional("S1/Series"); got != "S1_Series" {
		t.Fatalf("SanitizeOptional = %q", got)
	}
}

func TestTruncateComponentPreservesExtension(t *testing.T) {
	got := TruncateComponent("ABCDEFGHIJKLMNOP.mp4", 10, true)
	if !strings.HasSuffix(got, ".mp4") {
		t.Fatalf("extension lost: %q", got)
	}
	if n := utf8.RuneCountInString(got); n > 10 {
		t.Fatalf("length %d exceeds 10: %q", n, got)
	}
	if got != "ABCDEF.mp4" {
		t.Fatalf("got %q", got)
	}
}

func TestTruncateComponent(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		max     int
		keepExt bool
		want    string
	}{
		{"short unchanged", "abc.mp4", 10, true, "abc.mp4"},
		{"directory cut", "abcdefghijkl", 5, false, "abcde"},
		{"runes not bytes", "あいうえおかきくけこ", 4, false, "あいうえ"},
		{"multibyte stem", "あいうえおかきくけこ.mkv", 7, true, "あいう.mkv"},
		{"trailing space trimmed", "abcd efgh.mp4", 9, true, "abcd.mp4"},
		{"ext longer than max", "a.verylongext", 5, true, "a.ver"},
		{"no limit", "abcdef", 0, true, "abcdef"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TruncateComponent(tt.in, tt.max, tt.keepExt); got != tt.want {
				t.Fatalf("TruncateComponent(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
			}
		})
	}
}
