package textfilter

import (
	"os"
	"path/filepath"
	"testing"
)

func TestScriptFilter_ShouldTranslate(t *testing.T) {
	f := NewScriptFilter(nil)

	tests := []struct {
		name string
		text string
		want bool
	}{
		{"empty", "", false},
		{"whitespace only", "   \n\t ", false},
		{"latin only", "hello world", false},
		{"hiragana", "こんにちは", true},
		{"katakana", "カタカナ", true},
		{"kanji", "翻訳", true},
		{"mixed latin and japanese", "Menu: ラーメン 800円", true},
		{"digits and punctuation", "12:30 PM!", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.ShouldTranslate(tt.text); got != tt.want {
				t.Errorf("ShouldTranslate(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestAnyTextFilter(t *testing.T) {
	f := NewAnyText()

	if f.ShouldTranslate("") {
		t.Error("Expected empty text to be rejected")
	}
	if f.ShouldTranslate("  ") {
		t.Error("Expected whitespace-only text to be rejected")
	}
	if !f.ShouldTranslate("hello world") {
		t.Error("Expected plain latin text to be accepted without script filter")
	}
	if !f.ShouldTranslate("こんにちは") {
		t.Error("Expected japanese text to be accepted")
	}
}

func TestScriptFilter_CustomRanges(t *testing.T) {
	// Hangul syllables only
	f := NewScriptFilter([]ScriptRange{{Lo: 0xAC00, Hi: 0xD7AF}})

	if !f.ShouldTranslate("안녕하세요") {
		t.Error("Expected hangul to match the custom range")
	}
	if f.ShouldTranslate("こんにちは") {
		t.Error("Expected japanese to be rejected by the hangul-only range")
	}
}

func TestLoadScriptRanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ranges.yaml")
	content := "ranges:\n  - lo: \"0xAC00\"\n    hi: \"0xD7AF\"\n  - lo: \"U+3040\"\n    hi: \"U+30FF\"\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write ranges file: %v", err)
	}

	ranges, err := LoadScriptRanges(path)
	if err != nil {
		t.Fatalf("LoadScriptRanges() failed: %v", err)
	}
	if len(ranges) != 2 {
		t.Fatalf("Expected 2 ranges, got %d", len(ranges))
	}
	if ranges[0].Lo != 0xAC00 || ranges[0].Hi != 0xD7AF {
		t.Errorf("Unexpected first range: %+v", ranges[0])
	}
	if ranges[1].Lo != 0x3040 || ranges[1].Hi != 0x30FF {
		t.Errorf("Unexpected second range: %+v", ranges[1])
	}
}

func TestLoadScriptRanges_Invalid(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
	}{
		{"empty ranges", "ranges: []\n"},
		{"bad code point", "ranges:\n  - lo: \"xyz\"\n    hi: \"0x30FF\"\n"},
		{"inverted range", "ranges:\n  - lo: \"0x30FF\"\n    hi: \"0x3040\"\n"},
		{"not yaml", "{{{{\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0o600); err != nil {
				t.Fatalf("write ranges file: %v", err)
			}
			if _, err := LoadScriptRanges(path); err == nil {
				t.Error("Expected error, got nil")
			}
		})
	}
}

func TestLoadScriptRanges_MissingFile(t *testing.T) {
	if _, err := LoadScriptRanges(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}
}
