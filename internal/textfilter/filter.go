package textfilter

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ScriptRange is an inclusive range of Unicode code points
type ScriptRange struct {
	Lo rune `yaml:"lo"`
	Hi rune `yaml:"hi"`
}

// DefaultScriptRanges covers Hiragana/Katakana (U+3040-U+30FF) and the CJK
// Unified Ideographs block (U+4E00-U+9FFF)
func DefaultScriptRanges() []ScriptRange {
	return []ScriptRange{
		{Lo: 0x3040, Hi: 0x30FF},
		{Lo: 0x4E00, Hi: 0x9FFF},
	}
}

// Filter decides whether observed text is worth sending to the translation
// service. It is a pure predicate; ineligible text is discarded silently.
type Filter struct {
	ranges []ScriptRange
}

// NewScriptFilter returns a filter that additionally requires at least one
// rune inside one of the given ranges. Used by the OCR flow, where camera
// frames routinely contain UI chrome and already-translated text.
func NewScriptFilter(ranges []ScriptRange) *Filter {
	if len(ranges) == 0 {
		ranges = DefaultScriptRanges()
	}
	return &Filter{ranges: ranges}
}

// NewAnyText returns a filter that accepts any non-empty text. Used by the
// voice flow, where the transcriber already gates on speech.
func NewAnyText() *Filter {
	return &Filter{}
}

// ShouldTranslate reports whether text is eligible for translation
func (f *Filter) ShouldTranslate(text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}
	if len(f.ranges) == 0 {
		return true
	}
	for _, r := range text {
		for _, sr := range f.ranges {
			if r >= sr.Lo && r <= sr.Hi {
				return true
			}
		}
	}
	return false
}

// rangesFile is the on-disk shape of a script ranges override
type rangesFile struct {
	Ranges []scriptRangeYAML `yaml:"ranges"`
}

type scriptRangeYAML struct {
	Lo string `yaml:"lo"`
	Hi string `yaml:"hi"`
}

// LoadScriptRanges reads script ranges from a YAML file. Code points are
// hex strings ("0x3040") so the file stays readable next to Unicode charts.
func LoadScriptRanges(path string) ([]ScriptRange, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script ranges file: %w", err)
	}

	var file rangesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse script ranges file: %w", err)
	}
	if len(file.Ranges) == 0 {
		return nil, fmt.Errorf("script ranges file %s defines no ranges", path)
	}

	ranges := make([]ScriptRange, 0, len(file.Ranges))
	for i, r := range file.Ranges {
		lo, err := parseCodePoint(r.Lo)
		if err != nil {
			return nil, fmt.Errorf("range %d lo: %w", i, err)
		}
		hi, err := parseCodePoint(r.Hi)
		if err != nil {
			return nil, fmt.Errorf("range %d hi: %w", i, err)
		}
		if hi < lo {
			return nil, fmt.Errorf("range %d is inverted (%s > %s)", i, r.Lo, r.Hi)
		}
		ranges = append(ranges, ScriptRange{Lo: lo, Hi: hi})
	}
	return ranges, nil
}

func parseCodePoint(s string) (rune, error) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.ToLower(s), "u+"))
	s = strings.TrimPrefix(s, "0x")
	if s == "" {
		return 0, fmt.Errorf("empty code point")
	}
	cp, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid code point %q", s)
	}
	return rune(cp), nil
}
