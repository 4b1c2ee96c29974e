package snippet

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// CaseShape is a case-shaping rule applied to a format fragment.
type CaseShape int

const (
	ShapeNone CaseShape = iota
	ShapeUpcase
	ShapeDowncase
	ShapeCapitalize
)

// FormatPart is one fragment of a transform's replacement: either a
// literal (Backref < 0) or a back-reference into the regex match.
type FormatPart struct {
	Text    string
	Backref int
	Shape   CaseShape
}

func literalPart(text string, shape CaseShape) FormatPart {
	return FormatPart{Text: text, Backref: -1, Shape: shape}
}

func backrefPart(n int, shape CaseShape) FormatPart {
	return FormatPart{Backref: n, Shape: shape}
}

// Transform rewrites the resolved plain-text value of its owning
// placeholder or variable through a regular expression substitution.
type Transform struct {
	re     *regexp.Regexp
	parts  []FormatPart
	global bool
}

// NewTransform compiles pattern with the given flags ("g" replaces every
// match, "i" matches case-insensitively). An invalid pattern returns an
// error so the parser can degrade the whole clause to literal text.
func NewTransform(pattern string, parts []FormatPart, flags string) (*Transform, error) {
	if strings.ContainsRune(flags, 'i') {
		pattern = "(?i)" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	return &Transform{
		re:     re,
		parts:  parts,
		global: strings.ContainsRune(flags, 'g'),
	}, nil
}

// Apply returns the transformed value. The source string is never
// mutated; unmatched stretches pass through unchanged.
func (me *Transform) Apply(value string) string {
	limit := 1
	if me.global {
		limit = -1
	}
	matches := me.re.FindAllStringSubmatchIndex(value, limit)
	if matches == nil {
		return value
	}

	var sb strings.Builder
	last := 0
	for _, idx := range matches {
		sb.WriteString(value[last:idx[0]])
		me.expand(&sb, value, idx)
		last = idx[1]
	}
	sb.WriteString(value[last:])
	return sb.String()
}

func (me *Transform) expand(sb *strings.Builder, value string, idx []int) {
	for _, part := range me.parts {
		if part.Backref < 0 {
			sb.WriteString(applyShape(part.Text, part.Shape))
			continue
		}
		g := part.Backref * 2
		if g+1 >= len(idx) || idx[g] < 0 {
			continue
		}
		sb.WriteString(applyShape(value[idx[g]:idx[g+1]], part.Shape))
	}
}

func applyShape(s string, shape CaseShape) string {
	switch shape {
	case ShapeUpcase:
		return strings.ToUpper(s)
	case ShapeDowncase:
		return strings.ToLower(s)
	case ShapeCapitalize:
		if s == "" {
			return s
		}
		r, size := utf8.DecodeRuneInString(s)
		return string(unicode.ToUpper(r)) + s[size:]
	}
	return s
}
