package snippet

import (
	"strconv"
	"strings"
)

// Parse converts a template string into a Snippet. It is total: malformed
// syntax never fails, the offending span degrades to literal text. When
// insertFinalTabstop is set and the template declares no tabstop 0, an
// empty one is appended after the last marker.
func Parse(template string, insertFinalTabstop bool) *Snippet {
	p := &parser{scanner: &scanner{value: template}}
	p.token = p.scanner.next()

	snip := &Snippet{}
	for p.parseMarker(&snip.markers) {
	}

	fillMirrorDefaults(snip)

	if insertFinalTabstop {
		snip.AppendFinalTabstop()
	}
	return snip
}

// fillMirrorDefaults copies the first non-empty default of each tabstop
// index into empty mirrors of that index, so "${1:foo} and $1" starts out
// with both regions showing "foo".
func fillMirrorDefaults(snip *Snippet) {
	defaults := make(map[int]string)
	var empty []*Placeholder
	snip.Walk(func(m Marker) bool {
		ph, ok := m.(*Placeholder)
		if !ok || ph.IsFinalTabstop() {
			return true
		}
		if len(ph.Children()) > 0 || len(ph.Choices) > 0 {
			if _, seen := defaults[ph.Index]; !seen {
				defaults[ph.Index] = ph.Value()
			}
		} else {
			empty = append(empty, ph)
		}
		return true
	})
	for _, ph := range empty {
		if value, ok := defaults[ph.Index]; ok && value != "" {
			ph.SetValue(value)
		}
	}
}

type parser struct {
	scanner *scanner
	token   token
}

func (p *parser) accept(typ tokenType) (string, bool) {
	if p.token.typ != typ {
		return "", false
	}
	text := p.scanner.tokenText(p.token)
	p.token = p.scanner.next()
	return text, true
}

func (p *parser) acceptT(typ tokenType) bool {
	_, ok := p.accept(typ)
	return ok
}

func (p *parser) acceptAny() (string, bool) {
	if p.token.typ == tokenEOF {
		return "", false
	}
	text := p.scanner.tokenText(p.token)
	p.token = p.scanner.next()
	return text, true
}

// backTo rewinds the scanner so tok becomes the current token again.
// Always returns false so callers can degrade in one statement.
func (p *parser) backTo(tok token) bool {
	p.scanner.pos = tok.pos + tok.len
	p.token = tok
	return false
}

func (p *parser) parseMarker(parent *[]Marker) bool {
	return p.parseEscaped(parent) ||
		p.parseTabstopOrVariableName(parent) ||
		p.parseComplexPlaceholder(parent) ||
		p.parseComplexVariable(parent) ||
		p.parseAnything(parent)
}

// parseEscaped handles \$, \} and \\; a lone backslash stays literal.
func (p *parser) parseEscaped(parent *[]Marker) bool {
	if !p.acceptT(tokenBackslash) {
		return false
	}
	text := "\\"
	for _, typ := range []tokenType{tokenDollar, tokenCurlyClose, tokenBackslash} {
		if escaped, ok := p.accept(typ); ok {
			text = escaped
			break
		}
	}
	*parent = appendMarker(*parent, NewText(text))
	return true
}

// parseTabstopOrVariableName handles the bare $1 and $name forms.
func (p *parser) parseTabstopOrVariableName(parent *[]Marker) bool {
	start := p.token
	if !p.acceptT(tokenDollar) {
		return false
	}
	if digits, ok := p.accept(tokenInt); ok {
		index, err := strconv.Atoi(digits)
		if err != nil {
			return p.backTo(start)
		}
		*parent = appendMarker(*parent, NewPlaceholder(index))
		return true
	}
	if name, ok := p.accept(tokenVariableName); ok {
		*parent = appendMarker(*parent, NewVariable(name))
		return true
	}
	return p.backTo(start)
}

// parseComplexPlaceholder handles ${1}, ${1:default}, ${1|a,b|} and
// ${1/regex/format/flags}.
func (p *parser) parseComplexPlaceholder(parent *[]Marker) bool {
	start := p.token
	if !p.acceptT(tokenDollar) {
		return false
	}
	if !p.acceptT(tokenCurlyOpen) {
		return p.backTo(start)
	}
	digits, ok := p.accept(tokenInt)
	if !ok {
		// not a numeric index, let the variable form have a try
		return p.backTo(start)
	}
	index, err := strconv.Atoi(digits)
	if err != nil {
		return p.backTo(start)
	}
	ph := NewPlaceholder(index)

	switch {
	case p.acceptT(tokenColon):
		// ${1:<children>}
		for {
			if p.acceptT(tokenCurlyClose) {
				*parent = appendMarker(*parent, ph)
				return true
			}
			if p.parseMarker(&ph.children) {
				continue
			}
			// unterminated: everything from the ${ degrades to text
			*parent = appendMarker(*parent, NewText("${"+digits+":"))
			for _, child := range ph.children {
				*parent = appendMarker(*parent, child)
			}
			return true
		}

	case p.acceptT(tokenPipe):
		// ${1|one,two,three|}
		var choices []string
		for {
			value, ok := p.parseChoiceElement()
			if !ok {
				return p.backTo(start)
			}
			choices = append(choices, value)
			if p.acceptT(tokenComma) {
				continue
			}
			if p.acceptT(tokenPipe) && p.acceptT(tokenCurlyClose) {
				ph.Choices = choices
				*parent = appendMarker(*parent, ph)
				return true
			}
			return p.backTo(start)
		}

	case p.acceptT(tokenForwardslash):
		// ${1/<regex>/<format>/<flags>}
		transform, ok := p.parseTransform()
		if !ok {
			return p.backTo(start)
		}
		ph.Transform = transform
		*parent = appendMarker(*parent, ph)
		return true

	case p.acceptT(tokenCurlyClose):
		*parent = appendMarker(*parent, ph)
		return true

	default:
		return p.backTo(start)
	}
}

// parseChoiceElement collects one choice entry, unescaping \, \| and \\.
func (p *parser) parseChoiceElement() (string, bool) {
	start := p.token
	var sb strings.Builder
	for {
		if p.token.typ == tokenComma || p.token.typ == tokenPipe {
			break
		}
		if p.acceptT(tokenBackslash) {
			switch {
			case p.acceptT(tokenComma):
				sb.WriteByte(',')
			case p.acceptT(tokenPipe):
				sb.WriteByte('|')
			case p.acceptT(tokenBackslash):
				sb.WriteByte('\\')
			default:
				sb.WriteByte('\\')
			}
			continue
		}
		text, ok := p.acceptAny()
		if !ok {
			p.backTo(start)
			return "", false
		}
		sb.WriteString(text)
	}
	if sb.Len() == 0 {
		p.backTo(start)
		return "", false
	}
	return sb.String(), true
}

// parseComplexVariable handles ${name}, ${name:default} and
// ${name/regex/format/flags}.
func (p *parser) parseComplexVariable(parent *[]Marker) bool {
	start := p.token
	if !p.acceptT(tokenDollar) {
		return false
	}
	if !p.acceptT(tokenCurlyOpen) {
		return p.backTo(start)
	}
	name, ok := p.accept(tokenVariableName)
	if !ok {
		return p.backTo(start)
	}
	v := NewVariable(name)

	switch {
	case p.acceptT(tokenColon):
		// ${name:<children>}
		for {
			if p.acceptT(tokenCurlyClose) {
				*parent = appendMarker(*parent, v)
				return true
			}
			if p.parseMarker(&v.children) {
				continue
			}
			*parent = appendMarker(*parent, NewText("${"+name+":"))
			for _, child := range v.children {
				*parent = appendMarker(*parent, child)
			}
			return true
		}

	case p.acceptT(tokenForwardslash):
		transform, ok := p.parseTransform()
		if !ok {
			return p.backTo(start)
		}
		v.Transform = transform
		*parent = appendMarker(*parent, v)
		return true

	case p.acceptT(tokenCurlyClose):
		*parent = appendMarker(*parent, v)
		return true

	default:
		return p.backTo(start)
	}
}

// caseState tracks a pending case directive (\u, \U, \l, \L) inside a
// transform format. A sticky shape persists until \E resets it.
type caseState struct {
	shape  CaseShape
	sticky bool
}

func (me *caseState) take() CaseShape {
	shape := me.shape
	if !me.sticky {
		me.shape = ShapeNone
	}
	return shape
}

// parseTransform consumes <regex>/<format>/<flags>} after the opening
// slash has already been accepted. Any irregularity, including a regex
// that does not compile, reports false so the caller can degrade.
func (p *parser) parseTransform() (*Transform, bool) {
	var pattern strings.Builder
	for {
		if p.acceptT(tokenForwardslash) {
			break
		}
		if p.acceptT(tokenBackslash) {
			if p.acceptT(tokenForwardslash) {
				pattern.WriteByte('/')
			} else {
				pattern.WriteByte('\\')
			}
			continue
		}
		text, ok := p.acceptAny()
		if !ok {
			return nil, false
		}
		pattern.WriteString(text)
	}

	var parts []FormatPart
	var pending caseState
	for {
		if p.acceptT(tokenForwardslash) {
			break
		}
		if p.acceptT(tokenBackslash) {
			switch {
			case p.acceptT(tokenBackslash):
				parts = append(parts, literalPart("\\", pending.take()))
			case p.acceptT(tokenForwardslash):
				parts = append(parts, literalPart("/", pending.take()))
			default:
				if c, ok := p.acceptCaseDirective(); ok {
					switch c {
					case 'u':
						pending = caseState{shape: ShapeCapitalize}
					case 'U':
						pending = caseState{shape: ShapeUpcase, sticky: true}
					case 'l':
						pending = caseState{shape: ShapeDowncase}
					case 'L':
						pending = caseState{shape: ShapeDowncase, sticky: true}
					case 'E':
						pending = caseState{}
					}
				} else {
					parts = append(parts, literalPart("\\", pending.take()))
				}
			}
			continue
		}
		if part, ok := p.parseFormatBackref(&pending); ok {
			parts = append(parts, part)
			continue
		}
		text, ok := p.acceptAny()
		if !ok {
			return nil, false
		}
		parts = append(parts, literalPart(text, pending.take()))
	}

	var flags strings.Builder
	for {
		if p.acceptT(tokenCurlyClose) {
			break
		}
		text, ok := p.acceptAny()
		if !ok {
			return nil, false
		}
		flags.WriteString(text)
	}

	transform, err := NewTransform(pattern.String(), parts, flags.String())
	if err != nil {
		return nil, false
	}
	return transform, true
}

// acceptCaseDirective consumes a single case-directive letter right after
// a backslash, splitting it off the front of a longer word if needed.
func (p *parser) acceptCaseDirective() (byte, bool) {
	tok := p.token
	if tok.typ != tokenVariableName || tok.len == 0 {
		return 0, false
	}
	switch c := p.scanner.value[tok.pos]; c {
	case 'u', 'U', 'l', 'L', 'E':
		p.scanner.pos = tok.pos + 1
		p.token = p.scanner.next()
		return c, true
	}
	return 0, false
}

// parseFormatBackref handles $1, ${1} and ${1:/upcase} inside a
// transform format.
func (p *parser) parseFormatBackref(pending *caseState) (FormatPart, bool) {
	start := p.token
	fail := func() (FormatPart, bool) {
		p.backTo(start)
		return FormatPart{}, false
	}

	if !p.acceptT(tokenDollar) {
		return FormatPart{}, false
	}
	if digits, ok := p.accept(tokenInt); ok {
		n, err := strconv.Atoi(digits)
		if err != nil {
			return fail()
		}
		return backrefPart(n, pending.take()), true
	}
	if !p.acceptT(tokenCurlyOpen) {
		return fail()
	}
	digits, ok := p.accept(tokenInt)
	if !ok {
		return fail()
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return fail()
	}
	if p.acceptT(tokenCurlyClose) {
		return backrefPart(n, pending.take()), true
	}
	if !p.acceptT(tokenColon) || !p.acceptT(tokenForwardslash) {
		return fail()
	}
	name, ok := p.accept(tokenVariableName)
	if !ok {
		return fail()
	}
	var shape CaseShape
	switch name {
	case "upcase":
		shape = ShapeUpcase
	case "downcase":
		shape = ShapeDowncase
	case "capitalize":
		shape = ShapeCapitalize
	default:
		return fail()
	}
	if !p.acceptT(tokenCurlyClose) {
		return fail()
	}
	return backrefPart(n, shape), true
}

// parseAnything consumes the current token as literal text.
func (p *parser) parseAnything(parent *[]Marker) bool {
	text, ok := p.acceptAny()
	if !ok {
		return false
	}
	*parent = appendMarker(*parent, NewText(text))
	return true
}
