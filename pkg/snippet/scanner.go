package snippet

type tokenType int

const (
	tokenDollar tokenType = iota
	tokenColon
	tokenComma
	tokenCurlyOpen
	tokenCurlyClose
	tokenBackslash
	tokenForwardslash
	tokenPipe
	tokenInt
	tokenVariableName
	tokenFormat
	tokenEOF
)

type token struct {
	typ tokenType
	pos int
	len int
}

var staticTokens = map[byte]tokenType{
	'$':  tokenDollar,
	':':  tokenColon,
	',':  tokenComma,
	'{':  tokenCurlyOpen,
	'}':  tokenCurlyClose,
	'\\': tokenBackslash,
	'/':  tokenForwardslash,
	'|':  tokenPipe,
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isVariableChar(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// scanner produces tokens over a template string. It is position driven,
// so the parser can rewind it to any byte offset for backtracking.
type scanner struct {
	value string
	pos   int
}

func (me *scanner) tokenText(t token) string {
	return me.value[t.pos : t.pos+t.len]
}

func (me *scanner) next() token {
	if me.pos >= len(me.value) {
		return token{typ: tokenEOF, pos: me.pos}
	}

	start := me.pos
	c := me.value[start]

	if typ, ok := staticTokens[c]; ok {
		me.pos++
		return token{typ: typ, pos: start, len: 1}
	}

	if isDigit(c) {
		for me.pos < len(me.value) && isDigit(me.value[me.pos]) {
			me.pos++
		}
		return token{typ: tokenInt, pos: start, len: me.pos - start}
	}

	if isVariableChar(c) {
		me.pos++
		for me.pos < len(me.value) && (isVariableChar(me.value[me.pos]) || isDigit(me.value[me.pos])) {
			me.pos++
		}
		return token{typ: tokenVariableName, pos: start, len: me.pos - start}
	}

	// anything else: a run of characters that mean nothing to the grammar
	for me.pos < len(me.value) {
		c := me.value[me.pos]
		if _, ok := staticTokens[c]; ok || isDigit(c) || isVariableChar(c) {
			break
		}
		me.pos++
	}
	return token{typ: tokenFormat, pos: start, len: me.pos - start}
}
