package asm

import (
	"regexp"
	"strings"
	"unicode"
)

// LineKind classifies a source line. The kind is decided once by
// Classify and every later stage switches on it.
type LineKind int

// The following constants define the line kinds.
const (
	KindInstruction = LineKind(iota)
	KindLabel
	KindText
	KindData
	KindAlign
	KindSpace
	KindAscii
	KindAsciiz
	KindDouble
	KindFloat
	KindWord
	KindReset
	KindComment
)

var directiveKinds = map[string]LineKind{
	".text":   KindText,
	".data":   KindData,
	".align":  KindAlign,
	".space":  KindSpace,
	".ascii":  KindAscii,
	".asciiz": KindAsciiz,
	".double": KindDouble,
	".float":  KindFloat,
	".word":   KindWord,
}

// IsData returns whether the kind lays out data elements.
func (k LineKind) IsData() bool {
	switch k {
	case KindAscii, KindAsciiz, KindDouble, KindFloat, KindWord:
		return true
	default:
		return false
	}
}

// labelPattern is the label definition syntax of this dialect.
var labelPattern = regexp.MustCompile(`^[a-z][a-zA-Z0-9]*:$`)

// IsLabel returns whether token is a label definition such as `loop:`.
func IsLabel(token string) bool {
	return labelPattern.MatchString(token)
}

// looksLikeLabel is the looser test used while classifying so that a
// badly spelled label is reported as unresolved rather than as an opcode.
func looksLikeLabel(token string) bool {
	return len(token) > 1 && strings.HasSuffix(token, ":") && !strings.HasPrefix(token, `"`)
}

func isComment(token string) bool {
	return strings.HasPrefix(token, ";")
}

// Tokenize splits a raw source line into tokens. Commas and tabs are
// replaced by a space everywhere, including inside double quotes, but
// the line is only split outside quotes, so that a string literal
// survives as a single token including its quotes. A backslash escape
// inside quotes does not close the literal. The second return value is
// false when the line is blank.
func Tokenize(raw string) ([]string, bool) {
	var (
		tokens  []string
		current strings.Builder
		quoted  bool
		escaped bool
	)
	flush := func() {
		if current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}
	}
	for _, r := range raw {
		switch {
		case quoted:
			if r == ',' || r == '\t' {
				r = ' '
			}
			current.WriteRune(r)
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				quoted = false
			}
		case r == '"':
			quoted = true
			current.WriteRune(r)
		case r == ',' || unicode.IsSpace(r):
			flush()
		default:
			current.WriteRune(r)
		}
	}
	flush()
	return tokens, len(tokens) > 0
}

// Classify builds a Line from the tokens of source line lineno.
func Classify(tokens []string, lineno int) Line {
	line := Line{Tokens: tokens, Lineno: lineno}
	if len(tokens) == 1 && tokens[0] == ";" {
		line.Kind = KindReset
		return line
	}
	if isComment(tokens[0]) {
		line.Kind = KindComment
		return line
	}
	rest := tokens
	for len(rest) > 0 && len(line.Labels) < 2 && looksLikeLabel(rest[0]) {
		line.Labels = append(line.Labels, rest[0])
		rest = rest[1:]
	}
	if len(rest) == 0 || isComment(rest[0]) {
		line.Kind = KindLabel
		return line
	}
	line.Mnemonic = rest[0]
	for _, token := range rest[1:] {
		if isComment(token) {
			break
		}
		line.Operands = append(line.Operands, token)
	}
	if kind, found := directiveKinds[line.Mnemonic]; found {
		line.Kind = kind
	} else {
		line.Kind = KindInstruction
	}
	return line
}
