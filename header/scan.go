package header

import (
	"regexp"
	"strings"

	"github.com/teranos/cfw/cdecl"
)

// The scanner recovers "<type tokens> name ( params ) ;" prototypes from
// regions tree-sitter could not parse, typically declarations decorated
// with vendor macros (WINBASEAPI BOOL WINAPI CloseHandle(__in HANDLE h);).
// It never expands macros: annotation tokens are kept for the normalizer.

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// C type keywords. An identifier from this set is never a parameter name.
var typeKeywords = map[string]bool{
	"void": true, "char": true, "short": true, "int": true, "long": true,
	"float": true, "double": true, "signed": true, "unsigned": true,
	"_Bool": true, "bool": true, "wchar_t": true, "_Complex": true,
	"__int8": true, "__int16": true, "__int32": true, "__int64": true,
}

var qualifiers = map[string]bool{
	"const": true, "volatile": true, "restrict": true, "__restrict": true,
}

var tagKeywords = map[string]bool{"struct": true, "union": true, "enum": true}

// Statements starting with these never declare a function.
var nonPrototypeStarts = map[string]bool{
	"typedef": true, "using": true, "template": true, "namespace": true,
	"return": true, "class": true, "friend": true, "static_assert": true,
	"_Static_assert": true,
}

type token struct {
	text string
	line int
}

// tokenize splits C source into tokens, dropping comments and preprocessor
// lines. line is the line number of the first byte of src.
func tokenize(src []byte, line int) []token {
	var toks []token
	s := string(src)
	atLineStart := true

	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == '\n':
			line++
			atLineStart = true
			i++
			continue

		case c == ' ' || c == '\t' || c == '\r' || c == '\f' || c == '\v':
			i++
			continue

		case c == '#' && atLineStart:
			// Preprocessor directive, honoring backslash continuations
			for i < len(s) && s[i] != '\n' {
				if s[i] == '\\' && i+1 < len(s) && s[i+1] == '\n' {
					line++
					i += 2
					continue
				}
				if s[i] == '\\' && i+2 < len(s) && s[i+1] == '\r' && s[i+2] == '\n' {
					line++
					i += 3
					continue
				}
				i++
			}
			continue

		case strings.HasPrefix(s[i:], "//"):
			for i < len(s) && s[i] != '\n' {
				i++
			}
			continue

		case strings.HasPrefix(s[i:], "/*"):
			end := strings.Index(s[i+2:], "*/")
			if end < 0 {
				end = len(s) - i - 2
			}
			line += strings.Count(s[i:i+2+end], "\n")
			i += end + 4
			continue
		}

		atLineStart = false
		start := i
		switch {
		case c == '_' || isAlpha(c):
			for i < len(s) && (s[i] == '_' || isAlpha(s[i]) || isDigit(s[i])) {
				i++
			}
		case isDigit(c):
			for i < len(s) && (s[i] == '.' || s[i] == '_' || isAlpha(s[i]) || isDigit(s[i])) {
				i++
			}
		case c == '"' || c == '\'':
			i++
			for i < len(s) && s[i] != c && s[i] != '\n' {
				if s[i] == '\\' {
					i++
				}
				i++
			}
			i++
		case strings.HasPrefix(s[i:], "..."):
			i += 3
		case strings.HasPrefix(s[i:], "::"):
			i += 2
		default:
			i++
		}
		if i > len(s) {
			i = len(s)
		}
		toks = append(toks, token{text: s[start:i], line: line})
	}
	return toks
}

func isAlpha(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// splitStatements groups top-level tokens into statements ending at ';' or at
// the opening brace of a body. Brace bodies are skipped, except the body of
// an extern "C" block whose contents are scanned as top-level statements.
func splitStatements(toks []token) [][]token {
	var stmts [][]token
	var cur []token
	var stack []bool // true for skipped bodies
	skipping := 0

	for _, t := range toks {
		switch t.text {
		case "{":
			if skipping > 0 {
				stack = append(stack, true)
				skipping++
				continue
			}
			if n := len(cur); n >= 2 && cur[n-2].text == "extern" && strings.HasPrefix(cur[n-1].text, `"`) {
				cur = nil
				stack = append(stack, false)
				continue
			}
			if len(cur) > 0 {
				stmts = append(stmts, cur)
			}
			cur = nil
			stack = append(stack, true)
			skipping++

		case "}":
			if len(stack) == 0 {
				continue
			}
			if stack[len(stack)-1] {
				skipping--
			}
			stack = stack[:len(stack)-1]

		case ";":
			if skipping == 0 {
				if len(cur) > 0 {
					stmts = append(stmts, cur)
				}
				cur = nil
			}

		default:
			if skipping == 0 {
				cur = append(cur, t)
			}
		}
	}
	if len(cur) > 0 {
		stmts = append(stmts, cur)
	}
	return stmts
}

// scanner turns token statements into declarations.
type scanner struct {
	file         string
	isAnnotation func(string) bool
}

// scan recovers every function prototype in src.
func (sc *scanner) scan(src []byte, firstLine int) []cdecl.Declaration {
	var decls []cdecl.Declaration
	for _, stmt := range splitStatements(tokenize(src, firstLine)) {
		if d, ok := sc.declaration(stmt); ok {
			decls = append(decls, d)
		}
	}
	return decls
}

func (sc *scanner) declaration(stmt []token) (cdecl.Declaration, bool) {
	if len(stmt) < 3 || nonPrototypeStarts[stmt[0].text] {
		return cdecl.Declaration{}, false
	}

	// The name is the first top-level identifier followed by "(" that is
	// neither an annotation nor a type keyword.
	nameIdx, open := -1, -1
	depth := 0
	for i, t := range stmt {
		switch t.text {
		case "(":
			if depth == 0 && i > 0 && sc.isName(stmt[i-1].text) {
				nameIdx, open = i-1, i
			}
			depth++
		case ")":
			depth--
		}
		if nameIdx >= 0 {
			break
		}
	}
	if nameIdx < 1 {
		return cdecl.Declaration{}, false
	}
	closeIdx := matching(stmt, open)
	if closeIdx < 0 {
		return cdecl.Declaration{}, false
	}
	// "int (*fp)(void)" style declarators and functions returning functions
	if closeIdx+1 < len(stmt) && stmt[closeIdx+1].text == "(" {
		return cdecl.Declaration{}, false
	}

	ret, _ := sc.typeOf(stmt[:nameIdx], false)
	decl := cdecl.Declaration{
		Name:   stmt[nameIdx].text,
		Return: ret,
		Pos:    cdecl.Pos{File: sc.file, Line: stmt[nameIdx].line},
	}

	for _, part := range splitCommas(stmt[open+1 : closeIdx]) {
		decl.HasPrototype = true
		if len(part) == 1 && part[0].text == "..." {
			decl.Params = append(decl.Params, cdecl.Param{Type: cdecl.Ellipsis{}})
			continue
		}
		typ, name := sc.typeOf(part, true)
		decl.Params = append(decl.Params, cdecl.Param{Name: name, Type: typ})
	}

	for _, t := range stmt[closeIdx+1:] {
		if qualifiers[t.text] {
			decl.Qualifiers = append(decl.Qualifiers, t.text)
		}
	}
	return decl, true
}

func (sc *scanner) isName(s string) bool {
	return identRe.MatchString(s) && !typeKeywords[s] && !tagKeywords[s] && !qualifiers[s] && !sc.isAnnotation(s)
}

// typeOf builds a declarator from type tokens. With named set, a trailing
// identifier that cannot be part of the type is returned as the name.
func (sc *scanner) typeOf(toks []token, named bool) (cdecl.Declarator, string) {
	var words []string
	ref := false
	array, arraySize := false, ""
	sawBase := false

	for i := 0; i < len(toks); i++ {
		t := toks[i].text
		switch {
		case t == "(":
			// Annotation arguments attach to the annotation: __in_bcount(n)
			if len(words) == 0 || !sc.isAnnotation(words[len(words)-1]) {
				return cdecl.Unknown{Kind: "function_pointer", Text: joinTokens(toks)}, ""
			}
			end := matching(toks, i)
			if end < 0 {
				return cdecl.Unknown{Kind: "unbalanced", Text: joinTokens(toks)}, ""
			}
			words[len(words)-1] += joinTokens(toks[i : end+1])
			i = end

		case t == "[":
			end := matchingBracket(toks, i)
			if end < 0 {
				return cdecl.Unknown{Kind: "unbalanced", Text: joinTokens(toks)}, ""
			}
			if !sawBase {
				// MIDL-style attribute list: [in], [out, retval]
				words = append(words, joinTokens(toks[i:end+1]))
			} else {
				array = true
				arraySize = joinTokens(toks[i+1 : end])
			}
			i = end

		case t == "*":
			words = append(words, t)

		case t == "&":
			ref = true

		case strings.HasPrefix(t, `"`):
			// linkage string of extern "C"

		default:
			if identRe.MatchString(t) && !sc.isAnnotation(t) && !qualifiers[t] {
				sawBase = true
			}
			words = append(words, t)
		}
	}

	name := ""
	if named {
		// Annotations may follow the name: "LPCSTR lpName OPTIONAL"
		end := len(words)
		for end > 0 && sc.isAnnotation(words[end-1]) {
			end--
		}
		if end >= 2 {
			last, prev := words[end-1], words[end-2]
			if sc.isName(last) && !tagKeywords[prev] && sc.hasBaseBefore(words[:end-1]) {
				name = last
				words = append(words[:end-1:end-1], words[end:]...)
			}
		}
	}

	var modifiers []string
	depthPtr := 0
	kind, tag := "", ""
	for i := 0; i < len(words); i++ {
		w := words[i]
		switch {
		case w == "*":
			depthPtr++
		case depthPtr > 0 && qualifiers[w]:
			// qualifies the pointer itself
		case tagKeywords[w] && i+1 < len(words):
			kind, tag = w, words[i+1]
			i++
		default:
			modifiers = append(modifiers, w)
		}
	}

	var d cdecl.Declarator
	if kind != "" {
		d = cdecl.Struct{Kind: kind, Tag: tag, Modifiers: modifiers}
	} else {
		// The base name is the last word that is neither annotation nor qualifier.
		idx := -1
		for i := len(modifiers) - 1; i >= 0; i-- {
			if !sc.isAnnotation(modifiers[i]) && !qualifiers[modifiers[i]] && identRe.MatchString(modifiers[i]) {
				idx = i
				break
			}
		}
		if idx < 0 {
			return cdecl.Unknown{Kind: "no_type", Text: joinTokens(toks)}, name
		}
		// nil when the base name stands alone, matching the tree-sitter path
		var rest []string
		rest = append(rest, modifiers[:idx]...)
		rest = append(rest, modifiers[idx+1:]...)
		d = cdecl.Named{Modifiers: rest, Name: modifiers[idx], Reference: ref}
	}

	for i := 0; i < depthPtr; i++ {
		d = cdecl.Pointer{Elem: d}
	}
	if array {
		d = cdecl.Array{Elem: d, Size: arraySize}
	}
	return d, name
}

func (sc *scanner) hasBaseBefore(words []string) bool {
	for _, w := range words {
		if w != "*" && identRe.MatchString(w) && !sc.isAnnotation(w) && !qualifiers[w] {
			return true
		}
	}
	return false
}

// matching returns the index of the ")" closing the "(" at open, or -1.
func matching(toks []token, open int) int {
	return closeOf(toks, open, "(", ")")
}

func matchingBracket(toks []token, open int) int {
	return closeOf(toks, open, "[", "]")
}

func closeOf(toks []token, open int, o, c string) int {
	depth := 0
	for i := open; i < len(toks); i++ {
		switch toks[i].text {
		case o:
			depth++
		case c:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// splitCommas splits a parameter list at top-level commas.
func splitCommas(toks []token) [][]token {
	if len(toks) == 0 {
		return nil
	}
	var parts [][]token
	depth, start := 0, 0
	for i, t := range toks {
		switch t.text {
		case "(", "[", "<":
			depth++
		case ")", "]", ">":
			depth--
		case ",":
			if depth == 0 {
				parts = append(parts, toks[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, toks[start:])
}

// joinTokens renders tokens compactly: "__in_bcount(n * 2)" stays readable.
func joinTokens(toks []token) string {
	var sb strings.Builder
	for i, t := range toks {
		if i > 0 && needsSpace(toks[i-1].text, t.text) {
			sb.WriteByte(' ')
		}
		sb.WriteString(t.text)
	}
	return sb.String()
}

func needsSpace(prev, next string) bool {
	word := func(s string) bool { return s != "" && (s[0] == '_' || isAlpha(s[0]) || isDigit(s[0])) }
	return word(prev) && word(next)
}
