package prototype

import (
	"regexp"
	"strings"

	"github.com/teranos/cfw/cdecl"
	"github.com/teranos/cfw/errors"
)

// Type is a normalized C++ type string such as "const char*" or "struct _FILETIME*".
type Type string

func (t Type) String() string { return string(t) }

// Outcome classifies a normalization attempt.
type Outcome int

const (
	// OutcomeOK means Type holds the normalized type.
	OutcomeOK Outcome = iota
	// OutcomeSkip means the declarator shape is not supported; the declaration is dropped.
	OutcomeSkip
	// OutcomeError means the declaration itself is malformed.
	OutcomeError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeSkip:
		return "skip"
	case OutcomeError:
		return "error"
	default:
		return "unknown"
	}
}

// Result is the explicit outcome of normalizing one declarator.
type Result struct {
	Type    Type
	Outcome Outcome
	Err     error
}

// OK reports whether normalization succeeded.
func (r Result) OK() bool { return r.Outcome == OutcomeOK }

func ok(t string) Result { return Result{Type: Type(t), Outcome: OutcomeOK} }

func skip(err error) Result { return Result{Outcome: OutcomeSkip, Err: err} }

func fail(err error) Result { return Result{Outcome: OutcomeError, Err: err} }

var (
	// SAL 1 direction annotations: __in, __out_opt, __inout_bcount(n), IN, OUT, OPTIONAL.
	// The suffix must start with '_' so __int64 and friends stay types.
	sal1Pattern = regexp.MustCompile(`^(__(in|out|inout|deref|reserved)(_\w+)?|IN|OUT|OPTIONAL|CONST_IN)$`)
	// SAL 2 annotations: _In_, _Out_writes_bytes_(n), _Inout_opt_, _Ret_maybenull_
	sal2Pattern = regexp.MustCompile(`^_(In|Out|Inout|Outptr|Deref|Ret|Pre|Post|Reserved|Success|Check_return|Printf_format_string|When|At|Field|Frees_ptr|Post_invalid|Must_inspect_result|Use_decl_annotations|Null_terminated|NullNull_terminated|Analysis)\w*_$`)
)

// Calling conventions and decorations that carry no type information.
var noValueTokens = map[string]bool{
	"__cdecl":             true,
	"__stdcall":           true,
	"__fastcall":          true,
	"__thiscall":          true,
	"__vectorcall":        true,
	"__clrcall":           true,
	"_cdecl":              true,
	"_stdcall":            true,
	"__declspec":          true,
	"__attribute__":       true,
	"__forceinline":       true,
	"__inline":            true,
	"__ptr32":             true,
	"__ptr64":             true,
	"__unaligned":         true,
	"__extension__":       true,
	"extern":              true,
	"static":              true,
	"inline":              true,
	"_Noreturn":           true,
	"DECLSPEC_IMPORT":     true,
	"DECLSPEC_EXPORT":     true,
	"DECLSPEC_NORETURN":   true,
	"DECLSPEC_DEPRECATED": true,
	"DECLSPEC_ALLOCATOR":  true,
	"DECLSPEC_ALIGN":      true,
	"DECLSPEC_NOTHROW":    true,
	"DECLSPEC_GUARDNOCF":  true,
	"DEPRECATED":          true,
	"NORETURN":            true,
	"UNALIGNED":           true,
	"UNALIGNED64":         true,
	"FORCEINLINE":         true,
	"POINTER_32":          true,
	"POINTER_64":          true,
	"__RPC_FAR":           true,
	"FAR":                 true,
	"NEAR":                true,
	"far":                 true,
	"near":                true,
	"__far":               true,
	"__near":              true,
	"__nonnull":           true,
	"__wur":               true,
	"__THROW":             true,
}

// Macro-expanded annotations that only appear on the return side of a prototype.
var returnTokens = map[string]bool{
	"WINBASEAPI":        true,
	"WINUSERAPI":        true,
	"WINADVAPI":         true,
	"WINGDIAPI":         true,
	"WINSHELLAPI":       true,
	"USERENVAPI":        true,
	"NTSYSAPI":          true,
	"NTSYSCALLAPI":      true,
	"WINAPI":            true,
	"WINAPIV":           true,
	"APIENTRY":          true,
	"CALLBACK":          true,
	"NTAPI":             true,
	"PASCAL":            true,
	"STDAPICALLTYPE":    true,
	"STDMETHODCALLTYPE": true,
	"WSAAPI":            true,
	"RPCRTAPI":          true,
	"RPC_ENTRY":         true,
	"CRTIMP":            true,
	"_CRTIMP":           true,
	"_ACRTIMP":          true,
	"_DCRTIMP":          true,
	"__CRTDECL":         true,
	"__MINGW_NOTHROW":   true,
}

var qualifierTokens = map[string]bool{
	"const":      true,
	"volatile":   true,
	"restrict":   true,
	"__restrict": true,
}

// Normalizer turns declarators into canonical C++ type strings.
// The zero value is not usable; construct with NewNormalizer.
type Normalizer struct {
	extra map[string]bool
}

// NewNormalizer returns a normalizer that additionally strips the given
// project macros by exact token match.
func NewNormalizer(extraMacros ...string) *Normalizer {
	n := &Normalizer{extra: make(map[string]bool, len(extraMacros))}
	for _, m := range extraMacros {
		if m = strings.TrimSpace(m); m != "" {
			n.extra[m] = true
		}
	}
	return n
}

var defaultNormalizer = NewNormalizer()

// Normalize normalizes an argument declarator with the default normalizer.
func Normalize(d cdecl.Declarator) Result { return defaultNormalizer.Normalize(d) }

// NormalizeReturn normalizes a return declarator with the default normalizer.
func NormalizeReturn(d cdecl.Declarator) Result { return defaultNormalizer.NormalizeReturn(d) }

// IsAnnotation reports whether the default normalizer strips tok.
func IsAnnotation(tok string) bool { return defaultNormalizer.IsAnnotation(tok) }

// NormalizeString re-normalizes a type string with the default normalizer.
func NormalizeString(s string) Type { return defaultNormalizer.NormalizeString(s) }

// Normalize converts an argument declarator into a Type.
func (n *Normalizer) Normalize(d cdecl.Declarator) Result {
	return n.normalize(d, false)
}

// NormalizeReturn converts a return declarator into a Type. Return-side macro
// annotations are stripped and only the first qualifier is kept.
func (n *Normalizer) NormalizeReturn(d cdecl.Declarator) Result {
	if _, isEllipsis := d.(cdecl.Ellipsis); isEllipsis {
		return fail(errors.Wrap(errors.ErrMalformedDeclaration, "ellipsis used as a return type"))
	}
	return n.normalize(d, true)
}

func (n *Normalizer) normalize(d cdecl.Declarator, isReturn bool) Result {
	if d == nil {
		return fail(errors.Wrap(errors.ErrMalformedDeclaration, "missing declarator"))
	}
	if _, isEllipsis := d.(cdecl.Ellipsis); isEllipsis {
		return ok("...")
	}

	array := false
	if a, isArray := d.(cdecl.Array); isArray {
		array = true
		d = a.Elem
	}
	depth, inner := cdecl.PointerDepth(d)
	if inner == nil {
		return fail(errors.Wrap(errors.ErrMalformedDeclaration, "pointer without element type"))
	}
	suffix := strings.Repeat("*", depth)
	if array {
		suffix += "[]"
	}

	switch t := inner.(type) {
	case cdecl.Named:
		name := strings.TrimSpace(t.Name)
		if name == "" {
			return fail(errors.Wrap(errors.ErrMalformedDeclaration, "empty type name"))
		}
		tokens := n.strip(t.Modifiers, isReturn)
		if isReturn {
			tokens = collapseQualifiers(tokens)
		}
		s := strings.Join(append(tokens, name), " ")
		if t.TemplateArgs != "" {
			s += "<" + t.TemplateArgs + ">"
		}
		if t.Reference {
			s += "&"
		}
		return n.finish(s + suffix)

	case cdecl.Struct:
		if t.Tag == "" {
			return skip(errors.Wrap(errors.ErrUnsupportedDeclarator, "anonymous struct"))
		}
		kind := t.Kind
		if kind == "" {
			kind = "struct"
		}
		return n.finish(kind + " " + t.Tag + suffix)

	case cdecl.Array:
		return skip(errors.Wrap(errors.ErrUnsupportedDeclarator, "pointer to array"))

	case cdecl.Ellipsis:
		return fail(errors.Wrap(errors.ErrMalformedDeclaration, "pointer to ellipsis"))

	case cdecl.Unknown:
		return skip(errors.Wrapf(errors.ErrUnsupportedDeclarator, "%s", t.Kind))

	default:
		return skip(errors.Wrapf(errors.ErrUnsupportedDeclarator, "%T", inner))
	}
}

// finish canonicalizes spacing so that NormalizeString is a no-op on the result.
func (n *Normalizer) finish(s string) Result {
	t := n.NormalizeString(s)
	if t == "" {
		return fail(errors.Wrap(errors.ErrMalformedDeclaration, "type reduced to nothing"))
	}
	return ok(string(t))
}

// NormalizeString strips annotations from an already rendered type string and
// canonicalizes its spacing. Applying it to its own output is a no-op.
func (n *Normalizer) NormalizeString(s string) Type {
	tokens := n.strip(splitTokens(s), false)
	out := strings.Join(tokens, " ")
	for _, sym := range []string{"*", "&", "["} {
		out = strings.ReplaceAll(out, " "+sym, sym)
	}
	return Type(out)
}

// strip removes annotation tokens. A token with a parenthesized argument list
// (e.g. "__in_bcount(n)") is matched by the name before the parenthesis.
func (n *Normalizer) strip(tokens []string, isReturn bool) []string {
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		tok = strings.TrimSpace(tok)
		if tok == "" || n.isAnnotation(tok, isReturn) {
			continue
		}
		out = append(out, tok)
	}
	return out
}

// IsAnnotation reports whether tok is stripped on either side of a prototype.
func (n *Normalizer) IsAnnotation(tok string) bool { return n.isAnnotation(tok, true) }

func (n *Normalizer) isAnnotation(tok string, isReturn bool) bool {
	if strings.HasPrefix(tok, "[") && strings.HasSuffix(tok, "]") {
		return true
	}
	name := tok
	if i := strings.IndexByte(tok, '('); i > 0 && strings.HasSuffix(tok, ")") {
		name = tok[:i]
	}
	if noValueTokens[name] || n.extra[name] {
		return true
	}
	if isReturn && returnTokens[name] {
		return true
	}
	return sal1Pattern.MatchString(name) || sal2Pattern.MatchString(name)
}

// collapseQualifiers keeps the first qualifier, moved to the front, and drops the rest.
func collapseQualifiers(tokens []string) []string {
	first := ""
	rest := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if qualifierTokens[tok] {
			if first == "" {
				first = tok
			}
			continue
		}
		rest = append(rest, tok)
	}
	if first == "" {
		return rest
	}
	return append([]string{first}, rest...)
}

// splitTokens splits on whitespace outside of (), <> and [] groups.
func splitTokens(s string) []string {
	var tokens []string
	var cur strings.Builder
	depth := 0
	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}
	for _, r := range s {
		switch {
		case r == '(' || r == '<' || r == '[':
			depth++
		case (r == ')' || r == '>' || r == ']') && depth > 0:
			depth--
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			if depth == 0 {
				flush()
				continue
			}
			if strings.HasSuffix(cur.String(), " ") {
				continue
			}
			r = ' '
		}
		cur.WriteRune(r)
	}
	flush()
	return tokens
}
