package wrapgen

import (
	"strings"
)

// indentStep is the indent added per nesting level.
const indentStep = 4

// SplitNamespace joins namespace options into one path. Each part may itself
// contain "::"; empty segments are dropped.
func SplitNamespace(parts ...string) []string {
	var path []string
	for _, part := range parts {
		for _, seg := range strings.Split(part, "::") {
			if seg = strings.TrimSpace(seg); seg != "" {
				path = append(path, seg)
			}
		}
	}
	return path
}

// Qualify returns path::name, or name alone for an empty path.
func Qualify(path []string, name string) string {
	path = SplitNamespace(path...)
	if len(path) == 0 {
		return name
	}
	return strings.Join(path, "::") + "::" + name
}

// RenderHierarchy renders nested namespace blocks with one forward class
// declaration per leaf at the innermost level.
//
//	namespace Base
//	{
//	    class IFoo;
//	}
func RenderHierarchy(path []string, leaves []string) string {
	path = SplitNamespace(path...)

	var sb strings.Builder
	indent := 0
	for _, ns := range path {
		pad := strings.Repeat(" ", indent)
		sb.WriteString(pad + "namespace " + ns + "\n")
		sb.WriteString(pad + "{\n")
		indent += indentStep
	}

	pad := strings.Repeat(" ", indent)
	for _, leaf := range leaves {
		sb.WriteString(pad + "class " + leaf + ";\n")
	}

	for range path {
		indent -= indentStep
		sb.WriteString(strings.Repeat(" ", indent) + "}\n")
	}
	return sb.String()
}
