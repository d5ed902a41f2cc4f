package docxmerge

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"sort"
	"strings"
	"text/template"
	"text/template/parse"
	"unicode"
)

// Template is a compiled placeholder template. Placeholders are written
// {{NAME}}; each row variable is exposed as a function of no arguments,
// so pipelines such as {{NAME | lower}} work too. Names that are not Go
// identifiers are reachable as {{index . "2024_TOTAL"}}.
//
// Compilation checks syntax only. Names are resolved at Render time and
// a missing one is an error, never an empty string. This holds for index
// too: it takes the row mapping and one key, and fails on a missing key.
type Template struct {
	name  string
	trees map[string]*parse.Tree
	names []string
}

const escapeFunc = "xmlescape"

var helperFuncs = template.FuncMap{
	"upper": strings.ToUpper,
	"lower": strings.ToLower,
	"trim":  strings.TrimSpace,
	escapeFunc: func(v any) string {
		var buf bytes.Buffer
		xml.EscapeText(&buf, []byte(fmt.Sprint(v)))
		return buf.String()
	},
}

// builtinFuncs are the text/template predefined functions; they are never
// row variables.
var builtinFuncs = map[string]bool{
	"and": true, "call": true, "html": true, "index": true, "slice": true,
	"js": true, "len": true, "not": true, "or": true, "print": true,
	"printf": true, "println": true, "urlquery": true,
	"eq": true, "ge": true, "gt": true, "le": true, "lt": true, "ne": true,
}

// Compile parses text as a template named name.
func Compile(name, text string) (*Template, error) {
	tree := parse.New(name)
	tree.Mode = parse.SkipFuncCheck
	trees := make(map[string]*parse.Tree)
	if _, err := tree.Parse(text, "", "", trees); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTemplateSyntax, err)
	}
	// An empty template is not added to the set by the parser.
	if _, ok := trees[name]; !ok {
		trees[name] = tree
	}

	t := &Template{name: name, trees: trees}
	seen := make(map[string]bool)
	for _, tr := range trees {
		collectNames(tr.Root, true, seen)
	}
	for n := range seen {
		t.names = append(t.names, n)
	}
	sort.Strings(t.names)
	return t, nil
}

// CompileXML is Compile for document bodies: the value printed by every
// action is XML-escaped after the pipeline has run.
func CompileXML(name, text string) (*Template, error) {
	t, err := Compile(name, text)
	if err != nil {
		return nil, err
	}
	for _, tr := range t.trees {
		escapeActions(tr.Root)
	}
	return t, nil
}

// Name returns the template name used in errors.
func (t *Template) Name() string { return t.name }

// Names lists, sorted, the variable names the template references.
func (t *Template) Names() []string {
	return append([]string(nil), t.names...)
}

// Render executes the template against vars.
func (t *Template) Render(vars map[string]string) (string, error) {
	for _, n := range t.names {
		if _, ok := vars[n]; !ok {
			return "", &UndefinedError{Template: t.name, Name: n}
		}
	}

	funcs := make(template.FuncMap, len(helperFuncs)+len(vars))
	for k, fn := range helperFuncs {
		funcs[k] = fn
	}
	funcs["index"] = func(m map[string]string, key string) (string, error) {
		v, ok := m[key]
		if !ok {
			return "", &UndefinedError{Template: t.name, Name: key}
		}
		return v, nil
	}
	for k, v := range vars {
		if !isIdentifier(k) {
			continue
		}
		val := v
		funcs[k] = func() string { return val }
	}

	tmpl := template.New(t.name).Option("missingkey=error").Funcs(funcs)
	for name, tree := range t.trees {
		if _, err := tmpl.AddParseTree(name, tree); err != nil {
			return "", fmt.Errorf("%w: %v", ErrTemplateSyntax, err)
		}
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, t.name, vars); err != nil {
		return "", fmt.Errorf("render %s: %w", t.name, err)
	}
	return buf.String(), nil
}

// collectNames records identifiers and, while dot is still the row
// mapping, top-level field references and literal index keys.
func collectNames(node parse.Node, rootDot bool, seen map[string]bool) {
	switch n := node.(type) {
	case *parse.ListNode:
		if n == nil {
			return
		}
		for _, c := range n.Nodes {
			collectNames(c, rootDot, seen)
		}
	case *parse.ActionNode:
		collectNames(n.Pipe, rootDot, seen)
	case *parse.PipeNode:
		if n == nil {
			return
		}
		for _, c := range n.Cmds {
			collectNames(c, rootDot, seen)
		}
	case *parse.CommandNode:
		if key, ok := indexKey(n); ok && rootDot {
			seen[key] = true
		}
		for _, a := range n.Args {
			collectNames(a, rootDot, seen)
		}
	case *parse.ChainNode:
		collectNames(n.Node, rootDot, seen)
	case *parse.IdentifierNode:
		if !builtinFuncs[n.Ident] && helperFuncs[n.Ident] == nil {
			seen[n.Ident] = true
		}
	case *parse.FieldNode:
		if rootDot && len(n.Ident) > 0 {
			seen[n.Ident[0]] = true
		}
	case *parse.IfNode:
		collectBranch(&n.BranchNode, rootDot, rootDot, seen)
	case *parse.RangeNode:
		collectBranch(&n.BranchNode, rootDot, false, seen)
	case *parse.WithNode:
		collectBranch(&n.BranchNode, rootDot, false, seen)
	case *parse.TemplateNode:
		collectNames(n.Pipe, rootDot, seen)
	}
}

// indexKey matches {{index . "KEY"}}.
func indexKey(cmd *parse.CommandNode) (string, bool) {
	if len(cmd.Args) != 3 {
		return "", false
	}
	if id, ok := cmd.Args[0].(*parse.IdentifierNode); !ok || id.Ident != "index" {
		return "", false
	}
	if _, ok := cmd.Args[1].(*parse.DotNode); !ok {
		return "", false
	}
	lit, ok := cmd.Args[2].(*parse.StringNode)
	if !ok {
		return "", false
	}
	return lit.Text, true
}

func collectBranch(b *parse.BranchNode, rootDot, bodyDot bool, seen map[string]bool) {
	collectNames(b.Pipe, rootDot, seen)
	collectNames(b.List, bodyDot, seen)
	collectNames(b.ElseList, rootDot, seen)
}

func escapeActions(node parse.Node) {
	switch n := node.(type) {
	case *parse.ListNode:
		if n == nil {
			return
		}
		for _, c := range n.Nodes {
			escapeActions(c)
		}
	case *parse.ActionNode:
		// Declarations print nothing.
		if len(n.Pipe.Decl) > 0 {
			return
		}
		n.Pipe.Cmds = append(n.Pipe.Cmds, &parse.CommandNode{
			NodeType: parse.NodeCommand,
			Pos:      n.Pos,
			Args:     []parse.Node{parse.NewIdentifier(escapeFunc).SetPos(n.Pos)},
		})
	case *parse.IfNode:
		escapeActions(n.List)
		escapeActions(n.ElseList)
	case *parse.RangeNode:
		escapeActions(n.List)
		escapeActions(n.ElseList)
	case *parse.WithNode:
		escapeActions(n.List)
		escapeActions(n.ElseList)
	}
}

// isIdentifier reports whether s can be registered as a template function.
func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_':
		case i == 0 && !unicode.IsLetter(r):
			return false
		case !unicode.IsLetter(r) && !unicode.IsDigit(r):
			return false
		}
	}
	return true
}
