package extractor

import (
	"context"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
)

// pythonExtractor walks the tree-sitter Python grammar.
type pythonExtractor struct {
	lang *sitter.Language
}

func newPythonExtractor() *pythonExtractor {
	return &pythonExtractor{lang: python.GetLanguage()}
}

func (e *pythonExtractor) Language() string { return "python" }

func (e *pythonExtractor) Extract(content string) (Structure, error) {
	root, src, cleanup, err := parse(e.lang, content)
	if err != nil {
		return Structure{}, err
	}
	defer cleanup()

	st := Structure{Classes: make(map[string][]string)}
	for i := 0; i < int(root.NamedChildCount()); i++ {
		node := unwrapPython(root.NamedChild(i))
		if node == nil {
			continue
		}
		switch node.Type() {
		case "class_definition":
			name := fieldContent(node, "name", src)
			if name == "" {
				continue
			}
			st.Classes[name] = pythonMethods(node, src)
		case "function_definition":
			if name := fieldContent(node, "name", src); name != "" {
				st.Functions = append(st.Functions, name)
			}
		}
	}
	return st, nil
}

// unwrapPython peels decorated_definition wrappers.
func unwrapPython(node *sitter.Node) *sitter.Node {
	if node != nil && node.Type() == "decorated_definition" {
		return node.ChildByFieldName("definition")
	}
	return node
}

func pythonMethods(class *sitter.Node, src []byte) []string {
	var methods []string
	body := class.ChildByFieldName("body")
	if body == nil {
		return methods
	}
	for i := 0; i < int(body.NamedChildCount()); i++ {
		child := unwrapPython(body.NamedChild(i))
		if child == nil || child.Type() != "function_definition" {
			continue
		}
		if name := fieldContent(child, "name", src); name != "" {
			methods = append(methods, name)
		}
	}
	return methods
}

// javascriptExtractor walks the tree-sitter JavaScript grammar. It also
// covers TypeScript sources well enough for target discovery.
type javascriptExtractor struct {
	lang *sitter.Language
}

func newJavaScriptExtractor() *javascriptExtractor {
	return &javascriptExtractor{lang: javascript.GetLanguage()}
}

func (e *javascriptExtractor) Language() string { return "javascript" }

func (e *javascriptExtractor) Extract(content string) (Structure, error) {
	root, src, cleanup, err := parse(e.lang, content)
	if err != nil {
		return Structure{}, err
	}
	defer cleanup()

	st := Structure{Classes: make(map[string][]string)}
	for i := 0; i < int(root.NamedChildCount()); i++ {
		node := unwrapExport(root.NamedChild(i))
		if node == nil {
			continue
		}
		switch node.Type() {
		case "class_declaration":
			name := fieldContent(node, "name", src)
			if name == "" {
				continue
			}
			st.Classes[name] = javascriptMethods(node, src)
		case "function_declaration", "generator_function_declaration":
			if name := fieldContent(node, "name", src); name != "" {
				st.Functions = append(st.Functions, name)
			}
		}
	}
	return st, nil
}

// unwrapExport peels export_statement wrappers.
func unwrapExport(node *sitter.Node) *sitter.Node {
	if node != nil && node.Type() == "export_statement" {
		if decl := node.ChildByFieldName("declaration"); decl != nil {
			return decl
		}
	}
	return node
}

func javascriptMethods(class *sitter.Node, src []byte) []string {
	var methods []string
	body := class.ChildByFieldName("body")
	if body == nil {
		return methods
	}
	for i := 0; i < int(body.NamedChildCount()); i++ {
		child := body.NamedChild(i)
		if child == nil || child.Type() != "method_definition" {
			continue
		}
		if name := fieldContent(child, "name", src); name != "" {
			methods = append(methods, name)
		}
	}
	return methods
}

// parse runs a tree-sitter parse and returns the root node. A tree whose
// root contains errors is treated as a failed parse so the registry can
// fall back to the heuristic extractor.
func parse(lang *sitter.Language, content string) (*sitter.Node, []byte, func(), error) {
	parser := sitter.NewParser()
	parser.SetLanguage(lang)
	src := []byte(content)

	tree, err := parser.ParseCtx(context.Background(), nil, src)
	if err != nil {
		return nil, nil, nil, ErrParseFailed
	}
	root := tree.RootNode()
	if root == nil || root.HasError() {
		tree.Close()
		return nil, nil, nil, ErrParseFailed
	}
	return root, src, func() { tree.Close() }, nil
}

func fieldContent(node *sitter.Node, field string, src []byte) string {
	child := node.ChildByFieldName(field)
	if child == nil {
		return ""
	}
	return child.Content(src)
}
