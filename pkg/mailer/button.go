package mailer

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// KindButton is the node kind of call-to-action links.
var KindButton = ast.NewNodeKind("Button")

const buttonPrefix = "[!button|"

// buttonNode is a [!button|Label](url) link.
type buttonNode struct {
	ast.BaseInline
	url   []byte
	label []byte
}

func (n *buttonNode) Kind() ast.NodeKind { return KindButton }

func (n *buttonNode) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"URL": string(n.url)}, nil)
}

type buttonParser struct{}

func (buttonParser) Trigger() []byte { return []byte{'['} }

func (buttonParser) Parse(_ ast.Node, block text.Reader, _ parser.Context) ast.Node {
	line, _ := block.PeekLine()
	if !bytes.HasPrefix(line, []byte(buttonPrefix)) {
		return nil
	}

	rest := line[len(buttonPrefix):]
	labelEnd := bytes.IndexByte(rest, ']')
	if labelEnd < 0 || labelEnd+1 >= len(rest) || rest[labelEnd+1] != '(' {
		return nil
	}
	urlEnd := bytes.IndexByte(rest[labelEnd+2:], ')')
	if urlEnd < 0 {
		return nil
	}

	node := &buttonNode{
		label: rest[:labelEnd],
		url:   rest[labelEnd+2 : labelEnd+2+urlEnd],
	}
	block.Advance(len(buttonPrefix) + labelEnd + 2 + urlEnd + 1)
	return node
}

type buttonRenderer struct{}

func (buttonRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindButton, func(w util.BufWriter, _ []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering {
			n := node.(*buttonNode)
			_, _ = w.WriteString(`<a href="`)
			_, _ = w.Write(util.EscapeHTML(n.url))
			_, _ = w.WriteString(`" class="btn">`)
			_, _ = w.Write(util.EscapeHTML(n.label))
			_, _ = w.WriteString(`</a>`)
		}
		return ast.WalkContinue, nil
	})
}

type buttonExtension struct{}

func (buttonExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithInlineParsers(util.Prioritized(buttonParser{}, 50)))
	m.Renderer().AddOptions(renderer.WithNodeRenderers(util.Prioritized(buttonRenderer{}, 50)))
}

// ButtonExtension adds the [!button|Label](url) syntax to goldmark.
func ButtonExtension() goldmark.Extender { return buttonExtension{} }
