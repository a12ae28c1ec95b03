package source

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var markdownParser = goldmark.New()

// MarkdownToText renders markdown down to plain text by walking the parsed
// AST: formatting is dropped, block structure becomes blank lines, code
// blocks keep their literal content.
func MarkdownToText(src []byte) string {
	doc := markdownParser.Parser().Parse(text.NewReader(src))

	var b strings.Builder
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			switch n.Kind() {
			case ast.KindParagraph, ast.KindHeading, ast.KindListItem,
				ast.KindBlockquote, ast.KindFencedCodeBlock, ast.KindCodeBlock:
				b.WriteString("\n\n")
			}
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.Text:
			b.Write(node.Segment.Value(src))
			if node.SoftLineBreak() || node.HardLineBreak() {
				b.WriteByte('\n')
			}
		case *ast.AutoLink:
			b.Write(node.URL(src))
		case *ast.FencedCodeBlock:
			writeCodeLines(&b, node.BaseBlock, src)
		case *ast.CodeBlock:
			writeCodeLines(&b, node.BaseBlock, src)
		case *ast.CodeSpan:
			// Children are Text nodes, handled above.
		}
		return ast.WalkContinue, nil
	})

	return strings.TrimSpace(b.String())
}

func writeCodeLines(b *strings.Builder, block ast.BaseBlock, src []byte) {
	lines := block.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(src))
	}
}
