package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMarkdownToText_StripsFormatting(t *testing.T) {
	md := "# Heading\n\nSome **bold** and *italic* and `inline code` text.\n"
	out := MarkdownToText([]byte(md))

	assert.Contains(t, out, "Heading")
	assert.Contains(t, out, "Some bold and italic and inline code text.")
	assert.NotContains(t, out, "#")
	assert.NotContains(t, out, "**")
	assert.NotContains(t, out, "`")
}

func TestMarkdownToText_ListItems(t *testing.T) {
	md := "- first item\n- second item\n"
	out := MarkdownToText([]byte(md))

	assert.Contains(t, out, "first item")
	assert.Contains(t, out, "second item")
	assert.NotContains(t, out, "-")
}

func TestMarkdownToText_KeepsCodeBlockContent(t *testing.T) {
	md := "Before.\n\n```go\nfunc main() {}\n```\n\nAfter.\n"
	out := MarkdownToText([]byte(md))

	assert.Contains(t, out, "func main() {}")
	assert.NotContains(t, out, "```")
}

func TestMarkdownToText_LinkKeepsLabel(t *testing.T) {
	out := MarkdownToText([]byte("See [the docs](https://example.com/docs) for more."))
	assert.Contains(t, out, "the docs")
	assert.NotContains(t, out, "](")
}

func TestMarkdownToText_Empty(t *testing.T) {
	assert.Equal(t, "", MarkdownToText(nil))
	assert.Equal(t, "", MarkdownToText([]byte("   \n\n")))
}
