package extract

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var extraBlankLines = regexp.MustCompile(`\n{3,}`)

// MarkdownExtractor renders markdown to plain text. Headings and list items
// stay on their own lines so the chunker still sees the structure.
type MarkdownExtractor struct {
	md goldmark.Markdown
}

func NewMarkdownExtractor() *MarkdownExtractor {
	return &MarkdownExtractor{md: goldmark.New()}
}

func (m *MarkdownExtractor) Name() string {
	return "markdown"
}

func (m *MarkdownExtractor) Extract(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return m.Render(data), nil
}

type listState struct {
	ordered bool
	next    int
}

// Render converts markdown source to plain text.
func (m *MarkdownExtractor) Render(source []byte) string {
	doc := m.md.Parser().Parse(text.NewReader(source))

	var buf strings.Builder
	var lists []*listState

	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		switch node := n.(type) {
		case *ast.Heading, *ast.Paragraph:
			if !entering {
				buf.WriteString("\n\n")
			}
		case *ast.TextBlock:
			if !entering {
				buf.WriteString("\n")
			}
		case *ast.List:
			if entering {
				lists = append(lists, &listState{ordered: node.IsOrdered(), next: node.Start})
			} else {
				lists = lists[:len(lists)-1]
				buf.WriteString("\n")
			}
		case *ast.ListItem:
			if entering && len(lists) > 0 {
				list := lists[len(lists)-1]
				if list.ordered {
					fmt.Fprintf(&buf, "%d. ", list.next)
					list.next++
				} else {
					buf.WriteString("- ")
				}
			}
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			if entering {
				lines := n.Lines()
				for i := 0; i < lines.Len(); i++ {
					seg := lines.At(i)
					buf.Write(seg.Value(source))
				}
				buf.WriteString("\n")
			}
			return ast.WalkSkipChildren, nil
		case *ast.ThematicBreak:
			if entering {
				buf.WriteString("\n")
			}
		case *ast.Text:
			if entering {
				buf.Write(node.Segment.Value(source))
				if node.SoftLineBreak() || node.HardLineBreak() {
					buf.WriteString("\n")
				}
			}
		case *ast.String:
			if entering {
				buf.Write(node.Value)
			}
		case *ast.AutoLink:
			if entering {
				buf.Write(node.Label(source))
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	out := extraBlankLines.ReplaceAllString(buf.String(), "\n\n")
	return strings.TrimSpace(out)
}
