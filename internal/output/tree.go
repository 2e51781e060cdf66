package output

import (
	"bufio"
	"io"
	"strings"

	"github.com/rohankatakam/sceneaudit/internal/scene"
)

// DefaultIndent is the marker repeated once per depth level in tree dumps.
const DefaultIndent = "  "

// TreeFormatter writes a scene forest as an indented outline.
type TreeFormatter struct {
	Indent string
}

// NewTreeFormatter creates a formatter. An empty indent selects DefaultIndent.
func NewTreeFormatter(indent string) *TreeFormatter {
	if indent == "" {
		indent = DefaultIndent
	}
	return &TreeFormatter{Indent: indent}
}

// Format writes one line per node, pre-order from each root, prefixed by
// the indent marker repeated depth times.
func (f *TreeFormatter) Format(forest *scene.Forest, w io.Writer) error {
	bw := bufio.NewWriter(w)

	var err error
	forest.Walk(func(n *scene.Node, depth int) {
		if err != nil {
			return
		}
		if _, err = bw.WriteString(strings.Repeat(f.Indent, depth)); err != nil {
			return
		}
		if _, err = bw.WriteString(n.Name); err != nil {
			return
		}
		err = bw.WriteByte('\n')
	})
	if err != nil {
		return err
	}

	return bw.Flush()
}
