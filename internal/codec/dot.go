package codec

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"rtshell/internal/profile"
)

// DOTExporter renders a profile as a Graphviz digraph: one box per
// component, one edge per connector from source to target component
type DOTExporter struct{}

// NewDOTExporter creates a new DOT exporter
func NewDOTExporter() *DOTExporter {
	return &DOTExporter{}
}

// Format returns the codec format identifier
func (e *DOTExporter) Format() string {
	return "dot"
}

// Export writes the graph
func (e *DOTExporter) Export(p *profile.Profile, w io.Writer) error {
	bw := bufio.NewWriter(w)
	name := p.ID
	if name == "" {
		name = profile.SystemID("", "", "")
	}

	fmt.Fprintf(bw, "digraph %s {\n", quote(name))
	fmt.Fprintln(bw, "  rankdir=LR;")
	fmt.Fprintln(bw, "  node [shape=box];")
	for _, c := range p.Components {
		attrs := []string{"label=" + quote(c.InstanceName)}
		if !c.Required {
			attrs = append(attrs, "style=dashed")
		}
		fmt.Fprintf(bw, "  %s [%s];\n", quote(c.Path()), strings.Join(attrs, ", "))
	}
	for _, conn := range p.Connectors {
		attrs := []string{
			"label=" + quote(conn.ID),
			"taillabel=" + quote(conn.Source.Port()),
			"headlabel=" + quote(conn.Target.Port()),
		}
		if conn.Service {
			attrs = append(attrs, "dir=none")
		}
		if !conn.Required {
			attrs = append(attrs, "style=dashed")
		}
		fmt.Fprintf(bw, "  %s -> %s [%s];\n", quote(conn.Source.Path()), quote(conn.Target.Path()), strings.Join(attrs, ", "))
	}
	fmt.Fprintln(bw, "}")

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write DOT: %w", err)
	}
	return nil
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}
