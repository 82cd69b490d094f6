// Package export renders a map snapshot into files people take elsewhere:
// a PNG picture of the canvas, an OPML outline and a flat CSV table.
package export

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/mindweave/mindweave/backend-go/internal/document"
	"github.com/mindweave/mindweave/backend-go/internal/graph"
)

type Format string

const (
	FormatPNG  Format = "png"
	FormatOPML Format = "opml"
	FormatCSV  Format = "csv"
)

var ErrUnknownFormat = errors.New("unknown export format")

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatPNG, FormatOPML, FormatCSV:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

func (f Format) ContentType() string {
	switch f {
	case FormatPNG:
		return "image/png"
	case FormatOPML:
		return "text/x-opml; charset=utf-8"
	case FormatCSV:
		return "text/csv; charset=utf-8"
	}
	return "application/octet-stream"
}

// Write encodes doc in the given format.
func Write(w io.Writer, f Format, doc *document.Document, opts PNGOptions) error {
	if doc == nil || doc.Graph == nil {
		return document.ErrEmpty
	}
	switch f {
	case FormatPNG:
		return PNG(w, doc, opts)
	case FormatOPML:
		return OPML(w, doc)
	case FormatCSV:
		return CSV(w, doc)
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
}

// walk visits the parent tree depth-first from every root. Cross-links are
// not followed, so each node is visited once.
func walk(g *graph.Graph, visit func(n *graph.Node, depth int) bool) {
	var rec func(id graph.NodeID, depth int)
	rec = func(id graph.NodeID, depth int) {
		n, ok := g.Node(id)
		if !ok || !visit(n, depth) {
			return
		}
		for _, c := range g.TreeChildren(id) {
			rec(c, depth+1)
		}
	}
	for _, r := range g.Roots() {
		rec(r, 0)
	}
}

// SafeName reduces a map name to characters safe in a download filename.
func SafeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "mindmap"
	}
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return '-'
	}, name)
}
