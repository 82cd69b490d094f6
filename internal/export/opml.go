package export

import (
	"encoding/xml"
	"io"
	"strings"

	"github.com/mindweave/mindweave/backend-go/internal/document"
	"github.com/mindweave/mindweave/backend-go/internal/graph"
)

type opmlDoc struct {
	XMLName xml.Name   `xml:"opml"`
	Version string     `xml:"version,attr"`
	Title   string     `xml:"head>title"`
	Body    []*outline `xml:"body>outline"`
}

type outline struct {
	Text     string     `xml:"text,attr"`
	Type     string     `xml:"type,attr,omitempty"`
	Note     string     `xml:"_note,attr,omitempty"`
	Checked  string     `xml:"_status,attr,omitempty"`
	Children []*outline `xml:"outline"`
}

// OPML writes the parent tree as nested outlines. Cross-links have no
// outline equivalent and are dropped.
func OPML(w io.Writer, doc *document.Document) error {
	out := opmlDoc{Version: "2.0", Title: doc.ProjectName}
	var stack []*outline
	walk(doc.Graph, func(n *graph.Node, depth int) bool {
		o := &outline{Text: n.Label, Type: string(n.Type), Note: note(n)}
		if n.Type == graph.TypeTask {
			o.Checked = "open"
			if n.Checked {
				o.Checked = "done"
			}
		}
		stack = stack[:depth]
		if depth == 0 {
			out.Body = append(out.Body, o)
		} else {
			parent := stack[depth-1]
			parent.Children = append(parent.Children, o)
		}
		stack = append(stack, o)
		return true
	})

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(out); err != nil {
		return err
	}
	return enc.Close()
}

// note flattens a node's payload into a single text attribute.
func note(n *graph.Node) string {
	switch p := n.Data.(type) {
	case graph.PlainPayload:
		return p.Description
	case graph.TaskPayload:
		if p.Due != "" {
			return strings.TrimSpace(p.Description + "\ndue " + p.Due)
		}
		return p.Description
	case graph.CodePayload:
		return p.Source
	case graph.MediaPayload:
		if p.Caption != "" {
			return p.Caption + "\n" + p.URL
		}
		return p.URL
	case graph.ListPayload:
		return strings.Join(p.Items, "\n")
	case graph.TablePayload:
		rows := make([]string, len(p.Rows))
		for i, r := range p.Rows {
			rows[i] = strings.Join(r, "\t")
		}
		return strings.Join(rows, "\n")
	}
	return ""
}
