package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/mindweave/mindweave/backend-go/internal/document"
	"github.com/mindweave/mindweave/backend-go/internal/graph"
)

var csvHeader = []string{"id", "parent", "depth", "type", "label", "x", "y", "checked", "note"}

// CSV writes one row per node in tree order.
func CSV(w io.Writer, doc *document.Document) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	var werr error
	walk(doc.Graph, func(n *graph.Node, depth int) bool {
		if werr != nil {
			return false
		}
		werr = cw.Write([]string{
			string(n.ID),
			string(n.ParentID),
			strconv.Itoa(depth),
			string(n.Type),
			n.Label,
			strconv.FormatFloat(n.X, 'f', -1, 64),
			strconv.FormatFloat(n.Y, 'f', -1, 64),
			strconv.FormatBool(n.Checked),
			note(n),
		})
		return werr == nil
	})
	if werr != nil {
		return werr
	}
	cw.Flush()
	return cw.Error()
}
