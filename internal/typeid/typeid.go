package typeid

import (
	"fmt"

	"go.jetify.com/typeid/v2"
)

const (
	PrefixMap     = "map"
	PrefixNode    = "node"
	PrefixDrawing = "draw"
	PrefixOp      = "op"
	PrefixAsset   = "asset"
	PrefixExport  = "exp"
	PrefixRequest = "gen"
)

func New(prefix string) string {
	id := typeid.MustGenerate(prefix)
	return id.String()
}

func NewMapID() string     { return New(PrefixMap) }
func NewNodeID() string    { return New(PrefixNode) }
func NewDrawingID() string { return New(PrefixDrawing) }
func NewOpID() string      { return New(PrefixOp) }
func NewAssetID() string   { return New(PrefixAsset) }
func NewExportID() string  { return New(PrefixExport) }
func NewRequestID() string { return New(PrefixRequest) }

func Validate(id, expectedPrefix string) error {
	parsed, err := typeid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid typeid %q: %w", id, err)
	}
	if parsed.Prefix() != expectedPrefix {
		return fmt.Errorf("expected prefix %q but got %q in id %q", expectedPrefix, parsed.Prefix(), id)
	}
	return nil
}
