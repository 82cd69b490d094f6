// Package generate is the contract with the generative content service:
// expanding a topic into a label tree and illustrating a prompt. Calls are
// slow and fallible, so the engine only reaches them through a Dispatcher.
package generate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	ErrInFlight       = errors.New("generation already running for node")
	ErrEmpty          = errors.New("generator returned no content")
	ErrInvalidOptions = errors.New("invalid generation options")
	ErrUnavailable    = errors.New("generator not configured")
)

const (
	MaxBranches = 12
	MinDepth    = 1
	MaxDepth    = 5
)

// Options tune an expansion. Branches of 0 lets the generator choose.
type Options struct {
	Branches     int    `json:"branches" validate:"min=0,max=12"`
	Depth        int    `json:"depth" validate:"min=1,max=5"`
	Tone         string `json:"tone,omitempty" validate:"omitempty,oneof=neutral playful academic concise creative"`
	InheritStyle bool   `json:"inheritStyle,omitempty"`
}

// DefaultOptions expands one level with automatic branching.
func DefaultOptions() Options {
	return Options{Depth: 1, Tone: "neutral"}
}

// Tree is a nested label tree. The root label is the topic itself.
type Tree struct {
	Label    string `json:"label" validate:"required,max=500"`
	Children []Tree `json:"children,omitempty" validate:"dive"`
}

// Size counts the nodes below t.
func (t *Tree) Size() int {
	if t == nil {
		return 0
	}
	n := 0
	for i := range t.Children {
		n += 1 + t.Children[i].Size()
	}
	return n
}

// Prune drops blank labels and cuts the tree at depth levels below t.
func (t *Tree) Prune(depth int) {
	if t == nil {
		return
	}
	kept := t.Children[:0]
	for _, c := range t.Children {
		c.Label = strings.TrimSpace(c.Label)
		if c.Label == "" {
			continue
		}
		if depth <= 1 {
			c.Children = nil
		} else {
			c.Prune(depth - 1)
		}
		kept = append(kept, c)
	}
	t.Children = kept
}

// Image is a generated illustration.
type Image struct {
	MimeType string `json:"mimeType"`
	Data     []byte `json:"data"`
	// URL is set once the image has been stored as an asset.
	URL string `json:"url,omitempty"`
}

// Service produces generated content. Implementations may return
// (nil, nil) for an empty answer.
type Service interface {
	Expand(ctx context.Context, topic string, opts Options) (*Tree, error)
	Illustrate(ctx context.Context, prompt string) (*Image, error)
}

var validate = validator.New()

// Validate checks o against its bounds.
func (o Options) Validate() error {
	if err := validate.Struct(o); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidOptions, formatValidationError(err))
	}
	return nil
}

func formatValidationError(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		field := strings.ToLower(e.Field())
		switch e.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "min":
			msgs = append(msgs, fmt.Sprintf("%s must be at least %s", field, e.Param()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s", field, e.Param()))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of: %s", field, e.Param()))
		default:
			msgs = append(msgs, field+" is invalid")
		}
	}
	return strings.Join(msgs, "; ")
}
