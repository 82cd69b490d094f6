package editor

import (
	"github.com/mindweave/mindweave/backend-go/internal/geom"
	"github.com/mindweave/mindweave/backend-go/internal/sketch"
	"github.com/mindweave/mindweave/backend-go/internal/typeid"
)

// BeginStroke starts a freehand path, or an erase pass for the eraser.
func (e *Editor) BeginStroke(tool sketch.Tool, p geom.Point) {
	e.stroke.Cancel()
	e.eraseTrail = nil
	if tool == sketch.ToolEraser {
		e.eraseTrail = []geom.Point{p}
		return
	}
	color, width := sketch.DefaultStyle(tool)
	e.stroke.Begin(typeid.NewDrawingID(), tool, color, width, p)
	e.preview()
}

func (e *Editor) ExtendStroke(p geom.Point) {
	switch {
	case e.eraseTrail != nil:
		e.eraseTrail = append(e.eraseTrail, p)
	case e.stroke.Active():
		e.stroke.Append(p)
		e.preview()
	}
}

// StrokePreview returns the path being drawn, if any.
func (e *Editor) StrokePreview() (sketch.Path, bool) {
	return e.stroke.Preview()
}

// CommitStroke stores the drawn path, or removes the paths the eraser
// touched, as one step.
func (e *Editor) CommitStroke() bool {
	if e.eraseTrail != nil {
		_, width := sketch.DefaultStyle(sketch.ToolEraser)
		kept, removed := sketch.Erase(e.drawings, e.eraseTrail, width/2)
		e.eraseTrail = nil
		if removed == 0 {
			return false
		}
		e.drawings = kept
		e.commit()
		return true
	}
	path, ok := e.stroke.Commit()
	if !ok {
		e.preview()
		return false
	}
	e.drawings = append(sketch.ClonePaths(e.drawings), path)
	e.commit()
	return true
}

func (e *Editor) CancelStroke() {
	e.stroke.Cancel()
	e.eraseTrail = nil
	e.preview()
}

// ClearDrawings removes every freehand path.
func (e *Editor) ClearDrawings() bool {
	if len(e.drawings) == 0 {
		return false
	}
	e.drawings = nil
	e.commit()
	return true
}
