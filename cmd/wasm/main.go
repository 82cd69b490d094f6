//go:build js && wasm

package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"syscall/js"
	"time"

	"github.com/mindweave/mindweave/backend-go/internal/document"
	"github.com/mindweave/mindweave/backend-go/internal/engine"
	"github.com/mindweave/mindweave/backend-go/internal/generate"
	"github.com/mindweave/mindweave/backend-go/internal/gesture"
	"github.com/mindweave/mindweave/backend-go/internal/graph"
	"github.com/mindweave/mindweave/backend-go/internal/viewport"
)

const storagePrefix = "mindweave:map:"

var eng *engine.Engine

// localStorage persists autosaved maps in the browser.
type localStorage struct{}

func (localStorage) Save(_ context.Context, doc *document.Document) error {
	data, err := doc.Marshal()
	if err != nil {
		return err
	}
	js.Global().Get("localStorage").Call("setItem", storagePrefix+doc.ID, string(data))
	return nil
}

func loadStored(mapID string) string {
	v := js.Global().Get("localStorage").Call("getItem", storagePrefix+mapID)
	if v.Type() != js.TypeString {
		return ""
	}
	return v.String()
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	origin := js.Global().Get("location").Get("origin").String()

	eng = engine.NewEngine(engine.Options{
		Config:    engine.DefaultConfig(),
		Saver:     localStorage{},
		Generator: generate.NewClient(origin+"/api/generate", "", generate.DefaultTimeout),
		Logger:    logger,
	})

	api := js.Global().Get("Object").New()

	// --- Commands (frontend → backend) ---
	api.Set("loadDocument", js.FuncOf(loadDocument))
	api.Set("openMap", js.FuncOf(openMap))
	api.Set("loadSampleDocument", js.FuncOf(loadSampleDocument))
	api.Set("setViewportSize", js.FuncOf(setViewportSize))
	api.Set("setViewport", js.FuncOf(setViewport))
	api.Set("setSettings", js.FuncOf(setSettings))
	api.Set("setTool", js.FuncOf(setTool))
	api.Set("setMultiSelect", js.FuncOf(setMultiSelect))
	api.Set("pointer", js.FuncOf(pointer))
	api.Set("touch", js.FuncOf(touch))
	api.Set("wheel", js.FuncOf(wheel))
	api.Set("key", js.FuncOf(key))
	api.Set("command", js.FuncOf(command))
	api.Set("applyLayout", js.FuncOf(applyLayout))
	api.Set("setLabel", js.FuncOf(setLabel))
	api.Set("setColor", js.FuncOf(setColor))
	api.Set("fitView", js.FuncOf(fitView))
	api.Set("focusNode", js.FuncOf(focusNode))
	api.Set("generate", js.FuncOf(generateChildren))
	api.Set("cancelGeneration", js.FuncOf(cancelGeneration))
	api.Set("flush", js.FuncOf(flush))
	api.Set("tick", js.FuncOf(tick))

	// --- Queries (frontend ← backend) ---
	api.Set("render", js.FuncOf(render))
	api.Set("hitTest", js.FuncOf(hitTest))
	api.Set("drainEvents", js.FuncOf(drainEvents))
	api.Set("getDocument", js.FuncOf(getDocument))
	api.Set("getViewport", js.FuncOf(getViewport))
	api.Set("getSelection", js.FuncOf(getSelection))
	api.Set("getSelectionBounds", js.FuncOf(getSelectionBounds))
	api.Set("getBoundingBox", js.FuncOf(getBoundingBox))
	api.Set("getState", js.FuncOf(getState))

	js.Global().Set("mindweaveEngine", api)
	js.Global().Set("mindweaveWasmReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

func ok() interface{} {
	return js.ValueOf(map[string]interface{}{"ok": true})
}

func fail(msg string) interface{} {
	return js.ValueOf(map[string]interface{}{"error": msg})
}

// decodeArg unmarshals the JSON string in args[i] into dst.
func decodeArg(args []js.Value, i int, dst any) bool {
	if len(args) <= i || args[i].Type() != js.TypeString {
		return false
	}
	return json.Unmarshal([]byte(args[i].String()), dst) == nil
}

func stringArg(args []js.Value, i int) string {
	if len(args) <= i || args[i].Type() != js.TypeString {
		return ""
	}
	return args[i].String()
}

// --- Command Handlers ---

func loadDocument(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return fail("missing document JSON")
	}
	if err := eng.LoadDocument(args[0].String()); err != nil {
		return fail(err.Error())
	}
	return ok()
}

// openMap restores a map from localStorage, starting fresh when nothing
// usable is stored.
func openMap(this js.Value, args []js.Value) interface{} {
	mapID := stringArg(args, 0)
	if mapID == "" {
		return fail("missing map id")
	}
	restored := eng.LoadDocumentOrDefault(loadStored(mapID), mapID)
	return js.ValueOf(map[string]interface{}{"ok": true, "restored": restored})
}

func loadSampleDocument(this js.Value, args []js.Value) interface{} {
	mapID := "map_sample"
	if s := stringArg(args, 0); s != "" {
		mapID = s
	}
	eng.LoadSampleDocument(mapID)
	return ok()
}

func setViewportSize(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return nil
	}
	eng.SetViewportSize(args[0].Float(), args[1].Float())
	return nil
}

func setViewport(this js.Value, args []js.Value) interface{} {
	var v viewport.Viewport
	if !decodeArg(args, 0, &v) {
		return fail("invalid viewport JSON")
	}
	eng.SetViewport(v)
	return ok()
}

func setSettings(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return fail("missing settings JSON")
	}
	if err := eng.SetSettings(args[0].String()); err != nil {
		return fail(err.Error())
	}
	return ok()
}

func setTool(this js.Value, args []js.Value) interface{} {
	eng.SetTool(gesture.Tool(stringArg(args, 0)))
	return nil
}

func setMultiSelect(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return nil
	}
	eng.SetMultiSelect(args[0].Truthy())
	return nil
}

func pointer(this js.Value, args []js.Value) interface{} {
	var ev gesture.PointerEvent
	if !decodeArg(args, 0, &ev) {
		return nil
	}
	ev.Time = time.Now()
	eng.Pointer(ev)
	return nil
}

func touch(this js.Value, args []js.Value) interface{} {
	var ev gesture.TouchEvent
	if !decodeArg(args, 0, &ev) {
		return nil
	}
	ev.Time = time.Now()
	eng.Touch(ev)
	return nil
}

func wheel(this js.Value, args []js.Value) interface{} {
	var ev gesture.WheelEvent
	if !decodeArg(args, 0, &ev) {
		return nil
	}
	eng.Wheel(ev)
	return nil
}

func key(this js.Value, args []js.Value) interface{} {
	var ev gesture.KeyEvent
	if !decodeArg(args, 0, &ev) {
		return nil
	}
	eng.Key(ev)
	return nil
}

func command(this js.Value, args []js.Value) interface{} {
	eng.Command(gesture.CommandName(stringArg(args, 0)))
	return nil
}

func applyLayout(this js.Value, args []js.Value) interface{} {
	if err := eng.ApplyLayout(stringArg(args, 0)); err != nil {
		return fail(err.Error())
	}
	return ok()
}

func setLabel(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.ValueOf(false)
	}
	return js.ValueOf(eng.Editor().SetLabel(graph.NodeID(args[0].String()), args[1].String()))
}

// setColor takes a JSON array of node ids and a colour.
func setColor(this js.Value, args []js.Value) interface{} {
	var ids []graph.NodeID
	if !decodeArg(args, 0, &ids) || len(args) < 2 {
		return js.ValueOf(false)
	}
	return js.ValueOf(eng.Editor().SetColor(ids, args[1].String(), true))
}

func fitView(this js.Value, args []js.Value) interface{} {
	eng.FitView(time.Now())
	return nil
}

func focusNode(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.FocusNode(graph.NodeID(stringArg(args, 0)), time.Now()))
}

func generateChildren(this js.Value, args []js.Value) interface{} {
	opts := generate.DefaultOptions()
	if len(args) > 1 && !decodeArg(args, 1, &opts) {
		return fail("invalid options JSON")
	}
	if err := eng.Generate(graph.NodeID(stringArg(args, 0)), opts); err != nil {
		return fail(err.Error())
	}
	return ok()
}

func cancelGeneration(this js.Value, args []js.Value) interface{} {
	eng.CancelGeneration(graph.NodeID(stringArg(args, 0)))
	return nil
}

func flush(this js.Value, args []js.Value) interface{} {
	eng.Flush()
	return nil
}

// tick advances timers and animations and returns the frame's draw list.
func tick(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.Tick(time.Now()))
}

// --- Query Handlers ---

func render(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.Render())
}

func hitTest(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.ValueOf("")
	}
	return js.ValueOf(eng.HitTest(args[0].Float(), args[1].Float()))
}

func drainEvents(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.DrainEventsJSON())
}

func getDocument(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.GetDocument())
}

func getViewport(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.GetViewport())
}

func getSelection(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.GetSelection())
}

func getSelectionBounds(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.GetSelectionBounds())
}

func getBoundingBox(this js.Value, args []js.Value) interface{} {
	padding := 0.0
	if len(args) > 0 && args[0].Type() == js.TypeNumber {
		padding = args[0].Float()
	}
	return js.ValueOf(eng.GetBoundingBox(padding))
}

func getState(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.GetState())
}
