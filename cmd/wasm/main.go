//go:build js && wasm

package main

import (
	"syscall/js"

	"github.com/boothmap/boothmap/internal/engine"
)

var eng *engine.Engine

func main() {
	eng = engine.NewEngine()

	// Create the engine API object
	boothmapEngine := js.Global().Get("Object").New()

	// --- Commands (frontend → backend) ---
	boothmapEngine.Set("loadDocument", js.FuncOf(loadDocument))
	boothmapEngine.Set("loadSampleDocument", js.FuncOf(loadSampleDocument))
	boothmapEngine.Set("setWindowSize", js.FuncOf(setWindowSize))
	boothmapEngine.Set("pointerDown", js.FuncOf(pointerDown))
	boothmapEngine.Set("pointerMove", js.FuncOf(pointerMove))
	boothmapEngine.Set("pointerUp", js.FuncOf(pointerUp))
	boothmapEngine.Set("apply", js.FuncOf(apply))

	// --- Queries (frontend ← backend) ---
	boothmapEngine.Set("render", js.FuncOf(render))
	boothmapEngine.Set("hitTest", js.FuncOf(hitTest))
	boothmapEngine.Set("getViewport", js.FuncOf(getViewport))
	boothmapEngine.Set("getDocument", js.FuncOf(getDocument))
	boothmapEngine.Set("getSelection", js.FuncOf(getSelection))
	boothmapEngine.Set("getInfo", js.FuncOf(getInfo))
	boothmapEngine.Set("getReport", js.FuncOf(getReport))

	// Register on global scope
	js.Global().Set("boothmapEngine", boothmapEngine)

	// Signal that WASM is ready
	js.Global().Set("boothmapWasmReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

func result(err error) interface{} {
	if err != nil {
		return js.ValueOf(map[string]interface{}{"error": err.Error()})
	}
	return js.ValueOf(map[string]interface{}{"ok": true})
}

// --- Command Handlers ---

func loadDocument(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(map[string]interface{}{"error": "missing document JSON"})
	}
	return result(eng.LoadDocument(args[0].String()))
}

func loadSampleDocument(this js.Value, args []js.Value) interface{} {
	eng.LoadSampleDocument()
	return result(nil)
}

func setWindowSize(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return nil
	}
	eng.SetWindowSize(args[0].Int(), args[1].Int())
	return nil
}

// pointerDown(x, y, ctrl, shift)
func pointerDown(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return nil
	}
	var mods engine.Modifiers
	if len(args) > 2 {
		mods.Multi = args[2].Truthy()
	}
	if len(args) > 3 {
		mods.Insert = args[3].Truthy()
	}
	eng.PointerDown(args[0].Float(), args[1].Float(), mods)
	return nil
}

func pointerMove(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return nil
	}
	eng.PointerMove(args[0].Float(), args[1].Float())
	return nil
}

func pointerUp(this js.Value, args []js.Value) interface{} {
	eng.PointerUp()
	return nil
}

// apply takes a JSON op such as {"type":"cmd.rotate","delta":5}.
func apply(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(map[string]interface{}{"error": "missing op JSON"})
	}
	return result(eng.Apply(args[0].String()))
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

func getViewport(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.GetViewport())
}

func getDocument(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.GetDocument())
}

func getSelection(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.GetSelection())
}

func getInfo(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.GetInfo())
}

func getReport(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.GetReport())
}
