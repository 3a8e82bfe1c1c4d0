package render

import (
	"github.com/rayman-net/slideshift/internal/game"
	"github.com/rayman-net/slideshift/internal/protocol"
)

// Color is an RGB color hint, deliberately terminal-agnostic: each backend
// maps it to its own native representation (tcell truecolor, ANSI
// 16/256-color approximation, or a Gio NRGBA).
type Color struct {
	R, G, B uint8
}

var (
	ColorBlack  = Color{0, 0, 0}
	ColorWhite  = Color{255, 255, 255}
	ColorYellow = Color{255, 255, 0}
	ColorRed    = Color{220, 40, 40}
	ColorGreen  = Color{40, 200, 40}
)

// InputType enumerates the kinds of InputEvent a renderer's PollInput can
// surface.
type InputType int

const (
	InputNone InputType = iota
	InputKey
	InputQuit
	InputResize
)

// InputEvent is one polled input occurrence, translated from whatever
// native event type the backend uses into the game's intent vocabulary.
type InputEvent struct {
	Type   InputType
	Intent protocol.Intent
	Quit   bool
}

// GameRenderer is the capability every terminal backend provides: frame
// lifecycle, world/text drawing, and non-blocking input polling.
type GameRenderer interface {
	Init() error
	Close()
	BeginFrame()
	EndFrame()
	ViewportSize() (float64, float64)
	RenderWorld(world *game.World, camera Camera)
	RenderText(x, y float64, text string, color Color)
	SetTileMap(tiles [][]rune)
	DrawHUD(text string)
	PollInput() (InputEvent, bool)
}
