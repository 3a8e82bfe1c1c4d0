package render

// HalfBlockRenderer renders using ▀▄█ with truecolor or 256-color
type HalfBlockRenderer struct {
	width, height int
	truecolor     bool
	// TODO: Screen buffer (2 pixels per cell vertically)
}

// NewHalfBlockRenderer creates a half-block renderer
func NewHalfBlockRenderer(truecolor bool) *HalfBlockRenderer {
	return &HalfBlockRenderer{
		truecolor: truecolor,
	}
}

func (r *HalfBlockRenderer) Init() error {
	// TODO: Initialize terminal
	r.width, r.height = 80, 48 // Double vertical resolution
	return nil
}

func (r *HalfBlockRenderer) Close() {
	// TODO: Restore terminal
}

func (r *HalfBlockRenderer) Clear() {
	// TODO: Clear buffer
}

func (r *HalfBlockRenderer) SetCell(x, y int, ch rune, fg, bg Color) {
	// TODO: Set cell using half-block characters
	// Upper half = foreground color, lower half = background color
	// Use ▀ (upper half block) with fg/bg colors
}

func (r *HalfBlockRenderer) Flush() {
	// TODO: Write buffer with ANSI escape codes
}

func (r *HalfBlockRenderer) Size() (int, int) {
	return r.width, r.height
}
