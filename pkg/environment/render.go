package environment

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	"github.com/boristopalov/rlplayground/pkg/core"
)

const cellSize = 48

var tileColors = map[byte]color.RGBA{
	tileStart:  {R: 173, G: 216, B: 230, A: 255},
	tileFrozen: {R: 214, G: 236, B: 250, A: 255},
	tileHole:   {R: 32, G: 58, B: 110, A: 255},
	tileGoal:   {R: 242, G: 196, B: 48, A: 255},
	tileCliff:  {R: 120, G: 72, B: 48, A: 255},
	tileFloor:  {R: 226, G: 226, B: 226, A: 255},
}

var (
	gridLine   = color.RGBA{R: 90, G: 90, B: 90, A: 255}
	agentColor = color.RGBA{R: 214, G: 48, B: 49, A: 255}
)

// renderPNG draws the grid as a base64 encoded PNG
func renderPNG(rows, cols int, tiles []byte, agent int) (core.Frame, error) {
	img := image.NewRGBA(image.Rect(0, 0, cols*cellSize, rows*cellSize))

	for i, t := range tiles {
		cell := image.Rect(0, 0, cellSize-1, cellSize-1).Add(image.Pt((i%cols)*cellSize, (i/cols)*cellSize))
		draw.Draw(img, cell.Inset(-1), &image.Uniform{C: gridLine}, image.Point{}, draw.Src)
		draw.Draw(img, cell, &image.Uniform{C: tileColors[t]}, image.Point{}, draw.Src)
	}

	cx := (agent%cols)*cellSize + cellSize/2
	cy := (agent/cols)*cellSize + cellSize/2
	radius := cellSize / 3
	for y := -radius; y <= radius; y++ {
		for x := -radius; x <= radius; x++ {
			if x*x+y*y <= radius*radius {
				img.SetRGBA(cx+x, cy+y, agentColor)
			}
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("encode frame: %w", err)
	}
	return core.Frame(base64.StdEncoding.EncodeToString(buf.Bytes())), nil
}
