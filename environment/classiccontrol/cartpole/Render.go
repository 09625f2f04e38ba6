package cartpole

import (
	"image"
	"math"

	"github.com/fogleman/gg"
)

const (
	screenWidth  = 600
	screenHeight = 400
)

// Render draws the current state of the environment
func (c *base) Render() (image.Image, error) {
	worldWidth := 2 * PositionBounds
	scale := screenWidth / worldWidth
	poleLen := scale * 2 * c.halfPoleLength
	cartWidth, cartHeight := 50.0, 30.0
	trackY := 100.0

	state := c.lastStep.Observation
	x, th := state.AtVec(0), state.AtVec(2)

	dc := gg.NewContext(screenWidth, screenHeight)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	// gg has the origin in the top left corner
	cartX := x*scale + screenWidth/2.0
	cartY := screenHeight - trackY

	dc.SetRGB(0, 0, 0)
	dc.SetLineWidth(1)
	dc.DrawLine(0, cartY, screenWidth, cartY)
	dc.Stroke()

	dc.DrawRectangle(cartX-cartWidth/2, cartY-cartHeight/2, cartWidth,
		cartHeight)
	dc.Fill()

	// Pole
	dc.SetRGB(0.8, 0.6, 0.4)
	dc.SetLineWidth(10)
	axleY := cartY - cartHeight/4
	dc.DrawLine(cartX, axleY, cartX+poleLen*math.Sin(th),
		axleY-poleLen*math.Cos(th))
	dc.Stroke()

	dc.SetRGB(0.5, 0.5, 0.8)
	dc.DrawCircle(cartX, axleY, 5)
	dc.Fill()

	return dc.Image(), nil
}
