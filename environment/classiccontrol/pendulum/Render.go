package pendulum

import (
	"image"
	"math"

	"github.com/fogleman/gg"
)

const screenSize = 500

// Render draws the current state of the environment
func (p *base) Render() (image.Image, error) {
	th := p.state.AtVec(0)

	dc := gg.NewContext(screenSize, screenSize)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	centre := screenSize / 2.0
	rodLen := 0.4 * screenSize * p.length

	// θ = 0 points straight up, and gg's y-axis points down
	endX := centre + rodLen*math.Sin(th)
	endY := centre - rodLen*math.Cos(th)

	dc.SetRGB(0.8, 0.3, 0.3)
	dc.SetLineWidth(20)
	dc.SetLineCapRound()
	dc.DrawLine(centre, centre, endX, endY)
	dc.Stroke()

	dc.SetRGB(0, 0, 0)
	dc.DrawCircle(centre, centre, 6)
	dc.Fill()

	return dc.Image(), nil
}
