package acrobot

import (
	"image"
	"math"

	"github.com/fogleman/gg"
)

const screenSize = 500

// Render draws the current state of the environment
func (a *base) Render() (image.Image, error) {
	th1, th2 := a.state.AtVec(0), a.state.AtVec(1)

	dc := gg.NewContext(screenSize, screenSize)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	centre := screenSize / 2.0
	scale := screenSize / (2.2 * (LinkLength1 + LinkLength2))

	// θ1 = 0 hangs straight down, and gg's y-axis points down
	x1 := centre + scale*LinkLength1*math.Sin(th1)
	y1 := centre + scale*LinkLength1*math.Cos(th1)
	x2 := x1 + scale*LinkLength2*math.Sin(th1+th2)
	y2 := y1 + scale*LinkLength2*math.Cos(th1+th2)

	// Goal line
	dc.SetRGB(0, 0, 0)
	dc.SetLineWidth(1)
	goalY := centre - scale*GoalHeight
	dc.DrawLine(0, goalY, screenSize, goalY)
	dc.Stroke()

	dc.SetRGB(0, 0.8, 0.8)
	dc.SetLineWidth(10)
	dc.SetLineCapRound()
	dc.DrawLine(centre, centre, x1, y1)
	dc.DrawLine(x1, y1, x2, y2)
	dc.Stroke()

	dc.SetRGB(0.8, 0.8, 0)
	dc.DrawCircle(centre, centre, 5)
	dc.DrawCircle(x1, y1, 5)
	dc.Fill()

	return dc.Image(), nil
}
