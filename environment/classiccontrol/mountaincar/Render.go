package mountaincar

import (
	"image"
	"math"

	"github.com/fogleman/gg"
)

const (
	screenWidth  = 600
	screenHeight = 400
)

// height returns the height of the hill at x position x
func height(x float64) float64 {
	return math.Sin(3*x)*0.45 + 0.55
}

// Render draws the current state of the environment
func (m *base) Render() (image.Image, error) {
	worldWidth := m.positionBounds.Max - m.positionBounds.Min
	scale := screenWidth / worldWidth

	// gg has the origin in the top left corner
	toScreen := func(x float64) (float64, float64) {
		return (x - m.positionBounds.Min) * scale,
			screenHeight - height(x)*scale
	}

	dc := gg.NewContext(screenWidth, screenHeight)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	// Hill
	dc.SetRGB(0, 0, 0)
	dc.SetLineWidth(2)
	const points = 100
	for i := 0; i <= points; i++ {
		x := m.positionBounds.Min + worldWidth*float64(i)/points
		dc.LineTo(toScreen(x))
	}
	dc.Stroke()

	// Flag at the goal
	if g, ok := m.Task.(interface{ GoalX() float64 }); ok {
		flagX, flagY := toScreen(g.GoalX())
		dc.DrawLine(flagX, flagY, flagX, flagY-50)
		dc.Stroke()
		dc.SetRGB(0.8, 0.8, 0)
		dc.MoveTo(flagX, flagY-50)
		dc.LineTo(flagX+25, flagY-45)
		dc.LineTo(flagX, flagY-40)
		dc.ClosePath()
		dc.Fill()
	}

	// Car, tilted along the slope of the hill
	pos := m.lastStep.Observation.AtVec(0)
	carX, carY := toScreen(pos)
	carWidth, carHeight := 40.0, 20.0

	dc.Push()
	dc.RotateAbout(-math.Atan(1.35*math.Cos(3*pos)), carX, carY)
	dc.SetRGB(0.2, 0.2, 0.6)
	dc.DrawRectangle(carX-carWidth/2, carY-carHeight-5, carWidth, carHeight)
	dc.Fill()
	dc.SetRGB(0.5, 0.5, 0.5)
	dc.DrawCircle(carX-carWidth/4, carY-5, 5)
	dc.DrawCircle(carX+carWidth/4, carY-5, 5)
	dc.Fill()
	dc.Pop()

	return dc.Image(), nil
}
