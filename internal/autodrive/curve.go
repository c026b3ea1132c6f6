package autodrive

import "sort"

// Point maps a temperature to a fan speed percentage.
type Point struct {
	TemperatureC int
	Percentage   int
}

// Curve is a piecewise linear fan curve. Below the first point the first
// percentage applies, above the last point the last one.
type Curve struct {
	points []Point
}

// NewCurve keeps the points whose temperature lies strictly between 0 and 100
// degrees and orders them by temperature.
func NewCurve(points []Point) Curve {
	var kept []Point
	for _, p := range points {
		if p.TemperatureC > 0 && p.TemperatureC < 100 {
			kept = append(kept, p)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].TemperatureC < kept[j].TemperatureC })
	return Curve{points: kept}
}

func (c Curve) Points() []Point {
	return append([]Point(nil), c.points...)
}

// Percentage returns the fan speed for tempC. An empty curve runs the fan at
// full speed.
func (c Curve) Percentage(tempC int) int {
	if len(c.points) == 0 {
		return 100
	}
	first, last := c.points[0], c.points[len(c.points)-1]
	if tempC <= first.TemperatureC {
		return clampPercent(first.Percentage)
	}
	if tempC >= last.TemperatureC {
		return clampPercent(last.Percentage)
	}
	for i := 0; i+1 < len(c.points); i++ {
		lo, hi := c.points[i], c.points[i+1]
		if tempC >= lo.TemperatureC && tempC < hi.TemperatureC {
			slope := float64(hi.Percentage-lo.Percentage) / float64(hi.TemperatureC-lo.TemperatureC)
			return clampPercent(int(slope*float64(tempC-lo.TemperatureC)) + lo.Percentage)
		}
	}
	return 100
}

// DutyForPercentage converts a fan speed percentage into a duty cycle. The fan
// input is inverted: full duty stops the fan.
func DutyForPercentage(pct int, maxDuty uint32) int {
	pct = clampPercent(pct)
	return int(float64(100-pct) / 100.0 * float64(maxDuty))
}

func clampPercent(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
