package controller

import "time"

const (
	// TickPeriod is the motion integration period.
	TickPeriod = 25 * time.Millisecond
	// StickSpeed is the displacement per tick at full stick deflection.
	StickSpeed = 40.0
	// Deadzone is the raw stick magnitude at or below which an axis reads 0.
	Deadzone = 8000
	// AxisScale normalizes a signed 16-bit axis to [-1, 1].
	AxisScale = 32768.0
)

// AxisState holds the last normalized right stick deflection.
type AxisState struct {
	X, Y float64
}

// Idle reports whether the stick is centered.
func (a AxisState) Idle() bool {
	return a.X == 0 && a.Y == 0
}

// Advance returns the position one tick after (x, y).
func (a AxisState) Advance(x, y int) (int, int) {
	return int(float64(x) + a.X*StickSpeed), int(float64(y) + a.Y*StickSpeed)
}
