package opt

import "math"

// Scheduler yields the learning rate to use at a given step (0-based).
type Scheduler interface {
	Rate(step int) float64
}

// Constant keeps the learning rate fixed.
type Constant float64

func (c Constant) Rate(int) float64 { return float64(c) }

// StepLR decays the learning rate by gamma every StepSize steps.
type StepLR struct {
	Initial  float64
	StepSize int
	Gamma    float64
}

func (s StepLR) Rate(step int) float64 {
	if s.StepSize <= 0 {
		return s.Initial
	}
	return s.Initial * math.Pow(s.Gamma, float64(step/s.StepSize))
}

// InverseTime is the t0/(t+t1) schedule used for stochastic descent on
// coefficient vectors.
type InverseTime struct {
	T0, T1 float64
}

func (s InverseTime) Rate(step int) float64 {
	return s.T0 / (float64(step) + s.T1)
}
