package model

import (
	"fmt"
	"io"
	"os"
)

// Callback observes a training run.
type Callback interface {
	OnTrainBegin(m *Model)
	OnEpochEnd(epoch int, cost float64, m *Model)
	OnTrainEnd(m *Model)
}

// BaseCallback provides default empty implementations for Callback.
type BaseCallback struct{}

func (c BaseCallback) OnTrainBegin(m *Model)                        {}
func (c BaseCallback) OnEpochEnd(epoch int, cost float64, m *Model) {}
func (c BaseCallback) OnTrainEnd(m *Model)                          {}

// Logger logs training progress every Interval epochs.
type Logger struct {
	BaseCallback
	Interval int

	// Out defaults to os.Stdout.
	Out io.Writer
}

func (c Logger) OnEpochEnd(epoch int, cost float64, m *Model) {
	if c.Interval <= 0 || epoch%c.Interval != 0 {
		return
	}
	out := c.Out
	if out == nil {
		out = os.Stdout
	}
	fmt.Fprintf(out, "Epoch %d: %s = %.6f\n", epoch, m.Cost().ErrorName(), cost)
}

// History records the cost reported after every epoch.
type History struct {
	BaseCallback
	Costs []float64
}

func (h *History) OnTrainBegin(m *Model) { h.Costs = h.Costs[:0] }

func (h *History) OnEpochEnd(epoch int, cost float64, m *Model) {
	h.Costs = append(h.Costs, cost)
}
