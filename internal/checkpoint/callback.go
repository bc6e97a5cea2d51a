package checkpoint

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/FlavioCFOliveira/backprop/internal/model"
)

// ModelCheckpoint saves the model after every epoch if it's the best so far.
type ModelCheckpoint struct {
	model.BaseCallback
	Filename string

	// HigherIsBetter is set for accuracy-style costs.
	HigherIsBetter bool

	// Out receives save reports, os.Stdout when nil.
	Out io.Writer

	saver *Saver
	best  float64
	Saved int
}

// NewModelCheckpoint creates a callback writing to filename in format.
func NewModelCheckpoint(filename string, format Format) *ModelCheckpoint {
	return &ModelCheckpoint{Filename: filename, saver: NewSaver(format)}
}

func (c *ModelCheckpoint) OnTrainBegin(m *model.Model) {
	c.best = math.Inf(1)
	if c.HigherIsBetter {
		c.best = math.Inf(-1)
	}
	c.Saved = 0
}

func (c *ModelCheckpoint) OnEpochEnd(epoch int, cost float64, m *model.Model) {
	improved := cost < c.best
	if c.HigherIsBetter {
		improved = cost > c.best
	}
	if !improved {
		return
	}
	c.best = cost

	out := c.Out
	if out == nil {
		out = os.Stdout
	}
	if err := c.saver.SaveModel(m, c.Filename); err != nil {
		fmt.Fprintf(out, "Error saving checkpoint: %v\n", err)
		return
	}
	c.Saved++
	fmt.Fprintf(out, "Checkpoint saved at epoch %d: %s %.6f is new best\n", epoch, m.Cost().ErrorName(), cost)
}
