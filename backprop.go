// Package backprop re-exports the network trainer for callers outside the
// module: models, layers, activations, costs, callbacks and persistence.
package backprop

import (
	"github.com/FlavioCFOliveira/backprop/internal/activations"
	"github.com/FlavioCFOliveira/backprop/internal/checkpoint"
	"github.com/FlavioCFOliveira/backprop/internal/cost"
	"github.com/FlavioCFOliveira/backprop/internal/dataset"
	"github.com/FlavioCFOliveira/backprop/internal/layer"
	"github.com/FlavioCFOliveira/backprop/internal/model"
	"gonum.org/v1/gonum/mat"
)

// Re-export common types and functions for easier access
type (
	Model        = model.Model
	Layer        = layer.Layer
	Activation   = activations.Activation
	Cost         = cost.Function
	ClosedForm   = cost.ClosedForm
	TrainOptions = model.TrainOptions
	Dataset      = dataset.Dataset
	Callback     = model.Callback
)

var (
	ErrConfiguration = model.ErrConfiguration
	ErrShapeMismatch = model.ErrShapeMismatch
)

// Model creation
func New(inputSize int, costFn Cost, seed int64) *Model {
	return model.New(inputSize, costFn, seed)
}

// DefaultTrainOptions returns the standard training hyperparameters.
func DefaultTrainOptions() TrainOptions {
	return model.DefaultTrainOptions()
}

// Activations
var (
	ReLU    = activations.ReLU{}
	Sigmoid = activations.Sigmoid{}
	Tanh    = activations.Tanh{}
	Softmax = activations.Softmax{}
	Linear  = activations.Linear{}
)

func LeakyReLU(alpha float64) Activation {
	return activations.NewLeakyReLU(alpha)
}

func ELU(alpha float64) Activation {
	return activations.NewELU(alpha)
}

// Layers
func Hidden(size int, act Activation) *Layer {
	return layer.NewHidden(size, act)
}

func Output(size int, act Activation) *Layer {
	return layer.NewOutput(size, act)
}

// Costs. Pass nil data for network training only.
func LinearRegression(xTrain *mat.Dense, yTrain *mat.VecDense, xTest *mat.Dense, yTest *mat.VecDense, reg float64) *cost.LinearRegression {
	return cost.NewLinearRegression(xTrain, yTrain, xTest, yTest, reg)
}

func LogisticRegression(xTrain *mat.Dense, yTrain *mat.VecDense, xTest *mat.Dense, yTest *mat.VecDense, reg float64) *cost.LogisticRegression {
	return cost.NewLogisticRegression(xTrain, yTrain, xTest, yTest, reg)
}

// Callbacks
func Logger(interval int) model.Logger {
	return model.Logger{Interval: interval}
}

func CSVLogger(filename string, append bool) *model.CSVLogger {
	return model.NewCSVLogger(filename, append)
}

func ModelCheckpoint(filename string) *checkpoint.ModelCheckpoint {
	return checkpoint.NewModelCheckpoint(filename, checkpoint.FormatProto)
}

// Data
func LoadCSV(filename string, labelCols []int, hasHeader bool) (*Dataset, error) {
	return dataset.LoadCSV(filename, labelCols, hasHeader)
}

// Model Persistence
func Save(m *Model, filename string) error {
	return checkpoint.NewSaver(checkpoint.FormatProto).SaveModel(m, filename)
}

func Load(filename string, costFn Cost, seed int64) (*Model, error) {
	return checkpoint.NewSaver(checkpoint.FormatProto).LoadModel(filename, costFn, seed)
}
