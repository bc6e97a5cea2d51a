package model

import (
	"fmt"

	"github.com/FlavioCFOliveira/backprop/internal/dataset"
	"gonum.org/v1/gonum/mat"
)

// TrainOptions holds the hyperparameters shared by the training loops.
// Fields a loop does not use are ignored by it.
type TrainOptions struct {
	Epochs         int
	LearningRate   float64
	Regularization float64

	// MinibatchSize is the number of rows per stochastic update.
	MinibatchSize int

	// ValidationFraction is the share of rows held out for early stopping.
	ValidationFraction float64

	// Epsilon loosens the early stopping threshold.
	Epsilon float64

	// Verbose prints the cost after every epoch and once training ends.
	Verbose bool
}

// DefaultTrainOptions returns the defaults used by the command line tools.
func DefaultTrainOptions() TrainOptions {
	return TrainOptions{
		Epochs:             1000,
		LearningRate:       0.1,
		MinibatchSize:      5,
		ValidationFraction: 0.2,
		Epsilon:            0.025,
	}
}

func (o TrainOptions) validate(stochastic, validation bool) error {
	if o.Epochs < 0 {
		return fmt.Errorf("%w: epochs must not be negative, got %d", ErrConfiguration, o.Epochs)
	}
	if o.LearningRate < 0 || o.Regularization < 0 {
		return fmt.Errorf("%w: learning rate and regularization must not be negative", ErrConfiguration)
	}
	if stochastic && o.MinibatchSize <= 0 {
		return fmt.Errorf("%w: minibatch size must be positive, got %d", ErrConfiguration, o.MinibatchSize)
	}
	if validation && (o.ValidationFraction <= 0 || o.ValidationFraction >= 1) {
		return fmt.Errorf("%w: validation fraction must be in (0, 1), got %v", ErrConfiguration, o.ValidationFraction)
	}
	return nil
}

func (m *Model) trainingSet(x, y *mat.Dense) (*dataset.Dataset, error) {
	if err := m.checkTargets(x, y); err != nil {
		return nil, err
	}
	return dataset.New(x, y)
}

// Train runs full-batch training: one BackProp pass over every row per
// epoch, for exactly opts.Epochs epochs.
func (m *Model) Train(x, y *mat.Dense, opts TrainOptions) error {
	if err := opts.validate(false, false); err != nil {
		return err
	}
	data, err := m.trainingSet(x, y)
	if err != nil {
		return err
	}

	m.beginTraining()
	for epoch := 1; epoch <= opts.Epochs; epoch++ {
		m.backProp(data.X, data.Y, opts.LearningRate, opts.Regularization)
		m.endEpoch(epoch, opts, data)
	}
	m.endTraining(opts, data)
	return nil
}

// TrainSGD runs minibatch stochastic gradient descent.
//
// Every epoch shuffles the rows and then takes n/MinibatchSize steps. Each
// step starts at a minibatch boundary drawn uniformly at random, so a single
// epoch may visit a minibatch twice and skip another.
func (m *Model) TrainSGD(x, y *mat.Dense, opts TrainOptions) error {
	if err := opts.validate(true, false); err != nil {
		return err
	}
	data, err := m.trainingSet(x, y)
	if err != nil {
		return err
	}

	m.beginTraining()
	for epoch := 1; epoch <= opts.Epochs; epoch++ {
		data = m.sgdEpoch(data, opts)
		m.endEpoch(epoch, opts, data)
	}
	m.endTraining(opts, data)
	return nil
}

// TrainSGDWithValidation runs TrainSGD on a training partition and stops
// early once the cost on a held-out validation partition jumps.
//
// The rows are shuffled once and the trailing ValidationFraction of them is
// held out for the whole run. After every epoch the validation cost is
// compared with the previous epoch's; training stops when
// current-previous > previous+Epsilon. Verbose output and callbacks see the
// validation cost. It returns the epoch training stopped at, or opts.Epochs
// when it ran to completion.
func (m *Model) TrainSGDWithValidation(x, y *mat.Dense, opts TrainOptions) (int, error) {
	if err := opts.validate(true, true); err != nil {
		return 0, err
	}
	data, err := m.trainingSet(x, y)
	if err != nil {
		return 0, err
	}

	train, validation, err := data.Permute(m.rng.Perm(data.Len())).Split(opts.ValidationFraction)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	m.beginTraining()
	var prev float64
	stopped := opts.Epochs
	for epoch := 1; epoch <= opts.Epochs; epoch++ {
		train = m.sgdEpoch(train, opts)

		cur := m.cost.Error(validation.Y, m.predict(validation.X))
		m.reportEpoch(epoch, opts, cur)
		if epoch > 1 && cur-prev > prev+opts.Epsilon {
			if opts.Verbose {
				fmt.Fprintf(m.out, "[ Stopping early at epoch %d: validation %s went from %v to %v ]\n", epoch, m.cost.ErrorName(), prev, cur)
			}
			stopped = epoch
			break
		}
		prev = cur
	}
	m.endTraining(opts, validation)
	return stopped, nil
}

// sgdEpoch shuffles data and runs one epoch of minibatch updates on it.
// It returns the shuffled set so that the next epoch permutes it again.
func (m *Model) sgdEpoch(data *dataset.Dataset, opts TrainOptions) *dataset.Dataset {
	n := data.Len()
	data = data.Permute(m.rng.Perm(n))

	count := n / opts.MinibatchSize
	for b := 0; b < count; b++ {
		start := opts.MinibatchSize * int(m.rng.Float64()*float64(count))
		batch := data.Slice(start, start+opts.MinibatchSize)
		m.backProp(batch.X, batch.Y, opts.LearningRate, opts.Regularization)
	}
	return data
}

func (m *Model) beginTraining() {
	for _, cb := range m.callbacks {
		cb.OnTrainBegin(m)
	}
}

func (m *Model) endEpoch(epoch int, opts TrainOptions, data *dataset.Dataset) {
	if !opts.Verbose && len(m.callbacks) == 0 {
		return
	}
	m.reportEpoch(epoch, opts, m.cost.Error(data.Y, m.predict(data.X)))
}

func (m *Model) reportEpoch(epoch int, opts TrainOptions, cost float64) {
	if opts.Verbose {
		fmt.Fprintf(m.out, "[ Epoch: %d/%d; %s: %v ]\n", epoch, opts.Epochs, m.cost.ErrorName(), cost)
	}
	for _, cb := range m.callbacks {
		cb.OnEpochEnd(epoch, cost, m)
	}
}

func (m *Model) endTraining(opts TrainOptions, data *dataset.Dataset) {
	if opts.Verbose {
		cost := m.cost.Error(data.Y, m.predict(data.X))
		fmt.Fprintf(m.out, "\n[ Finished training with %s: %v ]\n", m.cost.ErrorName(), cost)
	}
	for _, cb := range m.callbacks {
		cb.OnTrainEnd(m)
	}
}
