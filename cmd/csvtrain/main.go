// Command csvtrain trains a network on a CSV file with validation-gated
// early stopping.
//
// Usage:
//
//	csvtrain -data data.csv -labels 4 -hidden 16,8 -act sigmoid
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/FlavioCFOliveira/backprop/internal/activations"
	"github.com/FlavioCFOliveira/backprop/internal/checkpoint"
	"github.com/FlavioCFOliveira/backprop/internal/cost"
	"github.com/FlavioCFOliveira/backprop/internal/dataset"
	"github.com/FlavioCFOliveira/backprop/internal/layer"
	"github.com/FlavioCFOliveira/backprop/internal/model"
)

func main() {
	defaults := model.DefaultTrainOptions()

	data := flag.String("data", "", "CSV file to train on")
	header := flag.Bool("header", true, "first CSV line is a header")
	labels := flag.String("labels", "", "comma-separated target column indices")
	hidden := flag.String("hidden", "16", "comma-separated hidden layer sizes")
	act := flag.String("act", "Sigmoid", "hidden activation: Sigmoid, ELU, ReLU, LeakyReLU, Linear, Tanh")
	alpha := flag.Float64("alpha", activations.DefaultELUAlpha, "alpha for ELU and LeakyReLU")
	classify := flag.Bool("classify", false, "train with the logistic cost and sigmoid outputs")
	normalize := flag.Bool("normalize", true, "min-max scale the features")
	seed := flag.Int64("seed", 0, "random seed")
	epochs := flag.Int("epochs", defaults.Epochs, "maximum number of epochs")
	lr := flag.Float64("lr", defaults.LearningRate, "learning rate")
	reg := flag.Float64("reg", defaults.Regularization, "L2 regularization")
	batch := flag.Int("batch", defaults.MinibatchSize, "minibatch size")
	val := flag.Float64("val", defaults.ValidationFraction, "validation fraction")
	eps := flag.Float64("eps", defaults.Epsilon, "early stopping epsilon")
	logFile := flag.String("log", "", "write per-epoch costs to this CSV file")
	save := flag.String("save", "", "save the best model to this checkpoint")
	verbose := flag.Bool("v", false, "print the cost after every epoch")
	flag.Parse()

	if *data == "" || *labels == "" {
		flag.Usage()
		os.Exit(2)
	}

	labelCols, err := parseInts(*labels)
	if err != nil {
		log.Fatalf("Invalid -labels: %v", err)
	}
	sizes, err := parseInts(*hidden)
	if err != nil {
		log.Fatalf("Invalid -hidden: %v", err)
	}
	hiddenAct, err := activations.Lookup(*act, *alpha)
	if err != nil {
		log.Fatalf("Invalid -act: %v", err)
	}

	ds, err := dataset.LoadCSV(*data, labelCols, *header)
	if err != nil {
		log.Fatalf("Failed to load CSV: %v", err)
	}
	if *normalize {
		ds.Normalize()
	}
	_, features := ds.X.Dims()
	_, outputs := ds.Y.Dims()
	fmt.Printf("Loaded %d samples with %d features and %d targets.\n", ds.Len(), features, outputs)

	var (
		costFn cost.Function          = cost.NewLinearRegression(nil, nil, nil, nil, 0)
		outAct activations.Activation = activations.Linear{}
	)
	if *classify {
		costFn = cost.NewLogisticRegression(nil, nil, nil, nil, 0)
		outAct = activations.Sigmoid{}
	}

	network := model.New(features, costFn, *seed)
	for _, size := range sizes {
		if err := network.AddLayer(layer.NewHidden(size, hiddenAct)); err != nil {
			log.Fatal(err)
		}
	}
	if err := network.AddLayer(layer.NewOutput(outputs, outAct)); err != nil {
		log.Fatal(err)
	}
	network.Summary(os.Stdout)

	if *logFile != "" {
		network.AddCallback(model.NewCSVLogger(*logFile, false))
	}
	if *save != "" {
		cb := checkpoint.NewModelCheckpoint(*save, checkpoint.FormatProto)
		cb.HigherIsBetter = *classify
		network.AddCallback(cb)
	}

	opts := model.TrainOptions{
		Epochs:             *epochs,
		LearningRate:       *lr,
		Regularization:     *reg,
		MinibatchSize:      *batch,
		ValidationFraction: *val,
		Epsilon:            *eps,
		Verbose:            *verbose,
	}
	stopped, err := network.TrainSGDWithValidation(ds.X, ds.Y, opts)
	if err != nil {
		log.Fatalf("Training failed: %v", err)
	}

	final, err := network.Error(ds.X, ds.Y)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Stopped after %d/%d epochs; %s on all data: %.6f\n", stopped, *epochs, costFn.ErrorName(), final)
}

func parseInts(s string) ([]int, error) {
	var out []int
	for _, f := range strings.Split(s, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
