package main

import (
	"fmt"
	"math"
	"os"

	"github.com/FlavioCFOliveira/backprop/internal/activations"
	"github.com/FlavioCFOliveira/backprop/internal/checkpoint"
	"github.com/FlavioCFOliveira/backprop/internal/cost"
	"github.com/FlavioCFOliveira/backprop/internal/layer"
	"github.com/FlavioCFOliveira/backprop/internal/model"
	"gonum.org/v1/gonum/mat"
)

func main() {
	fmt.Println("=== XOR / AND / OR Training Example ===")

	// 2 inputs -> 16 sigmoid -> 3 sigmoid outputs, one per gate
	in, hidden, out := 2, 16, 3

	fmt.Printf("Network architecture: %d-%d-%d\n", in, hidden, out)
	fmt.Println("Activation functions: Sigmoid (hidden), Sigmoid (output)")
	fmt.Println("Cost function: logistic regression")

	network := model.New(in, cost.NewLogisticRegression(nil, nil, nil, nil, 0), 0)
	if err := network.AddLayer(layer.NewHidden(hidden, activations.Sigmoid{})); err != nil {
		fail(err)
	}
	if err := network.AddLayer(layer.NewOutput(out, activations.Sigmoid{})); err != nil {
		fail(err)
	}
	network.Summary(os.Stdout)
	network.AddCallback(model.Logger{Interval: 1000})

	inputs := mat.NewDense(4, 2, []float64{
		0, 0,
		0, 1,
		1, 0,
		1, 1,
	})
	// Columns: XOR, AND, OR
	targets := mat.NewDense(4, 3, []float64{
		0, 0, 0,
		1, 0, 1,
		1, 0, 1,
		0, 1, 1,
	})

	if err := network.Train(inputs, targets, model.TrainOptions{Epochs: 10000, LearningRate: 1}); err != nil {
		fail(err)
	}

	predictions, err := network.FeedForward(inputs)
	if err != nil {
		fail(err)
	}

	fmt.Println("\nTesting trained network:")
	for i := 0; i < 4; i++ {
		fmt.Printf("Input: %v, Predicted: %.4f, Target: %v\n",
			inputs.RawRowView(i), predictions.RawRowView(i), targets.RawRowView(i))
	}

	// Save the trained network
	filename := "xor_network.pb"
	defer os.Remove(filename)

	fmt.Println("\nSaving network to disk...")
	saver := checkpoint.NewSaver(checkpoint.FormatProto)
	if err := saver.SaveModel(network, filename); err != nil {
		fmt.Printf("Error saving network: %v\n", err)
		return
	}

	fmt.Println("Loading network from disk...")
	loaded, err := saver.LoadModel(filename, network.Cost(), 0)
	if err != nil {
		fmt.Printf("Error loading network: %v\n", err)
		return
	}

	reloaded, err := loaded.FeedForward(inputs)
	if err != nil {
		fail(err)
	}

	allMatch := true
	for i := 0; i < 4; i++ {
		for j := 0; j < 3; j++ {
			if math.Abs(predictions.At(i, j)-reloaded.At(i, j)) > 1e-12 {
				allMatch = false
			}
		}
	}
	if allMatch {
		fmt.Println("\nSUCCESS: All predictions match between original and loaded network!")
	} else {
		fmt.Println("\nFAILURE: Predictions differ between original and loaded network!")
	}
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "xor: %v\n", err)
	os.Exit(1)
}
