package main

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/FlavioCFOliveira/backprop/internal/cost"
	"github.com/FlavioCFOliveira/backprop/internal/descent"
	"github.com/FlavioCFOliveira/backprop/internal/opt"
	"gonum.org/v1/gonum/mat"
)

// Regression examples: fitting coefficients directly through the
// closed-form cost, with gradient descent, SGD and Newton's method.
func main() {
	rng := rand.New(rand.NewSource(42))

	fmt.Println("=== Closed-form Regression Examples ===")

	// Example 1: cubic polynomial, three solvers
	fmt.Println("Example 1: y = 1 - 2x + 0.5x^3 + noise")
	examplePolynomial(rng)

	// Example 2: logistic regression on two noisy clusters
	fmt.Println("\nExample 2: logistic regression on two clusters")
	exampleLogistic(rng)
}

func examplePolynomial(rng *rand.Rand) {
	const degree = 3
	xTrain, yTrain := polynomialData(rng, 80, degree)
	xTest, yTest := polynomialData(rng, 20, degree)

	start := mat.NewVecDense(degree+1, nil)

	gd, err := descent.GD(cost.NewLinearRegression(xTrain, yTrain, xTest, yTest, 0), start, descent.Options{
		Epochs:   2000,
		Schedule: opt.Constant(0.3),
	})
	if err != nil {
		fmt.Printf("  GD failed: %v\n", err)
		return
	}
	report("GD", gd, cost.NewLinearRegression(xTrain, yTrain, xTest, yTest, 0))

	sgd, err := descent.SGD(cost.NewLinearRegression(xTrain, yTrain, xTest, yTest, 0), start, descent.Options{
		Epochs:        200,
		Schedule:      opt.InverseTime{T0: 5, T1: 50},
		MinibatchSize: 8,
	}, rng)
	if err != nil {
		fmt.Printf("  SGD failed: %v\n", err)
		return
	}
	report("SGD", sgd, cost.NewLinearRegression(xTrain, yTrain, xTest, yTest, 0))

	newton, err := descent.Newton(cost.NewLinearRegression(xTrain, yTrain, xTest, yTest, 0), start, descent.Options{Epochs: 1})
	if err != nil {
		fmt.Printf("  Newton failed: %v\n", err)
		return
	}
	report("Newton", newton, cost.NewLinearRegression(xTrain, yTrain, xTest, yTest, 0))
}

func exampleLogistic(rng *rand.Rand) {
	xTrain, yTrain := clusterData(rng, 100)
	xTest, yTest := clusterData(rng, 40)
	c := cost.NewLogisticRegression(xTrain, yTrain, xTest, yTest, 0.001)

	res, err := descent.SGD(c, mat.NewVecDense(3, nil), descent.Options{
		Epochs:        100,
		Schedule:      opt.StepLR{Initial: 0.5, StepSize: 500, Gamma: 0.5},
		MinibatchSize: 10,
	}, rng)
	if err != nil {
		fmt.Printf("  SGD failed: %v\n", err)
		return
	}
	fmt.Printf("  beta=%.4f\n", mat.Formatted(res.Beta.T()))
	fmt.Printf("  cost=%.6f, test accuracy=%.3f\n", res.Costs[len(res.Costs)-1], c.TestError(res.Beta))
}

func report(name string, res *descent.Result, c *cost.LinearRegression) {
	fmt.Printf("  %-7s epochs=%4d beta=%.4f test MSE=%.6f\n",
		name, res.Epochs, mat.Formatted(res.Beta.T()), c.TestError(res.Beta))
}

// polynomialData builds a Vandermonde design matrix for x in [-1, 1].
func polynomialData(rng *rand.Rand, n, degree int) (*mat.Dense, *mat.VecDense) {
	x := mat.NewDense(n, degree+1, nil)
	y := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		xi := rng.Float64()*2 - 1
		for p := 0; p <= degree; p++ {
			x.Set(i, p, math.Pow(xi, float64(p)))
		}
		y.SetVec(i, 1-2*xi+0.5*xi*xi*xi+rng.NormFloat64()*0.05)
	}
	return x, y
}

// clusterData draws two Gaussian clusters around (-1, -1) and (1, 1).
func clusterData(rng *rand.Rand, n int) (*mat.Dense, *mat.VecDense) {
	x := mat.NewDense(n, 3, nil)
	y := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		label := float64(i % 2)
		center := 2*label - 1
		x.Set(i, 0, 1)
		x.Set(i, 1, center+rng.NormFloat64())
		x.Set(i, 2, center+rng.NormFloat64())
		y.SetVec(i, label)
	}
	return x, y
}
