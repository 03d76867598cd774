// Package training fits and persists one forward-price regressor per asset.
package training

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/aristath/pricecast/internal/domain"
	"github.com/aristath/pricecast/pkg/formulas"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// ErrSingularSystem is returned when the normal equations cannot be factorized.
// A positive ridge penalty always avoids it.
var ErrSingularSystem = errors.New("normal equations are singular")

// Regressor maps a feature vector (domain.FeatureNames order) to a predicted price
type Regressor interface {
	Predict(features []float64) (float64, error)
}

// Metrics are held-out evaluation results, reported for observability only
type Metrics struct {
	MAE       float64 `msgpack:"mae" json:"mae"`
	R2        float64 `msgpack:"r2" json:"r2"`
	TrainSize int     `msgpack:"train_size" json:"train_size"`
	TestSize  int     `msgpack:"test_size" json:"test_size"`
}

// MarshalJSON reports non-finite metrics (for example R² over a constant test target) as null
func (m Metrics) MarshalJSON() ([]byte, error) {
	optional := func(v float64) *float64 {
		if !domain.IsFinite(v) {
			return nil
		}
		return &v
	}
	return json.Marshal(struct {
		MAE       *float64 `json:"mae"`
		R2        *float64 `json:"r2"`
		TrainSize int      `json:"train_size"`
		TestSize  int      `json:"test_size"`
	}{optional(m.MAE), optional(m.R2), m.TrainSize, m.TestSize})
}

// LinearModel is a ridge-regularized least squares fit on standardized features
type LinearModel struct {
	AssetID      string    `msgpack:"asset_id"`
	FeatureNames []string  `msgpack:"feature_names"`
	Means        []float64 `msgpack:"means"`
	Scales       []float64 `msgpack:"scales"`
	Coefficients []float64 `msgpack:"coefficients"`
	Intercept    float64   `msgpack:"intercept"`
	Lambda       float64   `msgpack:"lambda"`
	TrainedAt    time.Time `msgpack:"trained_at"`
	Metrics      Metrics   `msgpack:"metrics"`
}

var _ Regressor = (*LinearModel)(nil)

// Fit solves (ZᵀZ + λ·n·I)β = Zᵀ(y - ȳ) where Z is the standardized design matrix.
// Constant columns get unit scale, so they contribute nothing to the fit.
func Fit(x [][]float64, y []float64, lambda float64) (*LinearModel, error) {
	n := len(x)
	if n == 0 || n != len(y) {
		return nil, fmt.Errorf("fit needs matching non-empty inputs, got %d rows and %d targets", n, len(y))
	}
	p := len(x[0])

	means := make([]float64, p)
	scales := make([]float64, p)
	col := make([]float64, n)
	for j := 0; j < p; j++ {
		for i := 0; i < n; i++ {
			if len(x[i]) != p {
				return nil, fmt.Errorf("row %d has %d features, expected %d", i, len(x[i]), p)
			}
			col[i] = x[i][j]
		}
		mean, std := stat.PopMeanStdDev(col, nil)
		means[j] = mean
		if std == 0 || math.IsNaN(std) {
			std = 1
		}
		scales[j] = std
	}

	z := mat.NewDense(n, p, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < p; j++ {
			z.Set(i, j, (x[i][j]-means[j])/scales[j])
		}
	}

	yMean := stat.Mean(y, nil)
	yc := mat.NewVecDense(n, nil)
	for i, v := range y {
		yc.SetVec(i, v-yMean)
	}

	var gram mat.SymDense
	gram.SymOuterK(1, z.T())
	for j := 0; j < p; j++ {
		gram.SetSym(j, j, gram.At(j, j)+lambda*float64(n))
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(&gram); !ok {
		return nil, ErrSingularSystem
	}

	var rhs mat.VecDense
	rhs.MulVec(z.T(), yc)

	var beta mat.VecDense
	if err := chol.SolveVecTo(&beta, &rhs); err != nil {
		return nil, fmt.Errorf("failed to solve normal equations: %w", err)
	}

	coefficients := make([]float64, p)
	for j := range coefficients {
		coefficients[j] = beta.AtVec(j)
	}

	return &LinearModel{
		FeatureNames: append([]string(nil), domain.FeatureNames...),
		Means:        means,
		Scales:       scales,
		Coefficients: coefficients,
		Intercept:    yMean,
		Lambda:       lambda,
	}, nil
}

// Predict returns the forward price estimate for one feature vector
func (m *LinearModel) Predict(features []float64) (float64, error) {
	if len(features) != len(m.Coefficients) {
		return 0, fmt.Errorf("model expects %d features, got %d", len(m.Coefficients), len(features))
	}

	pred := m.Intercept
	for j, v := range features {
		pred += m.Coefficients[j] * (v - m.Means[j]) / m.Scales[j]
	}
	if !domain.IsFinite(pred) {
		return 0, fmt.Errorf("prediction is not finite")
	}
	return pred, nil
}

// Evaluate computes MAE and R² of the model on held-out rows
func Evaluate(m Regressor, x [][]float64, y []float64) (mae, r2 float64, err error) {
	predicted := make([]float64, len(x))
	for i, row := range x {
		if predicted[i], err = m.Predict(row); err != nil {
			return 0, 0, err
		}
	}

	mae = formulas.MeanAbsoluteError(y, predicted)
	r2 = stat.RSquaredFrom(predicted, y, nil)
	return mae, r2, nil
}
