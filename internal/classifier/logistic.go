package classifier

import (
	"errors"
	"math"
)

// logisticModel is a binary logistic regression with per-feature
// z-score standardization baked into the artifact so inference applies
// exactly the transform training saw.
type logisticModel struct {
	Weights []float64 `json:"weights"`
	Bias    float64   `json:"bias"`
	Means   []float64 `json:"means"`
	Stddevs []float64 `json:"stddevs"`
}

const (
	trainEpochs       = 500
	trainLearningRate = 0.1
)

// fitLogistic trains by full-batch gradient descent. Inputs must be
// non-empty and rectangular.
func fitLogistic(features [][]float64, labels []int) (*logisticModel, error) {
	if len(features) == 0 || len(features) != len(labels) {
		return nil, errors.New("training set is empty or misshapen")
	}

	dim := len(features[0])
	m := &logisticModel{
		Weights: make([]float64, dim),
		Means:   make([]float64, dim),
		Stddevs: make([]float64, dim),
	}
	m.fitScaling(features)

	scaled := make([][]float64, len(features))
	for i, row := range features {
		scaled[i] = m.scale(row)
	}

	n := float64(len(scaled))
	for epoch := 0; epoch < trainEpochs; epoch++ {
		gradW := make([]float64, dim)
		var gradB float64

		for i, row := range scaled {
			p := m.probaScaled(row)
			err := p - float64(labels[i])
			for j, v := range row {
				gradW[j] += err * v
			}
			gradB += err
		}

		for j := range m.Weights {
			m.Weights[j] -= trainLearningRate * gradW[j] / n
		}
		m.Bias -= trainLearningRate * gradB / n
	}

	return m, nil
}

func (m *logisticModel) fitScaling(features [][]float64) {
	n := float64(len(features))
	for _, row := range features {
		for j, v := range row {
			m.Means[j] += v
		}
	}
	for j := range m.Means {
		m.Means[j] /= n
	}
	for _, row := range features {
		for j, v := range row {
			d := v - m.Means[j]
			m.Stddevs[j] += d * d
		}
	}
	for j := range m.Stddevs {
		m.Stddevs[j] = math.Sqrt(m.Stddevs[j] / n)
		if m.Stddevs[j] < 1e-9 {
			m.Stddevs[j] = 1
		}
	}
}

func (m *logisticModel) scale(row []float64) []float64 {
	scaled := make([]float64, len(row))
	for j, v := range row {
		scaled[j] = (v - m.Means[j]) / m.Stddevs[j]
	}
	return scaled
}

func (m *logisticModel) proba(row []float64) float64 {
	return m.probaScaled(m.scale(row))
}

func (m *logisticModel) probaScaled(row []float64) float64 {
	z := m.Bias
	for j, v := range row {
		z += m.Weights[j] * v
	}
	return 1.0 / (1.0 + math.Exp(-z))
}

// valid reports whether the artifact shape matches the feature contract.
func (m *logisticModel) valid() bool {
	return len(m.Weights) == FeatureCount &&
		len(m.Means) == FeatureCount &&
		len(m.Stddevs) == FeatureCount
}
