package classifier

import (
	"errors"
	"fmt"
	"math"
)

const kindLogistic = "logistic_regression"

// Model is a binary linear classifier over vectorizer columns.
type Model struct {
	Kind         string    `yaml:"kind"`
	Intercept    float64   `yaml:"intercept"`
	Coefficients []float64 `yaml:"coefficients"`
	Threshold    float64   `yaml:"threshold"`
}

func (m *Model) validate(features int) error {
	if m.Kind == "" {
		m.Kind = kindLogistic
	}
	if m.Kind != kindLogistic {
		return fmt.Errorf("unsupported model kind %q", m.Kind)
	}
	if len(m.Coefficients) == 0 {
		return errors.New("model has no coefficients")
	}
	if len(m.Coefficients) != features {
		return fmt.Errorf("model has %d coefficients, vectorizer has %d features",
			len(m.Coefficients), features)
	}
	if m.Threshold == 0 {
		m.Threshold = 0.5
	}
	if m.Threshold <= 0 || m.Threshold >= 1 {
		return fmt.Errorf("threshold must be in (0,1), got %v", m.Threshold)
	}
	return nil
}

// Probability returns the fake-class probability for a vector.
func (m *Model) Probability(x map[int]float64) float64 {
	z := m.Intercept
	for col, v := range x {
		z += m.Coefficients[col] * v
	}
	return 1 / (1 + math.Exp(-z))
}

// Predict maps a probability to a class label. A probability equal to the
// threshold is labelled 0.
func (m *Model) Predict(p float64) int {
	if p > m.Threshold {
		return 1
	}
	return 0
}
