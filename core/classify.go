package core

import "context"

// Classification is the classifier's verdict for one text: Label 1 marks a
// likely fake posting, Probability is the fake-class probability in [0,1].
type Classification struct {
	Label       int
	Probability float64
}

// Classifier scores free text.
type Classifier interface {
	Classify(ctx context.Context, text string) (Classification, error)
}

// ClassifierFunc adapts a function to the Classifier interface.
type ClassifierFunc func(ctx context.Context, text string) (Classification, error)

func (f ClassifierFunc) Classify(ctx context.Context, text string) (Classification, error) {
	return f(ctx, text)
}
