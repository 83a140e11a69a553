// Package classifier scores job descriptions with a TF-IDF vectorizer and a
// logistic regression model, both loaded from YAML artifacts.
package classifier

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Rnaveennithyakalyan/jobshield-telegram-bot/core"
)

// Pipeline pairs a vectorizer with the model trained on its output.
type Pipeline struct {
	vec   *Vectorizer
	model *Model
}

// New validates the pair and returns a ready pipeline.
func New(vec *Vectorizer, model *Model) (*Pipeline, error) {
	if err := vec.validate(); err != nil {
		return nil, fmt.Errorf("vectorizer: %w", err)
	}
	if err := model.validate(vec.Features()); err != nil {
		return nil, fmt.Errorf("model: %w", err)
	}
	return &Pipeline{vec: vec, model: model}, nil
}

// Load reads both artifacts from disk. Any failure is a
// *core.ConfigurationError naming the artifact at fault.
func Load(modelPath, vectorizerPath string) (*Pipeline, error) {
	var vec Vectorizer
	if err := decodeFile(vectorizerPath, &vec); err != nil {
		return nil, &core.ConfigurationError{Field: "vectorizer_path", Err: err}
	}
	if err := vec.validate(); err != nil {
		return nil, &core.ConfigurationError{Field: "vectorizer_path", Err: err}
	}

	var model Model
	if err := decodeFile(modelPath, &model); err != nil {
		return nil, &core.ConfigurationError{Field: "model_path", Err: err}
	}
	if err := model.validate(vec.Features()); err != nil {
		return nil, &core.ConfigurationError{Field: "model_path", Err: err}
	}

	return &Pipeline{vec: &vec, model: &model}, nil
}

// Classify implements core.Classifier.
func (p *Pipeline) Classify(ctx context.Context, text string) (core.Classification, error) {
	if err := ctx.Err(); err != nil {
		return core.Classification{}, err
	}
	prob := p.model.Probability(p.vec.Transform(text))
	return core.Classification{Label: p.model.Predict(prob), Probability: prob}, nil
}

func decodeFile(path string, out any) error {
	if path == "" {
		return fmt.Errorf("path is empty")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read artifact: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("parse artifact %s: %w", path, err)
	}
	return nil
}
