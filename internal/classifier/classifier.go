package classifier

import (
	"errors"
	"log"

	"github.com/wastesort/wastesort/internal/preprocess"
)

var (
	errNilTensor = errors.New("no input tensor")
	errNoLabels  = errors.New("classifier needs at least one label")
)

// Predictor is the only capability the classifier needs from a model:
// a flat NHWC input in, one probability per class out.
type Predictor interface {
	Predict(input []float32) ([]float32, error)
}

// sizedPredictor is implemented by backends that know their output length
// before the first call, which lets New reject a mismatched label file.
type sizedPredictor interface {
	OutputSize() int
}

type Prediction struct {
	Index      int
	Label      string
	Confidence float32
	Scores     map[string]float32
}

type Classifier struct {
	predictor Predictor
	labels    Labels
}

func New(predictor Predictor, labels Labels) (*Classifier, error) {
	if len(labels) == 0 {
		return nil, errNoLabels
	}
	if sized, ok := predictor.(sizedPredictor); ok {
		if n := sized.OutputSize(); n != len(labels) {
			return nil, &ConfigurationError{Labels: len(labels), Outputs: n}
		}
	}
	return &Classifier{
		predictor: predictor,
		labels:    append(Labels(nil), labels...),
	}, nil
}

func (c *Classifier) Labels() Labels {
	return append(Labels(nil), c.labels...)
}

// Classify runs the model and picks the most probable class. Ties resolve to
// the lowest index. Confidence is the raw model output for that class.
func (c *Classifier) Classify(t *preprocess.Tensor) (Prediction, error) {
	if t == nil {
		return Prediction{}, &InferenceError{Err: errNilTensor}
	}

	probs, err := c.predictor.Predict(t.Data)
	if err != nil {
		return Prediction{}, &InferenceError{Err: err}
	}
	if len(probs) != len(c.labels) {
		return Prediction{}, &ConfigurationError{Labels: len(c.labels), Outputs: len(probs)}
	}

	idx := Argmax(probs)
	confidence := probs[idx]
	if confidence < 0 || confidence > 1 {
		log.Printf("Warning: confidence %f for %q is outside [0, 1]; model output may not be a softmax", confidence, c.labels[idx])
	}

	return Prediction{
		Index:      idx,
		Label:      c.labels[idx],
		Confidence: confidence,
		Scores:     c.scores(probs),
	}, nil
}

func (c *Classifier) scores(probs []float32) map[string]float32 {
	scores := make(map[string]float32, len(probs))
	for i, p := range probs {
		scores[c.labels[i]] = p
	}
	return scores
}

// Argmax returns the index of the first maximum of values. It panics on an
// empty slice.
func Argmax(values []float32) int {
	maxIdx := 0
	maxVal := values[0]
	for i, v := range values {
		if v > maxVal {
			maxVal = v
			maxIdx = i
		}
	}
	return maxIdx
}
