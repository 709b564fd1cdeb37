package analysis

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/wastesort/wastesort/internal/classifier"
	"github.com/wastesort/wastesort/internal/metrics"
	"github.com/wastesort/wastesort/internal/preprocess"
	"github.com/wastesort/wastesort/internal/recommend"
)

// ErrNoInput is returned when analysis is requested without an image. It is a
// prompt for the user, not a failure.
var ErrNoInput = errors.New("please upload an image first")

type Classifier interface {
	Classify(t *preprocess.Tensor) (classifier.Prediction, error)
}

type Recommender interface {
	Recommend(label string) string
}

type Result struct {
	ID             string             `json:"id"`
	Label          string             `json:"label"`
	DisplayLabel   string             `json:"waste_type"`
	Confidence     float32            `json:"confidence"`
	ConfidenceText string             `json:"confidence_text"`
	Action         string             `json:"recommended_action"`
	Method         string             `json:"r_method,omitempty"`
	Format         string             `json:"format"`
	Width          int                `json:"width"`
	Height         int                `json:"height"`
	Scores         map[string]float32 `json:"scores"`
}

type Analyzer struct {
	preprocessor *preprocess.Preprocessor
	classifier   Classifier
	recommender  Recommender
	metrics      *metrics.Metrics
}

func New(p *preprocess.Preprocessor, c Classifier, r Recommender, m *metrics.Metrics) *Analyzer {
	return &Analyzer{
		preprocessor: p,
		classifier:   c,
		recommender:  r,
		metrics:      m,
	}
}

// Analyze runs one image through decode, normalization, inference and the
// recommendation lookup. Failures keep their kind: ErrNoInput,
// *preprocess.DecodeError, *classifier.InferenceError or
// *classifier.ConfigurationError.
func (a *Analyzer) Analyze(data []byte) (*Result, error) {
	id := uuid.New().String()

	if len(data) == 0 {
		a.metrics.Outcome(metrics.OutcomeNoInput)
		return nil, ErrNoInput
	}

	started := time.Now()
	tensor, img, format, err := a.preprocessor.DecodeAndNormalize(data)
	a.metrics.Stage("preprocess", started)
	if err != nil {
		a.metrics.Outcome(metrics.OutcomeDecodeError)
		log.Printf("[%s] Decode error (%d bytes): %v", id, len(data), err)
		return nil, err
	}

	bounds := img.Bounds()
	log.Printf("[%s] Image format: %s, dimensions: %dx%d", id, format, bounds.Dx(), bounds.Dy())

	started = time.Now()
	prediction, err := a.classifier.Classify(tensor)
	a.metrics.Stage("inference", started)
	if err != nil {
		var cfgErr *classifier.ConfigurationError
		if errors.As(err, &cfgErr) {
			a.metrics.Outcome(metrics.OutcomeConfigError)
			log.Printf("[%s] CONFIGURATION ERROR: %v", id, err)
		} else {
			a.metrics.Outcome(metrics.OutcomeInference)
			log.Printf("[%s] Prediction error: %v", id, err)
		}
		return nil, err
	}

	action := a.recommender.Recommend(prediction.Label)
	a.metrics.Outcome(metrics.OutcomeSuccess)
	a.metrics.Prediction(prediction.Label, prediction.Confidence)
	log.Printf("[%s] Predicted %q (%.4f) -> %s", id, prediction.Label, prediction.Confidence, action)

	return &Result{
		ID:             id,
		Label:          prediction.Label,
		DisplayLabel:   TitleCase(prediction.Label),
		Confidence:     prediction.Confidence,
		ConfidenceText: FormatConfidence(prediction.Confidence),
		Action:         action,
		Method:         recommend.Method(action),
		Format:         format,
		Width:          bounds.Dx(),
		Height:         bounds.Dy(),
		Scores:         prediction.Scores,
	}, nil
}

// FormatConfidence renders a probability as a percentage with two decimals.
func FormatConfidence(confidence float32) string {
	return fmt.Sprintf("%.2f%%", float64(confidence)*100)
}
