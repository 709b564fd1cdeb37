package analysis

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"strings"
	"testing"

	"github.com/wastesort/wastesort/internal/classifier"
	"github.com/wastesort/wastesort/internal/metrics"
	"github.com/wastesort/wastesort/internal/preprocess"
	"github.com/wastesort/wastesort/internal/recommend"
)

type stubModel struct {
	probs []float32
	err   error
	calls int
}

func (s *stubModel) Predict(input []float32) ([]float32, error) {
	s.calls++
	if len(input) != preprocess.DefaultSize*preprocess.DefaultSize*preprocess.Channels {
		return nil, errors.New("unexpected input length")
	}
	return s.probs, s.err
}

func bottleJPEG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 500, 500))
	for y := 0; y < 500; y++ {
		for x := 0; x < 500; x++ {
			img.Set(x, y, color.RGBA{R: 30, G: uint8(100 + x%50), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func newAnalyzer(t *testing.T, model *stubModel, labels classifier.Labels) *Analyzer {
	t.Helper()
	c, err := classifier.New(model, labels)
	if err != nil {
		t.Fatalf("classifier.New: %v", err)
	}
	return New(
		preprocess.NewPreprocessor(preprocess.DefaultSize),
		c,
		recommend.NewResolver(recommend.DefaultMap()),
		metrics.New(),
	)
}

func TestAnalyzePlasticBottle(t *testing.T) {
	model := &stubModel{probs: []float32{0.92, 0.05, 0.03}}
	a := newAnalyzer(t, model, classifier.Labels{"plastic", "paper", "glass"})

	res, err := a.Analyze(bottleJPEG(t))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if res.DisplayLabel != "Plastic" {
		t.Errorf("DisplayLabel = %q", res.DisplayLabel)
	}
	if res.ConfidenceText != "92.00%" {
		t.Errorf("ConfidenceText = %q", res.ConfidenceText)
	}
	if res.Action != "Recycle ♻️" {
		t.Errorf("Action = %q", res.Action)
	}
	if res.Method != "Recycle" {
		t.Errorf("Method = %q", res.Method)
	}
	if res.Format != "jpeg" || res.Width != 500 || res.Height != 500 {
		t.Errorf("image = %s %dx%d", res.Format, res.Width, res.Height)
	}
	if res.ID == "" {
		t.Error("missing request ID")
	}
	if SeverityOf(err) != SeverityNone {
		t.Errorf("severity = %v", SeverityOf(err))
	}
}

func TestAnalyzeUnknownLabel(t *testing.T) {
	model := &stubModel{probs: []float32{0.1, 0.8, 0.1}}
	a := newAnalyzer(t, model, classifier.Labels{"plastic", "unknown_material", "glass"})

	res, err := a.Analyze(bottleJPEG(t))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if res.Action != "Dispose Responsibly ♻️" {
		t.Errorf("Action = %q", res.Action)
	}
	if res.DisplayLabel != "Unknown_Material" {
		t.Errorf("DisplayLabel = %q", res.DisplayLabel)
	}
	if res.Method != "" {
		t.Errorf("Method = %q", res.Method)
	}
}

func TestAnalyzeCorruptedImage(t *testing.T) {
	model := &stubModel{probs: []float32{1}}
	a := newAnalyzer(t, model, classifier.Labels{"plastic"})

	data := bottleJPEG(t)[:20]
	_, err := a.Analyze(append(data, []byte("garbage")...))

	var decodeErr *preprocess.DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("err = %v, want *preprocess.DecodeError", err)
	}
	if SeverityOf(err) != SeverityError {
		t.Errorf("severity = %v", SeverityOf(err))
	}
	if msg := UserMessage(err); !strings.Contains(msg, "Unable to process the image") || !strings.Contains(msg, "Details:") {
		t.Errorf("message = %q", msg)
	}
	if model.calls != 0 {
		t.Errorf("model called %d times", model.calls)
	}
}

func TestAnalyzeNoInput(t *testing.T) {
	model := &stubModel{probs: []float32{1}}
	a := newAnalyzer(t, model, classifier.Labels{"plastic"})

	_, err := a.Analyze(nil)
	if !errors.Is(err, ErrNoInput) {
		t.Fatalf("err = %v, want ErrNoInput", err)
	}
	if SeverityOf(err) != SeverityWarning {
		t.Errorf("severity = %v", SeverityOf(err))
	}
	if model.calls != 0 {
		t.Errorf("model called %d times", model.calls)
	}
}

func TestAnalyzeInferenceFailure(t *testing.T) {
	model := &stubModel{err: errors.New("onnxruntime: invalid argument")}
	a := newAnalyzer(t, model, classifier.Labels{"plastic"})

	_, err := a.Analyze(bottleJPEG(t))
	var infErr *classifier.InferenceError
	if !errors.As(err, &infErr) {
		t.Fatalf("err = %v, want *classifier.InferenceError", err)
	}
	if SeverityOf(err) != SeverityError {
		t.Errorf("severity = %v", SeverityOf(err))
	}
	if !strings.Contains(UserMessage(err), "invalid argument") {
		t.Errorf("message lacks cause: %q", UserMessage(err))
	}
}

func TestAnalyzeConfigurationError(t *testing.T) {
	model := &stubModel{probs: []float32{0.5, 0.5}}
	a := newAnalyzer(t, model, classifier.Labels{"plastic", "paper", "glass"})

	_, err := a.Analyze(bottleJPEG(t))
	var cfgErr *classifier.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("err = %v, want *classifier.ConfigurationError", err)
	}
	if SeverityOf(err) != SeverityFatal {
		t.Errorf("severity = %v", SeverityOf(err))
	}
}

func TestFormatConfidence(t *testing.T) {
	cases := map[float32]string{
		0.92:    "92.00%",
		1:       "100.00%",
		0:       "0.00%",
		0.12345: "12.35%",
	}
	for in, want := range cases {
		if got := FormatConfidence(in); got != want {
			t.Errorf("FormatConfidence(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestTitleCase(t *testing.T) {
	cases := map[string]string{
		"plastic":          "Plastic",
		"e-waste":          "E-Waste",
		"unknown_material": "Unknown_Material",
		"GLASS":            "Glass",
		"food waste":       "Food Waste",
		"":                 "",
	}
	for in, want := range cases {
		if got := TitleCase(in); got != want {
			t.Errorf("TitleCase(%q) = %q, want %q", in, got, want)
		}
	}
}
