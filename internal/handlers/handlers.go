package handlers

import (
	"embed"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log"
	"net/http"

	"github.com/wastesort/wastesort/internal/analysis"
	"github.com/wastesort/wastesort/internal/classifier"
	"github.com/wastesort/wastesort/internal/preprocess"
)

//go:embed templates/index.html
var templateFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

const DefaultMaxUploadBytes = 10 << 20

// Info is reported by the health endpoint.
type Info struct {
	Model     string   `json:"model"`
	ImageSize int      `json:"image_size"`
	Classes   []string `json:"classes"`
}

type Handler struct {
	analyzer       *analysis.Analyzer
	classifier     *classifier.Classifier
	info           Info
	maxUploadBytes int64
}

func NewHandler(analyzer *analysis.Analyzer, c *classifier.Classifier, info Info, maxUploadBytes int64) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}
	return &Handler{
		analyzer:       analyzer,
		classifier:     c,
		info:           info,
		maxUploadBytes: maxUploadBytes,
	}
}

// Routes registers every endpoint on a fresh mux.
func (h *Handler) Routes(metrics http.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", h.Index)
	mux.HandleFunc("/analyze", h.Analyze)
	mux.HandleFunc("/health", EnableCORS(h.Health))
	mux.HandleFunc("/predict", EnableCORS(h.Predict))
	mux.HandleFunc("/predict/image", EnableCORS(h.PredictFromImage))
	if metrics != nil {
		mux.Handle("/metrics", metrics)
	}
	return mux
}

func EnableCORS(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "healthy",
		"model":  h.info,
	})
}

// PredictionRequest carries an already normalized (1, H, W, 3) tensor.
type PredictionRequest struct {
	Image []float32 `json:"image"`
}

type PredictionResponse struct {
	Class       string             `json:"class"`
	Confidence  float32            `json:"confidence"`
	Predictions map[string]float32 `json:"predictions"`
}

type errorResponse struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

// Predict classifies a raw tensor posted as JSON, bypassing image decoding.
func (h *Handler) Predict(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxUploadBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "error", "Failed to read request body")
		return
	}

	var req PredictionRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "error", "Invalid JSON")
		return
	}

	tensor := preprocess.NewTensor(h.info.ImageSize)
	if len(req.Image) != len(tensor.Data) {
		writeError(w, http.StatusBadRequest, "error",
			fmt.Sprintf("Expected %d values, got %d", len(tensor.Data), len(req.Image)))
		return
	}
	copy(tensor.Data, req.Image)
	if err := tensor.Validate(h.info.ImageSize); err != nil {
		writeError(w, http.StatusBadRequest, "error", err.Error())
		return
	}

	prediction, err := h.classifier.Classify(tensor)
	if err != nil {
		log.Printf("Prediction error: %v", err)
		writeError(w, http.StatusInternalServerError, analysis.SeverityOf(err).String(), analysis.UserMessage(err))
		return
	}

	writeJSON(w, http.StatusOK, PredictionResponse{
		Class:       prediction.Label,
		Confidence:  prediction.Confidence,
		Predictions: prediction.Scores,
	})
}

// PredictFromImage is the JSON form of Analyze.
func (h *Handler) PredictFromImage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	data, err := h.readUpload(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "error", err.Error())
		return
	}

	result, err := h.analyzer.Analyze(data)
	if err != nil {
		status := statusFor(err)
		if errors.Is(err, analysis.ErrNoInput) {
			status = http.StatusBadRequest
		}
		writeError(w, status, analysis.SeverityOf(err).String(), analysis.UserMessage(err))
		return
	}

	writeJSON(w, http.StatusOK, result)
}

type page struct {
	Status  string
	Message string
	Result  *analysis.Result
	Preview template.URL
}

func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	render(w, http.StatusOK, page{})
}

// Analyze handles the form submission and renders the page with a success,
// warning or error state. Failures never escape as panics.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	data, err := h.readUpload(w, r)
	if err != nil {
		render(w, http.StatusBadRequest, page{Status: "error", Message: err.Error()})
		return
	}

	result, err := h.analyzer.Analyze(data)
	p := page{Result: result}
	if err != nil {
		p.Status = analysis.SeverityOf(err).String()
		p.Message = analysis.UserMessage(err)
	} else {
		p.Status = analysis.SeverityNone.String()
	}

	var decodeErr *preprocess.DecodeError
	if len(data) > 0 && !errors.As(err, &decodeErr) {
		p.Preview = dataURI(data)
	}

	render(w, statusFor(err), p)
}

// readUpload returns the bytes of the "image" form field. A request without
// that field, or without a multipart body at all, yields nil data and no error.
func (h *Handler) readUpload(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, fmt.Errorf("Upload exceeds %d bytes", h.maxUploadBytes)
		}
		return nil, fmt.Errorf("Failed to parse form: %v", err)
	}

	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Failed to read upload: %v", err)
	}
	defer file.Close()

	log.Printf("Received file: %s, size: %d bytes", header.Filename, header.Size)

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("Failed to read upload: %v", err)
	}
	return data, nil
}

func statusFor(err error) int {
	switch analysis.SeverityOf(err) {
	case analysis.SeverityNone, analysis.SeverityWarning:
		return http.StatusOK
	case analysis.SeverityFatal:
		return http.StatusInternalServerError
	}
	var decodeErr *preprocess.DecodeError
	if errors.As(err, &decodeErr) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func dataURI(data []byte) template.URL {
	contentType := http.DetectContentType(data)
	return template.URL("data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data))
}

func render(w http.ResponseWriter, status int, p page) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := indexTemplate.Execute(w, p); err != nil {
		log.Printf("Template error: %v", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Encode error: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, severity, message string) {
	writeJSON(w, status, errorResponse{Status: severity, Error: message})
}
