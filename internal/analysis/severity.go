package analysis

import (
	"errors"

	"github.com/wastesort/wastesort/internal/classifier"
	"github.com/wastesort/wastesort/internal/preprocess"
)

type Severity int

const (
	SeverityNone Severity = iota
	// SeverityWarning asks the user to act; nothing failed.
	SeverityWarning
	// SeverityError is a failure of this request only.
	SeverityError
	// SeverityFatal means the deployment itself is broken.
	SeverityFatal
)

func (s Severity) String() string {
	switch s {
	case SeverityNone:
		return "success"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "fatal"
	}
}

// SeverityOf classifies an error returned by Analyze.
// Decode and inference failures, like anything unexpected, are errors.
func SeverityOf(err error) Severity {
	var cfgErr *classifier.ConfigurationError
	switch {
	case err == nil:
		return SeverityNone
	case errors.Is(err, ErrNoInput):
		return SeverityWarning
	case errors.As(err, &cfgErr):
		return SeverityFatal
	default:
		return SeverityError
	}
}

// UserMessage is the text shown to the user for err, including the cause.
func UserMessage(err error) string {
	var (
		decodeErr *preprocess.DecodeError
		infErr    *classifier.InferenceError
		cfgErr    *classifier.ConfigurationError
	)
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNoInput):
		return "Please upload an image first."
	case errors.As(err, &decodeErr):
		return "Unable to process the image. Details: " + decodeErr.Error()
	case errors.As(err, &infErr):
		return "The model could not analyze this image. Details: " + infErr.Error()
	case errors.As(err, &cfgErr):
		return "The classifier is misconfigured. Details: " + cfgErr.Error()
	default:
		return "Unexpected error. Details: " + err.Error()
	}
}
