package classifier

import "fmt"

// ConfigurationError means the model and the label file do not belong
// together. It is not recoverable at request time.
type ConfigurationError struct {
	Labels  int
	Outputs int
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("model produces %d outputs but %d labels are loaded", e.Outputs, e.Labels)
}

// InferenceError wraps a failure reported by the model runtime.
type InferenceError struct {
	Err error
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("inference failed: %v", e.Err)
}

func (e *InferenceError) Unwrap() error {
	return e.Err
}
