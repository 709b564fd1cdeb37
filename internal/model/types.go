package model

import "fmt"

// Metadata describes the exported ONNX graph. It is shipped next to the
// model file as JSON.
type Metadata struct {
	InputName   string  `json:"input_name"`
	OutputName  string  `json:"output_name"`
	InputShape  []int64 `json:"input_shape"`
	OutputShape []int64 `json:"output_shape"`
	ImageSize   int     `json:"image_size"`
}

func (m *Metadata) applyDefaults() {
	if m.InputName == "" {
		m.InputName = "input"
	}
	if m.OutputName == "" {
		m.OutputName = "output"
	}
	if m.ImageSize == 0 && len(m.InputShape) == 4 {
		m.ImageSize = int(m.InputShape[1])
	}
}

func (m *Metadata) validate() error {
	if len(m.InputShape) != 4 || m.InputShape[0] != 1 || m.InputShape[3] != 3 {
		return fmt.Errorf("input shape %v, expected [1 H W 3]", m.InputShape)
	}
	if m.InputShape[1] != m.InputShape[2] {
		return fmt.Errorf("input shape %v is not square", m.InputShape)
	}
	if m.ImageSize != int(m.InputShape[1]) {
		return fmt.Errorf("image size %d disagrees with input shape %v", m.ImageSize, m.InputShape)
	}
	if len(m.OutputShape) == 0 || m.OutputShape[0] != 1 {
		return fmt.Errorf("output shape %v, expected a batch of one", m.OutputShape)
	}
	for _, shape := range [][]int64{m.InputShape, m.OutputShape} {
		for _, d := range shape {
			if d <= 0 {
				return fmt.Errorf("dynamic or invalid dimension in %v", shape)
			}
		}
	}
	return nil
}

// InputSize is the number of float32 values the model consumes per call.
func (m *Metadata) InputSize() int {
	return product(m.InputShape)
}

// OutputSize is the length of the probability vector the model produces.
func (m *Metadata) OutputSize() int {
	return product(m.OutputShape)
}

func product(shape []int64) int {
	n := int64(1)
	for _, d := range shape {
		n *= d
	}
	return int(n)
}
