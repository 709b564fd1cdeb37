package preprocess

import "fmt"

// Tensor is a float32 NHWC batch holding exactly one image.
type Tensor struct {
	Shape [4]int64
	Data  []float32
}

func NewTensor(size int) *Tensor {
	return &Tensor{
		Shape: [4]int64{1, int64(size), int64(size), Channels},
		Data:  make([]float32, size*size*Channels),
	}
}

// Len is the number of elements implied by Shape.
func (t *Tensor) Len() int {
	n := int64(1)
	for _, d := range t.Shape {
		n *= d
	}
	return int(n)
}

// Validate checks that the tensor is a (1, size, size, 3) batch whose values
// lie in [-1, 1].
func (t *Tensor) Validate(size int) error {
	want := [4]int64{1, int64(size), int64(size), Channels}
	if t.Shape != want {
		return fmt.Errorf("tensor shape %v, expected %v", t.Shape, want)
	}
	if len(t.Data) != t.Len() {
		return fmt.Errorf("tensor holds %d values, shape implies %d", len(t.Data), t.Len())
	}
	for i, v := range t.Data {
		if v < -1 || v > 1 {
			return fmt.Errorf("tensor value %f at %d outside [-1, 1]", v, i)
		}
	}
	return nil
}
