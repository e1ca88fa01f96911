package embed

import (
	"encoding/json"
	"fmt"
)

// shape is the decoded one-of over the response bodies embedding endpoints
// actually produce. Exactly one field is set:
//
//	data:   OpenAI envelope {"data":[{"embedding":[...]}, ...]}
//	keyed:  {"embedding":[...]}        (Ollama native)
//	nested: [[...], ...]               (bare batch)
//	flat:   [...]                      (bare single vector)
//
// It is decoded once at the service boundary; everything downstream only
// ever sees flat []float32 vectors.
type shape struct {
	data   [][]float32
	keyed  []float32
	nested [][]float32
	flat   []float32
}

func decodeShape(raw []byte) (*shape, error) {
	var env struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &env); err == nil && len(env.Data) > 0 {
		vecs := make([][]float32, len(env.Data))
		for i := range env.Data {
			if len(env.Data[i].Embedding) == 0 {
				return nil, fmt.Errorf("%w: empty embedding in data[%d]", ErrBadShape, i)
			}
			vecs[i] = env.Data[i].Embedding
		}
		return &shape{data: vecs}, nil
	}

	var keyed struct {
		Embedding []float32 `json:"embedding"`
	}
	if err := json.Unmarshal(raw, &keyed); err == nil && len(keyed.Embedding) > 0 {
		return &shape{keyed: keyed.Embedding}, nil
	}

	var nested [][]float32
	if err := json.Unmarshal(raw, &nested); err == nil && len(nested) > 0 && len(nested[0]) > 0 {
		return &shape{nested: nested}, nil
	}

	var flat []float32
	if err := json.Unmarshal(raw, &flat); err == nil && len(flat) > 0 {
		return &shape{flat: flat}, nil
	}

	return nil, ErrBadShape
}

// vectors normalizes the decoded shape to one flat vector per input text.
func (s *shape) vectors(want int) ([][]float32, error) {
	var vecs [][]float32
	switch {
	case s.data != nil:
		vecs = s.data
	case s.nested != nil:
		if want == 1 {
			vecs = s.nested[:1]
		} else {
			vecs = s.nested
		}
	case s.keyed != nil:
		vecs = [][]float32{s.keyed}
	case s.flat != nil:
		vecs = [][]float32{s.flat}
	}
	if len(vecs) != want {
		return nil, fmt.Errorf("%w: got %d vectors for %d inputs", ErrBadShape, len(vecs), want)
	}
	return vecs, nil
}
