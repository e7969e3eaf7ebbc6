// Package embed adapts an ONNX Runtime session plus a WordPiece tokenizer
// into fixed-dimension, L2-normalized embeddings for text and CLIP images.
package embed

import "math"

// MeanPool averages per-token hidden states over the sequence dimension,
// weighted by attentionMask so padding tokens contribute nothing. hidden is
// laid out as seqLen rows of hiddenSize floats.
func MeanPool(hidden [][]float32, attentionMask []int64) []float32 {
	if len(hidden) == 0 {
		return nil
	}
	hiddenSize := len(hidden[0])
	pooled := make([]float32, hiddenSize)

	var maskSum int64
	for i, row := range hidden {
		mask := int64(1)
		if i < len(attentionMask) {
			mask = attentionMask[i]
		}
		if mask <= 0 {
			continue
		}
		maskSum += mask
		for j, v := range row {
			pooled[j] += v * float32(mask)
		}
	}

	if maskSum == 0 {
		return pooled
	}
	for j := range pooled {
		pooled[j] /= float32(maskSum)
	}
	return pooled
}

// Normalize L2-normalizes v in place semantics (returns a new slice),
// leaving an all-zero vector unchanged — matching the invariant that a
// zero pre-normalization vector stays exactly zero rather than producing
// NaN from a zero-division.
func Normalize(v []float32) []float32 {
	var sumSq float32
	for _, x := range v {
		sumSq += x * x
	}
	if sumSq == 0 {
		out := make([]float32, len(v))
		copy(out, v)
		return out
	}

	norm := float32(math.Sqrt(float64(sumSq)))
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = x / norm
	}
	return out
}
