// Package embed turns chunk text into fixed-dimension vectors.
package embed

import (
	"context"
	"errors"
	"math"
	"strings"
)

// ErrEmptyText is returned when asked to embed blank input.
var ErrEmptyText = errors.New("cannot embed empty text")

// Embedder generates embeddings. Every vector it returns has Dimension()
// entries and unit length.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
	Name() string
}

// Normalize scales v to unit length in place. The zero vector is left alone.
func Normalize(v []float32) {
	var sum float32
	for _, x := range v {
		sum += x * x
	}
	if sum == 0 {
		return
	}
	inv := float32(1.0 / math.Sqrt(float64(sum)))
	for i := range v {
		v[i] *= inv
	}
}

// Cosine computes the cosine similarity between two vectors, in [-1, 1].
// Vectors of different length or zero norm score 0.
func Cosine(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float32
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (float32(math.Sqrt(float64(normA))) * float32(math.Sqrt(float64(normB))))
}

// prepare flattens newlines, which degrade embedding quality for some models.
func prepare(text string) string {
	return strings.TrimSpace(strings.ReplaceAll(text, "\n", " "))
}
