package score

import (
	"hash/fnv"
	"math"
)

// Embedder produces a vector representation of a short text. The
// similarity scorer blends embedding cosine similarity into the name
// component when an embedder is configured.
type Embedder interface {
	Embed(text string) []float64
}

// TrigramEmbedder is a deterministic lexical embedder: character
// trigrams hashed into a fixed-width count vector. A stand-in for a
// semantic model that needs no external runtime.
type TrigramEmbedder struct {
	Dim int
}

// NewTrigramEmbedder returns an embedder with a 256-dimension vector.
func NewTrigramEmbedder() *TrigramEmbedder {
	return &TrigramEmbedder{Dim: 256}
}

// Embed hashes the text's character trigrams into a normalized vector.
func (e *TrigramEmbedder) Embed(text string) []float64 {
	dim := e.Dim
	if dim <= 0 {
		dim = 256
	}

	vec := make([]float64, dim)
	runes := []rune(" " + text + " ")
	if len(runes) < 3 {
		return vec
	}

	for i := 0; i+3 <= len(runes); i++ {
		h := fnv.New32a()
		_, _ = h.Write([]byte(string(runes[i : i+3])))
		vec[h.Sum32()%uint32(dim)]++
	}

	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range vec {
			vec[i] /= norm
		}
	}

	return vec
}

// Cosine returns the cosine similarity of two vectors, clamped to [0,1].
func Cosine(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}

	sim := dot / (math.Sqrt(na) * math.Sqrt(nb))
	if sim < 0 {
		return 0
	}
	if sim > 1 {
		return 1
	}
	return sim
}
