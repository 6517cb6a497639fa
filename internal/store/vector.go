package store

import (
	"encoding/binary"
	"math"
)

// encodeVector packs a []float32 into a little-endian byte blob suitable
// for a BLOB column. No external vector extension (e.g. sqlite-vec) is
// assumed to be loaded, so vec_embeddings is a plain table and cosine
// similarity is computed in Go over AllEmbeddings (spec.md §9: the vector
// engine's exact storage format is left to the implementation).
func encodeVector(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, f := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(blob []byte, dims int) []float32 {
	if dims <= 0 || len(blob) < dims*4 {
		return nil
	}
	out := make([]float32, dims)
	for i := 0; i < dims; i++ {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return out
}

// CosineSimilarity returns the cosine similarity of a and b, or 0 if
// either is empty or they differ in length.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, magA, magB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		magA += float64(a[i]) * float64(a[i])
		magB += float64(b[i]) * float64(b[i])
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}
