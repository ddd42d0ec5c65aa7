package redis

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/talentsift/resumatch/internal/domain"
	"github.com/talentsift/resumatch/internal/domain/resume"
)

// Hash field names. fieldVector holds the raw float32 blob indexed by
// RediSearch; fieldCreatedAtTS duplicates created_at as unix nanos for
// SORTBY in listings.
const (
	fieldID          = "id"
	fieldFilename    = "filename"
	fieldSourceURL   = "source_url"
	fieldContent     = "content"
	fieldCreatedAt   = "created_at"
	fieldCreatedAtTS = "created_at_ts"
	fieldVector      = "__vector"
)

// returnFields are the hash fields fetched for listings (vector included
// for integrity checks). Search hits fetch hitFields only.
var (
	returnFields = []string{fieldID, fieldFilename, fieldSourceURL, fieldContent, fieldCreatedAt, fieldVector}
	hitFields    = []string{fieldID, fieldFilename, fieldSourceURL, fieldContent, fieldCreatedAt}
)

// buildHashFields converts a Resume into a flat map[string]string for HSET.
// Zero vectors are not written: records without the vector attribute stay
// out of the HNSW index and can never surface from a KNN search.
func buildHashFields(r *resume.Resume) map[string]string {
	m := map[string]string{
		fieldID:          r.ID(),
		fieldFilename:    r.Filename(),
		fieldSourceURL:   r.SourceURL(),
		fieldContent:     r.Content(),
		fieldCreatedAt:   r.CreatedAt().UTC().Format(time.RFC3339Nano),
		fieldCreatedAtTS: strconv.FormatInt(r.CreatedAt().UTC().UnixNano(), 10),
	}
	if !domain.IsZeroVector(r.Vector()) {
		m[fieldVector] = vectorToBytes(r.Vector())
	}
	return m
}

// parseHashFields converts a flat hash map back into a Resume.
// A missing vector field hydrates as the zero vector of the configured
// dimension; a present vector of the wrong dimension is a data
// integrity error.
func parseHashFields(m map[string]string, dim int) (resume.Resume, error) {
	id := m[fieldID]
	if id == "" {
		return resume.Resume{}, fmt.Errorf("record has no id field")
	}

	createdAt, err := time.Parse(time.RFC3339Nano, m[fieldCreatedAt])
	if err != nil {
		return resume.Resume{}, fmt.Errorf("record %s: parse created_at: %w", id, err)
	}

	vector := domain.ZeroVector(dim)
	if raw, ok := m[fieldVector]; ok {
		vector = bytesToVector(raw)
		if vector == nil {
			return resume.Resume{}, fmt.Errorf("record %s: malformed vector blob: %w", id, domain.ErrVectorDimMismatch)
		}
		if err := domain.CheckDim(vector, dim); err != nil {
			return resume.Resume{}, fmt.Errorf("record %s: %w", id, err)
		}
	}

	return resume.Reconstruct(id, m[fieldFilename], m[fieldSourceURL], m[fieldContent], vector, createdAt), nil
}

// vectorToBytes serializes []float32 to a binary string (4 bytes per float, little-endian).
func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}

// bytesToVector deserializes a binary string back to []float32.
func bytesToVector(s string) []float32 {
	b := []byte(s)
	if len(b)%4 != 0 {
		return nil
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}
