package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/rueidis"

	"github.com/talentsift/resumatch/internal/storage"
)

// VectorSearch runs a KNN similarity search via FT.SEARCH and keeps
// hits scoring at or above minScore. RediSearch reports cosine
// distance; similarity = max(0, 1 - distance).
func (s *Store) VectorSearch(ctx context.Context, vector []float32, minScore float64, limit int) ([]storage.Hit, error) {
	if len(vector) == 0 {
		return nil, fmt.Errorf("vector is required")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive")
	}

	queryStr := fmt.Sprintf("*=>[KNN %d @vector $BLOB]", limit)

	args := []string{s.indexName(), queryStr}
	args = append(args, "RETURN", strconv.Itoa(len(hitFields)))
	args = append(args, hitFields...)
	args = append(args, "PARAMS", "2", "BLOB", vectorToBytes(vector), "DIALECT", "2")

	cmd := s.b().Arbitrary("FT.SEARCH").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return nil, &storage.Error{Op: storage.OpSearch, Err: err}
	}

	return s.parseKNNResult(raw, minScore)
}

func (s *Store) parseKNNResult(raw []rueidis.RedisMessage, minScore float64) ([]storage.Hit, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}
	if total == 0 {
		return nil, nil
	}

	hits := make([]storage.Hit, 0, total)
	// 2-stride: [total, key1, fields1, key2, fields2, ...]
	for i := 1; i+1 < len(raw); i += 2 {
		fieldsRaw, err := raw[i+1].ToArray()
		if err != nil {
			continue
		}
		fields := parseFieldPairs(fieldsRaw)

		scoreStr, ok := fields["__vector_score"]
		if !ok {
			continue
		}
		dist, err := strconv.ParseFloat(scoreStr, 64)
		if err != nil {
			continue
		}
		score := max(0, 1.0-dist) // cosine distance → similarity, clamped to [0,1]
		if score < minScore {
			continue
		}
		delete(fields, "__vector_score")

		r, err := parseHashFields(fields, s.cfg.Dim)
		if err != nil {
			continue
		}

		hits = append(hits, storage.Hit{Resume: r, Score: score})
	}

	return hits, nil
}

func parseFieldPairs(fields []rueidis.RedisMessage) map[string]string {
	m := make(map[string]string, len(fields)/2)
	for j := 0; j+1 < len(fields); j += 2 {
		name, err := fields[j].ToString()
		if err != nil {
			continue
		}
		value, err := fields[j+1].ToString()
		if err != nil {
			continue
		}
		m[name] = value
	}
	return m
}
