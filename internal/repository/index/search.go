package index

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/rankfuse/internal/domain"
	"github.com/kailas-cloud/rankfuse/internal/domain/search/result"
	"github.com/kailas-cloud/rankfuse/internal/usecase/fusion"
)

const (
	contentField = "__content"
	sourceField  = "__source"
	scoreField   = "__vector_score"
)

// SearchKNN runs a vector similarity search via FT.SEARCH and returns
// candidates carrying cosine similarity in [0,1], index-ordered by rank.
func (s *Store) SearchKNN(
	ctx context.Context, namespace string, vector []float32, topK int,
) ([]result.Result, error) {
	if len(vector) == 0 {
		return nil, fmt.Errorf("vector is required")
	}
	if topK <= 0 {
		return nil, fmt.Errorf("topK must be positive")
	}

	queryStr := fmt.Sprintf("*=>[KNN %d @vector $BLOB]", topK)
	args := []string{
		s.indexName(namespace), queryStr,
		"RETURN", "3", contentField, sourceField, scoreField,
		"SORTBY", scoreField,
		"PARAMS", "2", "BLOB", vectorToBytes(vector),
		"DIALECT", "2",
	}

	cmd := s.b().Arbitrary("FT.SEARCH").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return nil, wrapSearchErr("search knn", namespace, err)
	}

	return s.parseKNNResult(raw, namespace)
}

// SearchBM25 runs a keyword search via FT.SEARCH WITHSCORES. The query
// is tokenized the same way the fusion engine tokenizes for sparse
// scoring, then joined as an OR of terms.
func (s *Store) SearchBM25(
	ctx context.Context, namespace, query string, topK int,
) ([]result.Result, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("topK must be positive")
	}

	terms := fusion.Tokenize(query)
	if len(terms) == 0 {
		return nil, nil
	}

	queryStr := fmt.Sprintf("@%s:(%s)", contentField, strings.Join(terms, "|"))
	args := []string{
		s.indexName(namespace), queryStr,
		"RETURN", "2", contentField, sourceField,
		"WITHSCORES",
		"LIMIT", "0", strconv.Itoa(topK),
		"DIALECT", "2",
	}

	cmd := s.b().Arbitrary("FT.SEARCH").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return nil, wrapSearchErr("search bm25", namespace, err)
	}

	return s.parseBM25Result(raw, namespace)
}

// parseKNNResult decodes the 2-stride FT.SEARCH reply:
// [total, key1, fields1, key2, fields2, ...].
func (s *Store) parseKNNResult(raw []rueidis.RedisMessage, namespace string) ([]result.Result, error) {
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

	prefix := s.keyPrefix(namespace)
	results := make([]result.Result, 0, total)

	for i := 1; i+1 < len(raw); i += 2 {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}

		fieldsRaw, err := raw[i+1].ToArray()
		if err != nil {
			continue
		}
		fields := parseFieldPairs(fieldsRaw)

		similarity := 0.0
		if distStr, ok := fields[scoreField]; ok {
			if dist, err := strconv.ParseFloat(distStr, 64); err == nil {
				similarity = max(0, 1.0-dist) // cosine distance -> similarity, clamped to [0,1]
			}
		}

		id := strings.TrimPrefix(key, prefix)
		results = append(results, result.NewSimilarity(
			id, similarity, fields[contentField], sourceType(fields), metadataFields(fields),
		))
	}

	return results, nil
}

// parseBM25Result decodes the 3-stride WITHSCORES reply:
// [total, key1, score1, fields1, key2, score2, fields2, ...].
func (s *Store) parseBM25Result(raw []rueidis.RedisMessage, namespace string) ([]result.Result, error) {
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

	prefix := s.keyPrefix(namespace)
	results := make([]result.Result, 0, total)

	for i := 1; i+2 < len(raw); i += 3 {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}

		scoreStr, err := raw[i+1].ToString()
		if err != nil {
			continue
		}
		score, err := strconv.ParseFloat(scoreStr, 64)
		if err != nil {
			continue
		}

		fieldsRaw, err := raw[i+2].ToArray()
		if err != nil {
			continue
		}
		fields := parseFieldPairs(fieldsRaw)

		id := strings.TrimPrefix(key, prefix)
		results = append(results, result.New(
			id, score, fields[contentField], sourceType(fields), metadataFields(fields),
		))
	}

	return results, nil
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

func sourceType(fields map[string]string) result.SourceType {
	if src, ok := fields[sourceField]; ok && src != "" {
		return result.SourceType(src)
	}
	return result.SourceKnowledgeBase
}

// metadataFields collects the non-reserved hash fields as opaque metadata.
func metadataFields(fields map[string]string) map[string]any {
	meta := make(map[string]any)
	for k, v := range fields {
		switch k {
		case contentField, sourceField, scoreField:
		default:
			meta[k] = v
		}
	}
	if len(meta) == 0 {
		return nil
	}
	return meta
}

func wrapSearchErr(op, namespace string, err error) error {
	if re, ok := rueidis.IsRedisErr(err); ok {
		msg := strings.ToLower(re.Error())
		if strings.Contains(msg, "no such index") {
			return fmt.Errorf("%s %s: %w", op, namespace, domain.ErrNamespaceNotFound)
		}
		if strings.Contains(msg, "withscores") {
			return fmt.Errorf("%s %s: %w", op, namespace, domain.ErrKeywordSearchNotSupported)
		}
	}
	return fmt.Errorf("%s %s: %w", op, namespace, err)
}

// vectorToBytes serializes a query vector for the PARAMS blob.
func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}
