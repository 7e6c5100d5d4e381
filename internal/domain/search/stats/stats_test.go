package stats

import (
	"math"
	"testing"

	"github.com/kailas-cloud/rankfuse/internal/domain/search/result"
)

func makeResult(id string, score float64) result.Result {
	return result.New(id, score, "content-"+id, result.SourceKnowledgeBase, nil)
}

func TestAnalyze_Empty(t *testing.T) {
	for name, input := range map[string][]result.Result{
		"nil":   nil,
		"empty": {},
	} {
		t.Run(name, func(t *testing.T) {
			s := Analyze(input)
			if s.Mean != 0 || s.Variance != 0 || s.Min != 0 || s.Max != 0 {
				t.Errorf("expected zeroed stats, got %+v", s)
			}
		})
	}
}

func TestAnalyze_SingleResult(t *testing.T) {
	s := Analyze([]result.Result{makeResult("a", 0.8)})
	if s.Mean != 0.8 || s.Min != 0.8 || s.Max != 0.8 {
		t.Errorf("expected mean/min/max 0.8, got %+v", s)
	}
	if s.Variance != 0 {
		t.Errorf("expected zero variance, got %f", s.Variance)
	}
}

func TestAnalyze_PopulationVariance(t *testing.T) {
	results := []result.Result{
		makeResult("a", 2),
		makeResult("b", 4),
		makeResult("c", 6),
	}
	s := Analyze(results)

	if s.Mean != 4 {
		t.Errorf("expected mean 4, got %f", s.Mean)
	}
	// population variance: ((2-4)^2 + (4-4)^2 + (6-4)^2) / 3 = 8/3
	want := 8.0 / 3.0
	if math.Abs(s.Variance-want) > 1e-12 {
		t.Errorf("expected variance %f, got %f", want, s.Variance)
	}
	if s.Min != 2 || s.Max != 6 {
		t.Errorf("expected min 2 max 6, got min %f max %f", s.Min, s.Max)
	}
}

func TestAnalyze_SimilarityFallback(t *testing.T) {
	results := []result.Result{
		result.NewSimilarity("a", 0.9, "content", result.SourceKnowledgeBase, nil),
		result.NewSimilarity("b", 0.7, "content", result.SourceKnowledgeBase, nil),
	}
	s := Analyze(results)
	if math.Abs(s.Mean-0.8) > 1e-12 {
		t.Errorf("expected mean 0.8 from similarity fallback, got %f", s.Mean)
	}
}

func TestAnalyze_NeverNaN(t *testing.T) {
	inputs := [][]result.Result{
		nil,
		{makeResult("a", 0)},
		{makeResult("a", 0), makeResult("b", 0)},
	}
	for _, in := range inputs {
		s := Analyze(in)
		for name, v := range map[string]float64{
			"mean": s.Mean, "variance": s.Variance, "min": s.Min, "max": s.Max,
		} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				t.Errorf("%s is %f for input of %d results", name, v, len(in))
			}
		}
	}
}
