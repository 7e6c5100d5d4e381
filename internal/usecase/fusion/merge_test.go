package fusion

import (
	"math"
	"testing"

	"github.com/kailas-cloud/rankfuse/internal/domain/search/result"
)

func TestMergeResults_SingleOccurrencePassesThrough(t *testing.T) {
	sets := [][]result.Result{
		{result.NewSimilarity("a", 0.9, "content-a", result.SourceEmail, map[string]any{"k": "v"})},
		{makeBM25("b", 0.4)},
	}

	merged := MergeResults(sets, CombineMax)
	if len(merged) != 2 {
		t.Fatalf("expected 2 results, got %d", len(merged))
	}
	if merged[0].ID() != "a" || merged[0].Source() != result.SourceEmail {
		t.Errorf("single-occurrence result altered: %s/%s", merged[0].ID(), merged[0].Source())
	}
	if merged[0].Metadata()["k"] != "v" {
		t.Errorf("metadata not preserved: %v", merged[0].Metadata())
	}
}

func TestMergeResults_Max(t *testing.T) {
	sets := [][]result.Result{
		{makeBM25("a", 0.3)},
		{makeBM25("a", 0.8)},
		{makeBM25("a", 0.5)},
	}

	merged := MergeResults(sets, CombineMax)
	if len(merged) != 1 {
		t.Fatalf("expected 1 result, got %d", len(merged))
	}
	if merged[0].EffectiveScore() != 0.8 {
		t.Errorf("expected max 0.8, got %f", merged[0].EffectiveScore())
	}
}

func TestMergeResults_Average(t *testing.T) {
	sets := [][]result.Result{
		{makeBM25("a", 0.2)},
		{makeBM25("a", 0.6)},
	}

	merged := MergeResults(sets, CombineAverage)
	if math.Abs(merged[0].EffectiveScore()-0.4) > 1e-12 {
		t.Errorf("expected average 0.4, got %f", merged[0].EffectiveScore())
	}
}

func TestMergeResults_SumClamped(t *testing.T) {
	sets := [][]result.Result{
		{makeBM25("a", 0.7)},
		{makeBM25("a", 0.8)},
		{makeBM25("a", 0.9)},
	}

	merged := MergeResults(sets, CombineSum)
	if merged[0].EffectiveScore() != 1.0 {
		t.Errorf("expected sum clamped to 1.0, got %f", merged[0].EffectiveScore())
	}
}

func TestMergeResults_SumBelowClamp(t *testing.T) {
	sets := [][]result.Result{
		{makeBM25("a", 0.2)},
		{makeBM25("a", 0.3)},
	}

	merged := MergeResults(sets, CombineSum)
	if math.Abs(merged[0].EffectiveScore()-0.5) > 1e-12 {
		t.Errorf("expected sum 0.5, got %f", merged[0].EffectiveScore())
	}
}

func TestMergeResults_FirstSeenContentWins(t *testing.T) {
	sets := [][]result.Result{
		{result.New("a", 0.3, "first content", result.SourceWeb, nil)},
		{result.New("a", 0.9, "second content", result.SourceEmail, nil)},
	}

	merged := MergeResults(sets, CombineMax)
	if merged[0].Content() != "first content" {
		t.Errorf("expected first-seen content, got %q", merged[0].Content())
	}
	if merged[0].EffectiveScore() != 0.9 {
		t.Errorf("expected max score 0.9, got %f", merged[0].EffectiveScore())
	}
}

func TestMergeResults_SortedDescending(t *testing.T) {
	sets := [][]result.Result{
		{makeBM25("a", 0.2), makeBM25("b", 0.9)},
		{makeBM25("c", 0.5)},
	}

	merged := MergeResults(sets, CombineMax)
	for i := 1; i < len(merged); i++ {
		if merged[i].EffectiveScore() > merged[i-1].EffectiveScore() {
			t.Errorf("results not sorted at %d", i)
		}
	}
}

func TestMergeResults_Empty(t *testing.T) {
	if got := MergeResults(nil, CombineMax); len(got) != 0 {
		t.Errorf("expected empty output, got %v", got)
	}
}

func TestParseCombineMethod(t *testing.T) {
	if m, err := ParseCombineMethod(""); err != nil || m != CombineMax {
		t.Errorf("empty input: got (%s, %v), want default max", m, err)
	}
	for _, valid := range []string{"max", "average", "sum"} {
		if _, err := ParseCombineMethod(valid); err != nil {
			t.Errorf("unexpected error for %q: %v", valid, err)
		}
	}
	if _, err := ParseCombineMethod("median"); err == nil {
		t.Error("expected error for unknown method")
	}
}
