package classifier

import "misinfo-guard/internal/models"

// Binding pairs a scanned anchor with the verdict for its text.
type Binding struct {
	Candidate models.ScanCandidate
	Result    models.AnalysisResult
}

// Bind matches results to candidates by exact text. Several candidates with
// the same text share one result; candidates without a result are dropped.
func Bind(candidates []models.ScanCandidate, results []models.AnalysisResult) []Binding {
	byText := make(map[string]models.AnalysisResult, len(results))
	for _, r := range results {
		if _, ok := byText[r.Headline]; !ok {
			byText[r.Headline] = r
		}
	}
	out := make([]Binding, 0, len(candidates))
	for _, c := range candidates {
		if r, ok := byText[c.Text]; ok {
			out = append(out, Binding{Candidate: c, Result: r})
		}
	}
	return out
}

// Lookup returns the result for text, if any.
func Lookup(results []models.AnalysisResult, text string) (models.AnalysisResult, bool) {
	for _, r := range results {
		if r.Headline == text {
			return r, true
		}
	}
	return models.AnalysisResult{}, false
}
