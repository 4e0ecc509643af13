package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectSignals(t *testing.T) {
	sig := DetectSignals("SHOCKING miracle cure, According To nobody")
	assert.True(t, sig.Emotional)
	assert.False(t, sig.Cited)
	assert.False(t, sig.Numbers)
	assert.Equal(t, 6, sig.WordCount)

	sig = DetectSignals("According to the Research team")
	assert.False(t, sig.Cited)
	assert.True(t, DetectSignals("a recent study found").Cited)

	assert.Equal(t, 5, DetectSignals("a  b  c").WordCount)
	assert.Equal(t, 3, DetectSignals("line one\nline two").WordCount)

	sig = DetectSignals("Rates rose 3% this quarter")
	assert.False(t, sig.Emotional)
	assert.False(t, sig.Cited)
	assert.True(t, sig.Numbers)
}

func TestFallbackScorer_Ranges(t *testing.T) {
	f := NewFallbackScorer(42)

	cases := []struct {
		name       string
		content    string
		bias       [2]float64
		cred       [2]float64
		factuality [2]float64
		biasText   string
	}{
		{
			name:       "emotional without evidence",
			content:    "This amazing and incredible miracle will change everything!",
			bias:       [2]float64{60, 100},
			cred:       [2]float64{20, 80},
			factuality: [2]float64{30, 80},
			biasText:   emotionalBiasText,
		},
		{
			name: "cited with numbers and long enough",
			content: "According to a study published last year by researchers at a public university, " +
				"about 42 percent of the 1200 participants reported better sleep after reducing evening screen time.",
			bias:       [2]float64{10, 50},
			cred:       [2]float64{80, 100},
			factuality: [2]float64{75, 95},
			biasText:   neutralBiasText,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for i := 0; i < 50; i++ {
				r := f.Score(tc.content)
				assert.GreaterOrEqual(t, r.BiasScore, tc.bias[0])
				assert.LessOrEqual(t, r.BiasScore, tc.bias[1])
				assert.GreaterOrEqual(t, r.CredibilityScore, tc.cred[0])
				assert.LessOrEqual(t, r.CredibilityScore, tc.cred[1])
				assert.GreaterOrEqual(t, r.FactualityScore, tc.factuality[0])
				assert.LessOrEqual(t, r.FactualityScore, tc.factuality[1])
				assert.InDelta(t, (r.CredibilityScore+r.FactualityScore+(100-r.BiasScore))/3, r.OverallScore, 1e-9)
				assert.Equal(t, tc.biasText, r.BiasAnalysis)
				assert.Equal(t, ProviderFallback, r.Provider)
				assert.JSONEq(t, "[]", string(r.FactCheckResults))
				assert.Equal(t, tc.content, r.GenerationalRewrite.Adult)
			}
		})
	}
}

func TestFallbackScorer_Deterministic(t *testing.T) {
	a := NewFallbackScorer(7).Score("plain text")
	b := NewFallbackScorer(7).Score("plain text")
	assert.Equal(t, a, b)
}
