package worker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davitran/lawlens/internal/analysis/domain"
)

func TestAnalyze_PicksFollowRiskProfile(t *testing.T) {
	tests := []struct {
		name    string
		profile domain.RiskProfile
		want    []string
	}{
		{"safe basket", domain.RiskSafe, []string{"JNJ", "PG", "KO", "PEP", "BRK-B"}},
		{"medium basket", domain.RiskMedium, []string{"AAPL", "MSFT", "NVDA", "AMZN", "GOOGL"}},
		{"risky basket", domain.RiskRisky, []string{"TSLA", "COIN", "PLTR", "MSTR", "ARKK"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Analyze("law.html", tt.profile, []byte("<html><body>some law</body></html>"))
			require.NotNil(t, result)
			assert.Equal(t, tt.want, result.Stocks)
			assert.Equal(t, "Processed law.html with risk "+string(tt.profile)+".", result.Summary)
		})
	}
}

func TestAnalyze_SectorCommentary(t *testing.T) {
	doc := []byte(`<html><body>
		<p>This act regulates data privacy on every digital platform.</p>
		<p>Software providers must report cyber incidents.</p>
	</body></html>`)

	result := Analyze("directive.xml", domain.RiskMedium, doc)

	assert.Contains(t, result.Comment, "technology")
	assert.Contains(t, result.Comment, "MEDIUM")
}

func TestAnalyze_NoSignalsFallsBackToBaseline(t *testing.T) {
	result := Analyze("law.html", domain.RiskSafe, []byte("<html><body>short text</body></html>"))

	assert.Contains(t, result.Comment, "No sector signals detected")
	assert.Contains(t, result.Comment, "SAFE")
}

func TestAnalyze_IsDeterministic(t *testing.T) {
	doc := []byte("<p>bank credit tax</p><p>energy carbon fuel</p>")

	first := Analyze("law.html", domain.RiskRisky, doc)
	second := Analyze("law.html", domain.RiskRisky, doc)

	assert.Equal(t, first, second)
}

func TestAnalyze_IgnoresMarkup(t *testing.T) {
	// Keywords hidden in tags and attributes must not count as signals.
	doc := []byte(`<div class="bank-credit" data-tax="1"></div>`)

	result := Analyze("law.html", domain.RiskSafe, doc)

	assert.Contains(t, result.Comment, "No sector signals detected")
}
