package worker

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/davitran/lawlens/internal/analysis/domain"
)

// profilePicks maps each risk appetite to its fixed ticker basket.
var profilePicks = map[domain.RiskProfile][]string{
	domain.RiskSafe:   {"JNJ", "PG", "KO", "PEP", "BRK-B"},
	domain.RiskMedium: {"AAPL", "MSFT", "NVDA", "AMZN", "GOOGL"},
	domain.RiskRisky:  {"TSLA", "COIN", "PLTR", "MSTR", "ARKK"},
}

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// sectorKeywords drives the commentary. Order matters: ties resolve to the
// earlier sector so the output stays deterministic.
var sectorKeywords = []struct {
	sector string
	words  []string
}{
	{"technology", []string{"data", "software", "privacy", "platform", "digital", "cyber"}},
	{"healthcare", []string{"health", "drug", "medical", "patient", "pharmaceutical", "clinical"}},
	{"energy", []string{"energy", "emission", "carbon", "fuel", "renewable", "grid"}},
	{"finance", []string{"bank", "credit", "securities", "tax", "capital", "insurance"}},
}

// Analyze derives a stock recommendation from a legal document. The output
// is a pure function of the inputs, so reprocessing a redelivered job
// produces the identical payload.
func Analyze(filename string, profile domain.RiskProfile, doc []byte) *domain.ResultPayload {
	text := strings.ToLower(tagPattern.ReplaceAllString(string(doc), " "))

	total := 0
	topSector := ""
	topCount := 0
	for _, entry := range sectorKeywords {
		count := 0
		for _, word := range entry.words {
			count += strings.Count(text, word)
		}
		total += count
		if count > topCount {
			topSector = entry.sector
			topCount = count
		}
	}

	comment := fmt.Sprintf(
		"No sector signals detected; recommendation follows the %s profile baseline.", profile)
	if total > 0 {
		comment = fmt.Sprintf(
			"Detected %d regulatory signals, strongest in the %s sector; picks follow the %s appetite.",
			total, topSector, profile)
	}

	picks := make([]string, len(profilePicks[profile]))
	copy(picks, profilePicks[profile])

	return &domain.ResultPayload{
		Summary: fmt.Sprintf("Processed %s with risk %s.", filename, profile),
		Stocks:  picks,
		Comment: comment,
	}
}
