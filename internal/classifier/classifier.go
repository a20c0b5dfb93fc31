package classifier

import (
	"strings"

	"github.com/xaenox/attendant-bot/internal/models"
	"github.com/xaenox/attendant-bot/internal/normalize"
)

// shortMessageLength is the folded length under which a message containing
// a general keyword is treated as a greeting.
const shortMessageLength = 10

type Classifier interface {
	Classify(text string) models.Intent
}

// KeywordClassifier scores text against fixed keyword lists. The tie break
// rules are policy and must stay deterministic.
type KeywordClassifier struct{}

func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{}
}

func (c *KeywordClassifier) Classify(text string) models.Intent {
	folded := normalize.Fold(text)
	if folded == "" {
		return models.IntentGeneral
	}

	prospect := score(folded, prospectKeywords)
	support := score(folded, supportKeywords)
	general := score(folded, generalKeywords)

	switch {
	case len([]rune(folded)) < shortMessageLength && general > 0:
		return models.IntentGeneral
	case support > prospect && support > general:
		return models.IntentSupport
	case prospect > support && prospect > general:
		return models.IntentProspect
	case general > 0 && prospect == 0 && support == 0:
		return models.IntentGeneral
	case prospect > 0 && support > 0:
		if containsAny(folded, prospectTieBreakers) {
			return models.IntentProspect
		}
		if containsAny(folded, supportTieBreakers) {
			return models.IntentSupport
		}
	}
	return models.IntentGeneral
}

// IsLeadTrigger reports whether the message shows product interest.
func IsLeadTrigger(text string) bool {
	return containsAny(normalize.Fold(text), leadTriggers)
}

// WantsMoreInfo reports whether the user asked to see more material.
func WantsMoreInfo(text string) bool {
	return containsAny(normalize.Fold(text), moreInfoKeywords)
}

func score(text string, keywords []string) int {
	n := 0
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			n++
		}
	}
	return n
}

func containsAny(text string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}
