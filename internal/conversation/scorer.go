package conversation

import "strings"

// maxLeadScore caps the summed signal weights.
const maxLeadScore = 100

// signalFamily is one keyword family in the scoring table. A family fires
// at most once per message no matter how many of its triggers match.
type signalFamily struct {
	name     string
	triggers []string
	weight   int
}

// scoreFamilies is the declarative weight table for the lead score. Checks
// are case-insensitive substring matches against the user utterance only.
var scoreFamilies = []signalFamily{
	{name: "tour_intent", triggers: []string{"tour", "visit", "see"}, weight: 20},
	{name: "purchase_intent", triggers: []string{"buy", "purchase"}, weight: 25},
	{name: "relocation", triggers: []string{"move", "relocat"}, weight: 15},
	{name: "budget", triggers: []string{"budget", "afford", "price"}, weight: 10},
	{name: "timeline", triggers: []string{"timeline", "when"}, weight: 10},
	{name: "financing", triggers: []string{"mortgage", "financing"}, weight: 15},
}

// qualifyingSignals is checked against the combined user message and
// assistant reply. It overlaps the weight table but is deliberately its own
// set: a single hit qualifies the session regardless of the numeric score.
var qualifyingSignals = []string{
	"tour", "visit", "contact", "agent", "buy", "purchase", "serious", "interested",
}

// ScoreMessage maps a user utterance to a lead score in [0,100]. Pure and
// deterministic: family weights are summed, then clamped.
func ScoreMessage(message string) int {
	lowered := strings.ToLower(message)

	score := 0
	for _, family := range scoreFamilies {
		for _, trigger := range family.triggers {
			if strings.Contains(lowered, trigger) {
				score += family.weight
				break
			}
		}
	}
	if score > maxLeadScore {
		score = maxLeadScore
	}
	return score
}

// IsQualified reports whether the exchange contains a qualifying interest
// signal. Computed from the utterance and the reply together, independently
// of the numeric score.
func IsQualified(message, reply string) bool {
	combined := strings.ToLower(message + " " + reply)
	for _, signal := range qualifyingSignals {
		if strings.Contains(combined, signal) {
			return true
		}
	}
	return false
}
