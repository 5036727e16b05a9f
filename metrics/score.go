// ABOUTME: Relationship health score computed from a postman's interaction history
// ABOUTME: Four capped components (frequency, recency, balance, profile) summing to 0-100
package metrics

import (
	"math"
	"time"

	"github.com/relationcraft/postman/models"
)

// Component caps. The four caps sum to MaxScore.
const (
	MaxFrequency = 40
	MaxRecency   = 30
	MaxBalance   = 20
	MaxProfile   = 10
	MaxScore     = MaxFrequency + MaxRecency + MaxBalance + MaxProfile

	// FrequencyWindowDays is how far back interactions count toward frequency.
	FrequencyWindowDays = 90
	pointsPerRecent     = 5
	pointsPerField      = 2
)

type Breakdown struct {
	Frequency int `json:"frequency"`
	Recency   int `json:"recency"`
	Balance   int `json:"balance"`
	Profile   int `json:"profile"`
}

type Score struct {
	Total     int       `json:"score"`
	Breakdown Breakdown `json:"breakdown"`
}

// RelationshipScore scores one postman. history is the postman's full
// interaction list in any order; now anchors the frequency window and recency.
func RelationshipScore(p *models.Postman, history []models.Interaction, now time.Time) Score {
	var give, take int
	for _, i := range history {
		switch i.Type {
		case models.InteractionGive:
			give++
		case models.InteractionTake:
			take++
		}
	}

	b := Breakdown{
		Frequency: FrequencyScore(history, now),
		Recency:   RecencyScore(p.LastContact, now),
		Balance:   BalanceScore(give, take),
		Profile:   ProfileScore(p),
	}

	return Score{
		Total:     b.Frequency + b.Recency + b.Balance + b.Profile,
		Breakdown: b,
	}
}

// FrequencyScore awards five points per interaction in the last 90 days, capped at 40.
func FrequencyScore(history []models.Interaction, now time.Time) int {
	cutoff := now.AddDate(0, 0, -FrequencyWindowDays)
	recent := 0
	for _, i := range history {
		if !i.Date.Before(cutoff) {
			recent++
		}
	}
	return min(recent*pointsPerRecent, MaxFrequency)
}

// RecencyScore maps whole days since the last contact onto fixed bands.
func RecencyScore(lastContact *time.Time, now time.Time) int {
	if lastContact == nil {
		return 0
	}

	days := int(now.Sub(*lastContact).Hours() / 24)
	switch {
	case days <= 7:
		return 30
	case days <= 14:
		return 25
	case days <= 30:
		return 20
	case days <= 60:
		return 10
	case days <= 90:
		return 5
	}
	return 0
}

// BalanceScore rewards reciprocity: equal give and take scores 20, one-sided scores 0.
func BalanceScore(give, take int) int {
	if give+take <= 0 {
		return 0
	}
	ratio := float64(min(give, take)) / float64(max(give, take, 1))
	return int(math.Round(ratio * MaxBalance))
}

// ProfileScore awards two points for each filled profile area.
func ProfileScore(p *models.Postman) int {
	checks := []bool{
		p.Phone != "",
		p.Email != "",
		p.Birthday != nil,
		p.Strengths != "" || p.Interests != "",
		p.Goals != "" || p.BusinessSummary != "",
	}

	score := 0
	for _, ok := range checks {
		if ok {
			score += pointsPerField
		}
	}
	return score
}
