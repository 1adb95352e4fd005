// AngelaMos | 2026
// usage.go

package metering

import (
	"unicode/utf8"
)

const (
	PlanTrial      = "trial"
	PlanSubscribed = "subscribed"
)

const (
	DefaultCharsPerUnit = 4
	DefaultTrialLimit   = 20000
)

// Usage is an account's position on the ledger.
type Usage struct {
	Plan     string `db:"plan"`
	Consumed int    `db:"tokens_used"`
	Limit    int    `db:"token_limit"`
}

func (u Usage) Unlimited() bool {
	return u.Plan == PlanSubscribed
}

// Remaining never goes below zero, even after a true-up overshoot.
func (u Usage) Remaining() int {
	if u.Consumed >= u.Limit {
		return 0
	}
	return u.Limit - u.Consumed
}

// Allows is the gate rule.
func (u Usage) Allows(estimate int) bool {
	if u.Unlimited() {
		return true
	}
	return u.Consumed+estimate <= u.Limit
}

type UsageResponse struct {
	Plan      string `json:"plan"`
	Used      int    `json:"used"`
	Limit     int    `json:"limit"`
	Remaining int    `json:"remaining"`
	Unlimited bool   `json:"unlimited"`
}

func (u Usage) Response() UsageResponse {
	return UsageResponse{
		Plan:      u.Plan,
		Used:      u.Consumed,
		Limit:     u.Limit,
		Remaining: u.Remaining(),
		Unlimited: u.Unlimited(),
	}
}

// EstimateUnits charges one unit per four characters, rounded up.
func EstimateUnits(text string) int {
	return EstimateUnitsWith(text, DefaultCharsPerUnit)
}

func EstimateUnitsWith(text string, charsPerUnit int) int {
	if charsPerUnit < 1 {
		charsPerUnit = DefaultCharsPerUnit
	}

	chars := utf8.RuneCountInString(text)
	if chars == 0 {
		return 0
	}

	return (chars + charsPerUnit - 1) / charsPerUnit
}

// ActualUnits prefers the provider's figure and falls back to the estimate.
func ActualUnits(reported, estimate int) int {
	if reported > 0 {
		return reported
	}
	return estimate
}
