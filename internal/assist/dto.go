// AngelaMos | 2026
// dto.go

package assist

import "github.com/carterperez-dev/medprep/internal/metering"

type DiagnosisRequest struct {
	Symptoms []string `json:"symptoms" validate:"required,min=1,max=30,dive,min=2,max=200"`
	Age      int      `json:"age"      validate:"omitempty,min=0,max=120"`
	Sex      string   `json:"sex"      validate:"omitempty,oneof=male female other"`
	History  string   `json:"history"  validate:"omitempty,max=2000"`
}

type Differential struct {
	Condition  string   `json:"condition"  validate:"required"`
	Likelihood string   `json:"likelihood" validate:"required"`
	Reasoning  string   `json:"reasoning"  validate:"required"`
	NextSteps  []string `json:"next_steps"`
}

type Diagnosis struct {
	Differentials []Differential `json:"differentials" validate:"required,min=1,dive"`
	RedFlags      []string       `json:"red_flags"`
	Summary       string         `json:"summary"`
}

type MnemonicRequest struct {
	Topic string `json:"topic" validate:"required,min=2,max=200"`
}

type Letter struct {
	Letter  string `json:"letter"  validate:"required"`
	Meaning string `json:"meaning" validate:"required"`
}

type Mnemonic struct {
	Mnemonic    string   `json:"mnemonic"    validate:"required"`
	Explanation string   `json:"explanation" validate:"required"`
	Letters     []Letter `json:"letters"     validate:"required,min=1,dive"`
}

type DrugLookupRequest struct {
	Name string `json:"name" validate:"required,min=2,max=100"`
}

type Drug struct {
	Name              string   `json:"name"               validate:"required"`
	Class             string   `json:"class"              validate:"required"`
	Mechanism         string   `json:"mechanism"          validate:"required"`
	Indications       []string `json:"indications"        validate:"required,min=1"`
	Contraindications []string `json:"contraindications"`
	AdverseEffects    []string `json:"adverse_effects"`
	Interactions      []string `json:"interactions"`
	Dosing            string   `json:"dosing"`
	Monitoring        string   `json:"monitoring"`
}

// Result wraps a generated payload with the account's usage after the
// charge.
type Result[T any] struct {
	Result T                      `json:"result"`
	Usage  metering.UsageResponse `json:"usage"`
}
