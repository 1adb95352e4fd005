// AngelaMos | 2026
// service.go

package assist

import (
	"context"
	"fmt"
	"strings"

	"github.com/carterperez-dev/medprep/internal/activity"
	"github.com/carterperez-dev/medprep/internal/ai"
	"github.com/carterperez-dev/medprep/internal/metering"
)

const (
	diagnosisPrompt = `You help medical students practice differential diagnosis.
Respond with a JSON object {"differentials": [{"condition", "likelihood"
("high", "moderate" or "low"), "reasoning", "next_steps": [string]}],
"red_flags": [string], "summary": string}. This is an educational exercise,
not medical advice.`

	mnemonicPrompt = `You create memorable mnemonics for medical students.
Respond with a JSON object {"mnemonic": string, "explanation": string,
"letters": [{"letter": string, "meaning": string}]}.`

	drugPrompt = `You are a pharmacology reference for medical students.
Respond with a JSON object with keys "name", "class", "mechanism",
"indications", "contraindications", "adverse_effects", "interactions" (arrays
of strings), "dosing" and "monitoring". If the drug is unknown, say so in
"mechanism" and leave the arrays empty except "indications": ["unknown"].`
)

// Service runs the one-shot structured assists. Their output is returned
// to the caller and not stored.
type Service struct {
	pipeline *metering.Pipeline
}

func NewService(pipeline *metering.Pipeline) *Service {
	return &Service{pipeline: pipeline}
}

func (s *Service) Diagnose(
	ctx context.Context,
	accountID string,
	req DiagnosisRequest,
) (*Diagnosis, metering.Usage, error) {
	var b strings.Builder
	b.WriteString("Symptoms: " + strings.Join(req.Symptoms, "; ") + ".")
	if req.Age > 0 {
		fmt.Fprintf(&b, " Age: %d.", req.Age)
	}
	if req.Sex != "" {
		b.WriteString(" Sex: " + req.Sex + ".")
	}
	if req.History != "" {
		b.WriteString(" History: " + req.History)
	}

	return run[Diagnosis](ctx, s.pipeline, metering.Job{
		AccountID:   accountID,
		Category:    activity.CategoryDiagnosis,
		Description: "Differential diagnosis: " + truncate(strings.Join(req.Symptoms, ", "), 120),
		Metadata:    map[string]any{"symptom_count": len(req.Symptoms)},
		Request: ai.Request{
			System:      diagnosisPrompt,
			Prompt:      b.String(),
			Temperature: 0.3,
			Structured:  true,
		},
	})
}

func (s *Service) Mnemonic(
	ctx context.Context,
	accountID string,
	req MnemonicRequest,
) (*Mnemonic, metering.Usage, error) {
	return run[Mnemonic](ctx, s.pipeline, metering.Job{
		AccountID:   accountID,
		Category:    activity.CategoryMnemonic,
		Description: "Mnemonic: " + req.Topic,
		Metadata:    map[string]any{"topic": req.Topic},
		Request: ai.Request{
			System:      mnemonicPrompt,
			Prompt:      "Create a mnemonic for: " + req.Topic,
			Temperature: 0.9,
			Structured:  true,
		},
	})
}

func (s *Service) LookupDrug(
	ctx context.Context,
	accountID string,
	req DrugLookupRequest,
) (*Drug, metering.Usage, error) {
	return run[Drug](ctx, s.pipeline, metering.Job{
		AccountID:   accountID,
		Category:    activity.CategoryDrugLookup,
		Description: "Drug lookup: " + req.Name,
		Metadata:    map[string]any{"drug": req.Name},
		Request: ai.Request{
			System:      drugPrompt,
			Prompt:      "Drug: " + req.Name,
			Temperature: 0.1,
			Structured:  true,
		},
	})
}

// run decodes the completion into T as the job's validation step.
func run[T any](
	ctx context.Context,
	pipeline *metering.Pipeline,
	job metering.Job,
) (*T, metering.Usage, error) {
	var out T
	job.Validate = func(c *ai.Completion) error {
		return ai.Decode(c, &out)
	}

	outcome, err := pipeline.Run(ctx, job)
	if err != nil {
		return nil, metering.Usage{}, err
	}

	return &out, outcome.Usage, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
