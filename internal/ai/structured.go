// AngelaMos | 2026
// structured.go

package ai

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/carterperez-dev/medprep/internal/core"
)

const maxRawExcerpt = 512

var schema = core.NewValidator()

// MalformedError is returned when structured output does not parse or does
// not satisfy the expected schema. Raw holds the provider text.
type MalformedError struct {
	Raw string
	Err error
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed generation: %v", e.Err)
}

func (e *MalformedError) Unwrap() error {
	return e.Err
}

func (e *MalformedError) Is(target error) bool {
	return target == core.ErrMalformedGeneration
}

// Excerpt is a bounded prefix of the raw text, safe to log. It never splits
// a multi-byte rune.
func (e *MalformedError) Excerpt() string {
	if len(e.Raw) <= maxRawExcerpt {
		return e.Raw
	}

	cut := maxRawExcerpt
	for cut > 0 && !utf8.RuneStart(e.Raw[cut]) {
		cut--
	}
	return e.Raw[:cut] + "..."
}

// Decode parses a structured completion into dst and validates it against
// dst's `validate` tags.
func Decode(c *Completion, dst any) error {
	if c == nil {
		return &MalformedError{Err: fmt.Errorf("no completion")}
	}

	text, err := extractJSON(c.Text)
	if err != nil {
		return err
	}

	if err := json.Unmarshal([]byte(text), dst); err != nil {
		return &MalformedError{Raw: c.Text, Err: fmt.Errorf("decode: %w", err)}
	}

	if err := schema.Struct(dst); err != nil {
		return &MalformedError{
			Raw: c.Text,
			Err: fmt.Errorf("schema: %s", core.FormatValidationError(err)),
		}
	}

	return nil
}

// extractJSON strips markdown code fences and requires a single JSON
// object or array.
func extractJSON(text string) (string, error) {
	trimmed := strings.TrimSpace(text)

	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```")
		if nl := strings.IndexByte(trimmed, '\n'); nl >= 0 {
			trimmed = trimmed[nl+1:]
		}
		trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
		trimmed = strings.TrimSpace(trimmed)
	}

	if trimmed == "" {
		return "", &MalformedError{Raw: text, Err: fmt.Errorf("empty payload")}
	}

	if trimmed[0] != '{' && trimmed[0] != '[' {
		return "", &MalformedError{Raw: text, Err: fmt.Errorf("payload is not a JSON document")}
	}

	if !json.Valid([]byte(trimmed)) {
		return "", &MalformedError{Raw: text, Err: fmt.Errorf("invalid JSON")}
	}

	return trimmed, nil
}
