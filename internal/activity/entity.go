// AngelaMos | 2026
// entity.go

package activity

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"

	"github.com/carterperez-dev/medprep/internal/core"
)

type Category string

const (
	CategoryChat       Category = "chat"
	CategoryDiagnosis  Category = "diagnosis"
	CategoryQuiz       Category = "quiz"
	CategoryMnemonic   Category = "mnemonic"
	CategoryCase       Category = "case"
	CategoryDrugLookup Category = "drug-lookup"
	CategoryNotes      Category = "notes"
	CategoryStudyPlan  Category = "study-plan"
)

var categories = map[Category]struct{}{
	CategoryChat:       {},
	CategoryDiagnosis:  {},
	CategoryQuiz:       {},
	CategoryMnemonic:   {},
	CategoryCase:       {},
	CategoryDrugLookup: {},
	CategoryNotes:      {},
	CategoryStudyPlan:  {},
}

func (c Category) Valid() bool {
	_, ok := categories[c]
	return ok
}

// Record is an append-only log entry of one completed feature use.
type Record struct {
	ID          string         `db:"id"`
	AccountID   string         `db:"account_id"`
	Category    Category       `db:"category"`
	Description string         `db:"description"`
	Metadata    types.JSONText `db:"metadata"`
	CreatedAt   time.Time      `db:"created_at"`
}

// NewRecord assigns the id and serializes metadata. CreatedAt is set by the
// database on insert.
func NewRecord(
	accountID string,
	category Category,
	description string,
	metadata map[string]any,
) (*Record, error) {
	if !category.Valid() {
		return nil, fmt.Errorf(
			"new activity record: unknown category %q: %w",
			category,
			core.ErrInvalidInput,
		)
	}

	if metadata == nil {
		metadata = map[string]any{}
	}

	raw, err := json.Marshal(metadata)
	if err != nil {
		return nil, fmt.Errorf("new activity record: marshal metadata: %w", err)
	}

	return &Record{
		ID:          uuid.New().String(),
		AccountID:   accountID,
		Category:    category,
		Description: description,
		Metadata:    types.JSONText(raw),
	}, nil
}
