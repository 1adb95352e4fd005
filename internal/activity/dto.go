// AngelaMos | 2026
// dto.go

package activity

import (
	"encoding/json"
	"time"
)

const (
	DefaultFeedLimit = 20
	MaxFeedLimit     = 100
)

type RecordResponse struct {
	ID          string          `json:"id"`
	Category    Category        `json:"category"`
	Description string          `json:"description"`
	Metadata    json.RawMessage `json:"metadata"`
	CreatedAt   time.Time       `json:"created_at"`
}

func ToRecordResponse(r *Record) RecordResponse {
	metadata := json.RawMessage(r.Metadata)
	if len(metadata) == 0 {
		metadata = json.RawMessage("{}")
	}

	return RecordResponse{
		ID:          r.ID,
		Category:    r.Category,
		Description: r.Description,
		Metadata:    metadata,
		CreatedAt:   r.CreatedAt,
	}
}

func ToRecordResponseList(records []Record) []RecordResponse {
	responses := make([]RecordResponse, 0, len(records))
	for i := range records {
		responses = append(responses, ToRecordResponse(&records[i]))
	}
	return responses
}

func clampLimit(limit int) int {
	if limit < 1 {
		return DefaultFeedLimit
	}
	if limit > MaxFeedLimit {
		return MaxFeedLimit
	}
	return limit
}
