// AngelaMos | 2026
// entity.go

package chat

import (
	"time"

	"github.com/carterperez-dev/medprep/internal/ai"
)

const DefaultThreadTitle = "New conversation"

type Thread struct {
	ID         string    `db:"id"`
	AccountID  string    `db:"account_id"`
	Title      string    `db:"title"`
	TokensUsed int       `db:"tokens_used"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

// Message is append-only. Role is "user" or "assistant".
type Message struct {
	ID         string    `db:"id"`
	ThreadID   string    `db:"thread_id"`
	Role       string    `db:"role"`
	Content    string    `db:"content"`
	TokensUsed int       `db:"tokens_used"`
	CreatedAt  time.Time `db:"created_at"`
}

func (m Message) toAI() ai.Message {
	return ai.Message{Role: ai.Role(m.Role), Text: m.Content}
}
