// AngelaMos | 2026
// types.go

package ai

import (
	"context"
	"strings"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// Deterministic requests greedy sampling. The provider wire format drops a
// literal zero temperature, so zero means "client default" instead.
const Deterministic float32 = -1

// Request is one completion call. History is sent as-is, so callers bound
// it before building the request. A zero Temperature or MaxTokens falls
// back to the client defaults; set Temperature to Deterministic for
// temperature 0.
type Request struct {
	System      string
	History     []Message
	Prompt      string
	Temperature float32
	MaxTokens   int
	Structured  bool
}

// InputText is the text the usage estimate is computed from.
func (r Request) InputText() string {
	var b strings.Builder
	b.WriteString(r.System)
	for _, m := range r.History {
		b.WriteString(m.Text)
	}
	b.WriteString(r.Prompt)
	return b.String()
}

type Completion struct {
	Text         string
	Units        int
	Model        string
	FinishReason string
}

type Client interface {
	Complete(ctx context.Context, req Request) (*Completion, error)
}

// ClientFunc adapts a function to the Client interface.
type ClientFunc func(ctx context.Context, req Request) (*Completion, error)

func (f ClientFunc) Complete(
	ctx context.Context,
	req Request,
) (*Completion, error) {
	return f(ctx, req)
}
