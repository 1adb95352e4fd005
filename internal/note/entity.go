// AngelaMos | 2026
// entity.go

package note

import "time"

// Note is the one owner-editable artifact.
type Note struct {
	ID        string    `db:"id"`
	AccountID string    `db:"account_id"`
	Title     string    `db:"title"`
	Content   string    `db:"content"`
	Topic     string    `db:"topic"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}
