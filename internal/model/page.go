package model

import "time"

// Cursor is a keyset position in a newest-first listing. The row id breaks
// ties between rows created at the same instant.
type Cursor struct {
	CreatedAt time.Time
	ID        int64
}
