package sqlite

import (
	"context"
	"database/sql"
)

// ContactResolver maps WhatsApp LIDs to phone numbers using the lid map the
// WhatsApp device store keeps in the same database file.
type ContactResolver struct {
	db *sql.DB
}

func NewContactResolver(db *sql.DB) *ContactResolver {
	return &ContactResolver{db: db}
}

// ResolveLIDToPhone returns lid unchanged when no mapping is known.
func (r *ContactResolver) ResolveLIDToPhone(ctx context.Context, lid string) string {
	var pn string
	err := r.db.QueryRowContext(ctx, `SELECT pn FROM whatsmeow_lid_map WHERE lid = ?`, lid).Scan(&pn)
	if err != nil || pn == "" {
		return lid
	}
	return pn
}
