// Package models contains database model definitions and the records the portal persists.
package models

// Entry is a row of a key-value table. The portal keeps its collections
// and, on sqlite, its sessions in tables of this shape.
type Entry struct {
	Key    string `gorm:"column:k;primaryKey;size:191"`
	Value  []byte `gorm:"column:v"`
	Expiry int64  // unix seconds, 0 never expires
}

// Expired reports whether the entry is past its expiry at unix time now.
func (e *Entry) Expired(now int64) bool {
	return e.Expiry != 0 && e.Expiry <= now
}
