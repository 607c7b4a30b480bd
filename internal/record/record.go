package record

import (
	"time"

	"github.com/alynder/warchest/internal/resource"
)

// Role is the kind of party on one side of a bank record.
type Role int

const (
	RoleUnknown  Role = 0
	RoleNation   Role = 1
	RoleAlliance Role = 2
	RoleTreasury Role = 3
)

// AllianceLike reports whether the role represents an alliance-level party.
// Treasury entities behave like alliances for classification purposes.
func (r Role) AllianceLike() bool {
	return r == RoleAlliance || r == RoleTreasury
}

func (r Role) String() string {
	switch r {
	case RoleNation:
		return "nation"
	case RoleAlliance:
		return "alliance"
	case RoleTreasury:
		return "treasury"
	}
	return "unknown"
}

// BankRecord is one upstream bank event: a deposit, withdrawal, tax payment,
// or inter-alliance transfer.
//
// INVARIANTS:
//   - ID is unique and totally ordered within a scope; a higher ID is never
//     earlier than a lower one. IDs are the cursor unit.
//   - A record is immutable once observed. Upstream never edits history.
type BankRecord struct {
	ID           int64
	OccurredAt   time.Time
	SenderRole   Role
	ReceiverRole Role
	SenderID     int64
	ReceiverID   int64
	Note         string

	// TaxMarker is a positive tax bracket identifier on automated tax
	// records; zero means absent.
	TaxMarker int64

	Amounts resource.Vector
}

// Valid reports whether the record is well formed enough to apply to a
// ledger. Invalid records are dropped from a batch with a warning rather
// than failing the whole batch.
func (r BankRecord) Valid() bool {
	return r.ID > 0 && r.Amounts.Valid()
}

// NewestID returns the maximum record ID in the batch, or 0 for an empty
// batch. Zero is never a real record ID, so callers use it as "absent".
func NewestID(records []BankRecord) int64 {
	var newest int64
	for _, r := range records {
		if r.ID > newest {
			newest = r.ID
		}
	}
	return newest
}
