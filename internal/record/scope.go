package record

import "fmt"

// ScopeKind distinguishes the two units of synchronization.
type ScopeKind int

const (
	// ScopeAlliance synchronizes one alliance's treasury and member
	// safekeeping ledgers.
	ScopeAlliance ScopeKind = iota

	// ScopeOffshorePair synchronizes the net holding an offshore alliance
	// keeps on behalf of an owner alliance.
	ScopeOffshorePair
)

// Scope is one unit of synchronization: a single alliance, or an alliance
// pair for offshore netting. Each scope has its own cursor and is fetched,
// classified, and applied independently of every other scope.
type Scope struct {
	Kind ScopeKind

	// AllianceID is set for ScopeAlliance.
	AllianceID int64

	// Owner and Offshore are set for ScopeOffshorePair. The pair is
	// unordered for matching records, but the order fixes the sign
	// convention: Owner→Offshore is positive, Offshore→Owner negative.
	Owner    int64
	Offshore int64
}

// AllianceScope returns the scope for a single alliance.
func AllianceScope(allianceID int64) Scope {
	return Scope{Kind: ScopeAlliance, AllianceID: allianceID}
}

// OffshoreScope returns the pair scope for resources the offshore alliance
// holds on behalf of the owner alliance.
func OffshoreScope(owner, offshore int64) Scope {
	return Scope{Kind: ScopeOffshorePair, Owner: owner, Offshore: offshore}
}

// Key returns the stable scope key used for cursors and single-flight
// tracking. Pair keys preserve owner/offshore order because the sign
// convention depends on it.
func (s Scope) Key() string {
	switch s.Kind {
	case ScopeOffshorePair:
		return fmt.Sprintf("offshore:%d:%d", s.Owner, s.Offshore)
	default:
		return fmt.Sprintf("alliance:%d", s.AllianceID)
	}
}

func (s Scope) String() string { return s.Key() }

// matchesPair reports whether {a, b} equals the unordered scope pair.
func (s Scope) matchesPair(a, b int64) bool {
	if s.Kind != ScopeOffshorePair {
		return false
	}
	return (a == s.Owner && b == s.Offshore) || (a == s.Offshore && b == s.Owner)
}

// MemberTarget is the balance target key for a member's safekeeping.
func MemberTarget(nationID int64) string {
	return fmt.Sprintf("member:%d", nationID)
}

// AllianceTarget is the balance target key for an alliance's treasury.
func AllianceTarget(allianceID int64) string {
	return fmt.Sprintf("alliance:%d", allianceID)
}
