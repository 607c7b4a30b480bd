package record

import "strings"

// Kind is the semantic classification of a bank record within a scope.
type Kind int

const (
	// Irrelevant records have no effect on any ledger in the scope.
	Irrelevant Kind = iota

	// TaxCredit is automated tax revenue flowing into the scope alliance's
	// treasury.
	TaxCredit

	// MemberDeposit is a nation depositing resources into the scope
	// alliance's bank for safekeeping.
	MemberDeposit

	// MemberWithdrawal is the scope alliance returning safekept resources
	// to a member, marked with the transfer tag.
	MemberWithdrawal

	// AllianceTransfer is a transfer between alliance-level parties that
	// touches the scope alliance's treasury.
	AllianceTransfer

	// OffshoreTagged is a bot-initiated transfer between the two alliances
	// of an offshore pair scope, marked with the transfer tag.
	OffshoreTagged
)

func (k Kind) String() string {
	switch k {
	case TaxCredit:
		return "tax_credit"
	case MemberDeposit:
		return "member_deposit"
	case MemberWithdrawal:
		return "member_withdrawal"
	case AllianceTransfer:
		return "alliance_transfer"
	case OffshoreTagged:
		return "offshore_tagged"
	}
	return "irrelevant"
}

// Rules carries the configurable classification policy.
type Rules struct {
	// TransferTag is the note marker written by the bot when it constructs
	// outgoing transfers. Its presence marks offshore movements and
	// safekeeping withdrawals. The tag is a protocol contract with the
	// command surface, so it is configuration, not a constant.
	TransferTag string

	// TaxIDs is the per-alliance allow-list of tax bracket identifiers.
	// When an alliance has a non-empty list, the list is authoritative:
	// only listed markers count as tax. When no list is configured, any
	// positive marker on a nation→alliance record counts.
	TaxIDs map[int64][]int64
}

// taxAllowed applies the allow-list-authoritative tax policy.
func (r Rules) taxAllowed(allianceID, marker int64, senderRole Role) bool {
	if marker <= 0 {
		return false
	}
	if ids, ok := r.TaxIDs[allianceID]; ok && len(ids) > 0 {
		for _, id := range ids {
			if id == marker {
				return true
			}
		}
		return false
	}
	// No allow-list configured: a present marker on a nation-sent record
	// is trusted.
	return senderRole == RoleNation
}

// tagged reports whether the note carries the configured transfer tag.
// An empty configured tag never matches.
func (r Rules) tagged(note string) bool {
	return r.TransferTag != "" && strings.Contains(note, r.TransferTag)
}

// Classify labels a record with its semantic kind for a scope.
//
// Rules are checked in precedence order and the first match wins. The
// function is pure: the same (record, scope, rules) always yields the same
// kind regardless of call order, which the idempotency guarantees of the
// ledger writer depend on.
func Classify(rec BankRecord, scope Scope, rules Rules) Kind {
	// 1. Tax credit into the scope alliance's treasury.
	if scope.Kind == ScopeAlliance &&
		rec.ReceiverRole.AllianceLike() &&
		rec.ReceiverID == scope.AllianceID &&
		rules.taxAllowed(scope.AllianceID, rec.TaxMarker, rec.SenderRole) {
		return TaxCredit
	}

	// 2. Tagged transfer between the two alliances of a pair scope.
	if rules.tagged(rec.Note) &&
		rec.SenderRole.AllianceLike() && rec.ReceiverRole.AllianceLike() &&
		scope.matchesPair(rec.SenderID, rec.ReceiverID) {
		return OffshoreTagged
	}

	if scope.Kind != ScopeAlliance {
		return Irrelevant
	}

	// 3. Tagged return of safekept resources to a member.
	if rec.SenderRole.AllianceLike() && rec.SenderID == scope.AllianceID &&
		rec.ReceiverRole == RoleNation && rules.tagged(rec.Note) {
		return MemberWithdrawal
	}

	// 4. Member deposit into the scope alliance's bank.
	if rec.SenderRole == RoleNation &&
		rec.ReceiverRole.AllianceLike() && rec.ReceiverID == scope.AllianceID {
		return MemberDeposit
	}

	// 5. Alliance-to-alliance transfer touching the scope treasury.
	if rec.SenderRole.AllianceLike() && rec.ReceiverRole.AllianceLike() &&
		(rec.SenderID == scope.AllianceID || rec.ReceiverID == scope.AllianceID) {
		return AllianceTransfer
	}

	return Irrelevant
}
