package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/alynder/warchest/internal/record"
	"github.com/alynder/warchest/internal/resource"
)

// Scenario defines one end-to-end reconciliation scenario: a scope, a
// classification policy, and a sequence of ticks during which the upstream
// feed grows. Scenarios run against a fresh store and their final state is
// compared against a golden snapshot.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Scope is the synchronization scope the engine runs over.
	Scope ScopeSpec `yaml:"scope"`

	// TransferTag marks deliberate transfers (withdrawals, offshore moves).
	TransferTag string `yaml:"transfer_tag,omitempty"`

	// TaxIDs is the tax bracket allow-list for the scope's alliance.
	TaxIDs []int64 `yaml:"tax_ids,omitempty"`

	// Ticks is the sequence of reconciliation passes. Each tick's records
	// are appended to the upstream feed before the pass runs.
	Ticks []Tick `yaml:"ticks"`
}

// ScopeSpec selects the scenario's scope: either an alliance ID, or an
// owner/offshore pair. Exactly one form must be set.
type ScopeSpec struct {
	Alliance int64 `yaml:"alliance,omitempty"`
	Owner    int64 `yaml:"owner,omitempty"`
	Offshore int64 `yaml:"offshore,omitempty"`
}

func (s ScopeSpec) scope() (record.Scope, error) {
	switch {
	case s.Alliance > 0 && s.Owner == 0 && s.Offshore == 0:
		return record.AllianceScope(s.Alliance), nil
	case s.Alliance == 0 && s.Owner > 0 && s.Offshore > 0:
		return record.OffshoreScope(s.Owner, s.Offshore), nil
	}
	return record.Scope{}, fmt.Errorf("scope must set either alliance, or owner and offshore")
}

// Tick is one reconciliation pass.
type Tick struct {
	// RewindTo, when set, forces the cursor back before the pass runs.
	// Simulates a crash after ledger writes but before the cursor advance:
	// the pass re-fetches and re-applies records already in the ledger.
	RewindTo *int64 `yaml:"rewind_to,omitempty"`

	// Records are appended to the upstream feed before this pass.
	Records []Record `yaml:"records"`
}

// Record is the YAML form of one upstream bank record.
type Record struct {
	ID           int64              `yaml:"id"`
	SenderRole   string             `yaml:"sender_role"`
	SenderID     int64              `yaml:"sender_id"`
	ReceiverRole string             `yaml:"receiver_role"`
	ReceiverID   int64              `yaml:"receiver_id"`
	Note         string             `yaml:"note,omitempty"`
	TaxID        int64              `yaml:"tax_id,omitempty"`
	Amounts      map[string]float64 `yaml:"amounts"`
}

var roleNames = map[string]record.Role{
	"nation":   record.RoleNation,
	"alliance": record.RoleAlliance,
	"treasury": record.RoleTreasury,
}

func (r Record) toBankRecord() (record.BankRecord, error) {
	senderRole, ok := roleNames[r.SenderRole]
	if !ok {
		return record.BankRecord{}, fmt.Errorf("record %d: unknown sender_role %q", r.ID, r.SenderRole)
	}
	receiverRole, ok := roleNames[r.ReceiverRole]
	if !ok {
		return record.BankRecord{}, fmt.Errorf("record %d: unknown receiver_role %q", r.ID, r.ReceiverRole)
	}

	var amounts resource.Vector
	for name, q := range r.Amounts {
		n := resource.Name(name)
		if !resource.Known(n) {
			return record.BankRecord{}, fmt.Errorf("record %d: unknown resource %q", r.ID, name)
		}
		amounts.Set(n, q)
	}

	return record.BankRecord{
		ID:           r.ID,
		SenderRole:   senderRole,
		SenderID:     r.SenderID,
		ReceiverRole: receiverRole,
		ReceiverID:   r.ReceiverID,
		Note:         r.Note,
		TaxMarker:    r.TaxID,
		Amounts:      amounts,
	}, nil
}

// LoadScenario reads and parses a scenario YAML file. Unknown fields are
// rejected so that typos fail loudly instead of silently dropping records.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("parse scenario YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario %s: %w", path, err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if _, err := s.Scope.scope(); err != nil {
		return err
	}
	if len(s.Ticks) == 0 {
		return fmt.Errorf("ticks list is required and must be non-empty")
	}

	seen := map[int64]bool{}
	for i, tick := range s.Ticks {
		for j, rec := range tick.Records {
			if rec.ID <= 0 {
				return fmt.Errorf("ticks[%d].records[%d]: id must be positive", i, j)
			}
			if seen[rec.ID] {
				return fmt.Errorf("ticks[%d].records[%d]: duplicate record id %d", i, j, rec.ID)
			}
			seen[rec.ID] = true
			if _, err := rec.toBankRecord(); err != nil {
				return fmt.Errorf("ticks[%d].records[%d]: %w", i, j, err)
			}
		}
	}
	return nil
}
