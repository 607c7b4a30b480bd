// Package resource defines the fixed twelve-resource quantity vector that
// every bank record, delta, and balance in warchest is expressed in.
//
// Money is the currency resource; the remaining eleven are raw and
// manufactured goods. The set is closed: upstream records never carry other
// resource kinds, and the balances table has one column per name.
package resource

import "math"

// Name identifies one of the twelve tracked resources.
type Name string

const (
	Money     Name = "money"
	Coal      Name = "coal"
	Oil       Name = "oil"
	Uranium   Name = "uranium"
	Iron      Name = "iron"
	Bauxite   Name = "bauxite"
	Lead      Name = "lead"
	Gasoline  Name = "gasoline"
	Munitions Name = "munitions"
	Steel     Name = "steel"
	Aluminum  Name = "aluminum"
	Food      Name = "food"
)

// All lists the resource names in canonical order. Iteration over a vector
// always follows this order so that reports and ledger writes are
// deterministic.
var All = [...]Name{
	Money, Coal, Oil, Uranium, Iron, Bauxite,
	Lead, Gasoline, Munitions, Steel, Aluminum, Food,
}

// Known reports whether n is one of the twelve tracked resource names.
func Known(n Name) bool {
	for _, k := range All {
		if k == n {
			return true
		}
	}
	return false
}

// Vector is a quantity per resource. Quantities on upstream records are
// non-negative; ledger deltas and offshore balances may be signed.
//
// The JSON tags match the upstream API field names, so a raw record's
// amounts decode directly into a Vector.
type Vector struct {
	Money     float64 `json:"money" yaml:"money"`
	Coal      float64 `json:"coal" yaml:"coal"`
	Oil       float64 `json:"oil" yaml:"oil"`
	Uranium   float64 `json:"uranium" yaml:"uranium"`
	Iron      float64 `json:"iron" yaml:"iron"`
	Bauxite   float64 `json:"bauxite" yaml:"bauxite"`
	Lead      float64 `json:"lead" yaml:"lead"`
	Gasoline  float64 `json:"gasoline" yaml:"gasoline"`
	Munitions float64 `json:"munitions" yaml:"munitions"`
	Steel     float64 `json:"steel" yaml:"steel"`
	Aluminum  float64 `json:"aluminum" yaml:"aluminum"`
	Food      float64 `json:"food" yaml:"food"`
}

// Get returns the quantity for a resource name. Unknown names return 0.
func (v Vector) Get(n Name) float64 {
	switch n {
	case Money:
		return v.Money
	case Coal:
		return v.Coal
	case Oil:
		return v.Oil
	case Uranium:
		return v.Uranium
	case Iron:
		return v.Iron
	case Bauxite:
		return v.Bauxite
	case Lead:
		return v.Lead
	case Gasoline:
		return v.Gasoline
	case Munitions:
		return v.Munitions
	case Steel:
		return v.Steel
	case Aluminum:
		return v.Aluminum
	case Food:
		return v.Food
	}
	return 0
}

// Set assigns the quantity for a resource name. Unknown names are ignored.
func (v *Vector) Set(n Name, q float64) {
	switch n {
	case Money:
		v.Money = q
	case Coal:
		v.Coal = q
	case Oil:
		v.Oil = q
	case Uranium:
		v.Uranium = q
	case Iron:
		v.Iron = q
	case Bauxite:
		v.Bauxite = q
	case Lead:
		v.Lead = q
	case Gasoline:
		v.Gasoline = q
	case Munitions:
		v.Munitions = q
	case Steel:
		v.Steel = q
	case Aluminum:
		v.Aluminum = q
	case Food:
		v.Food = q
	}
}

// Add accumulates o into v.
func (v *Vector) Add(o Vector) {
	v.AddScaled(o, 1)
}

// AddScaled accumulates o*sign into v. Used by the offshore ledger, where
// outbound transfers carry sign +1 and returning transfers sign -1.
func (v *Vector) AddScaled(o Vector, sign float64) {
	for _, n := range All {
		v.Set(n, v.Get(n)+sign*o.Get(n))
	}
}

// IsZero reports whether every quantity is exactly zero.
func (v Vector) IsZero() bool {
	return v == Vector{}
}

// Valid reports whether every quantity is a finite number. Upstream
// occasionally emits malformed amounts; such records are dropped rather
// than poisoning a balance.
func (v Vector) Valid() bool {
	for _, n := range All {
		q := v.Get(n)
		if math.IsNaN(q) || math.IsInf(q, 0) {
			return false
		}
	}
	return true
}
