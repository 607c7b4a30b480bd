package record

import "github.com/alynder/warchest/internal/resource"

// Accumulate reduces a batch of records to the sum of their resource
// quantities and the newest record ID seen.
//
// Pure function. An empty batch yields an all-zero vector and newest ID 0
// (absent); this is not an error.
func Accumulate(records []BankRecord) (resource.Vector, int64) {
	var total resource.Vector
	for _, r := range records {
		total.Add(r.Amounts)
	}
	return total, NewestID(records)
}
