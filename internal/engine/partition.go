package engine

// Partition splits the two tables' key sets into three disjoint groups.
//
// Invariants: OnlyLeft ∪ Common = keys(left), OnlyRight ∪ Common =
// keys(right), and no key appears in two groups. Each slice preserves
// the first-appearance order of its source table (Common follows the
// left table's order).
type Partition struct {
	OnlyLeft  []Key
	OnlyRight []Key
	Common    []Key
}

// BuildPartition classifies every key of both indexes.
func BuildPartition(left, right *Index) Partition {
	var p Partition
	for _, k := range left.Order {
		if right.Has(k) {
			p.Common = append(p.Common, k)
		} else {
			p.OnlyLeft = append(p.OnlyLeft, k)
		}
	}
	for _, k := range right.Order {
		if !left.Has(k) {
			p.OnlyRight = append(p.OnlyRight, k)
		}
	}
	return p
}
