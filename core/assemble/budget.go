package assemble

// budget counts successfully inlined resources for one snapshot.
// Failed fetches are not charged.
type budget struct {
	used int
	max  int
}

func newBudget(max int) *budget {
	return &budget{max: max}
}

func (b *budget) exhausted() bool {
	return b.used >= b.max
}

// consume charges one successful inline. It reports false, and charges
// nothing, when the ceiling is already reached.
func (b *budget) consume() bool {
	if b.exhausted() {
		return false
	}
	b.used++
	return true
}
