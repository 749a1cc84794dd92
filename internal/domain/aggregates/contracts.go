package aggregates

// Contract describes an aggregate's write boundary. Every write opens and
// commits its own transaction; callers never pass one in.
type Contract struct {
	// Name prefixes the operation label of each write, e.g.
	// "Survey.CompanyAverage.RecordScores".
	Name string
	// LockScope names the key writes are serialized on, empty when they
	// rely on compare-and-set alone.
	LockScope  string
	Invariants []string
}

type Aggregate interface {
	Contract() Contract
}

// Op is the label hooks, metrics and errors use for one write method.
func (c Contract) Op(method string) string {
	return c.Name + "." + method
}
