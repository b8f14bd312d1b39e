package evaluator

// DefaultMaxCallDepth bounds recursion when Budget.MaxCallDepth is unset.
const DefaultMaxCallDepth = 512

// Budget holds the resource limits for program execution.
type Budget struct {
	MaxCallDepth int
}

func (b Budget) maxCallDepth() int {
	if b.MaxCallDepth <= 0 {
		return DefaultMaxCallDepth
	}
	return b.MaxCallDepth
}

// BudgetTracker tracks resource consumption during execution.
type BudgetTracker struct {
	CallDepth    int
	MaxDepthSeen int
	Calls        int64
	Iterations   int64
}
