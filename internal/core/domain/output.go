package domain

// Output kinds written by a lock run.
const (
	// KindLock is the unified YAML lock.
	KindLock = "lock"
	// KindExplicit is one explicit listing per platform.
	KindExplicit = "explicit"
)
