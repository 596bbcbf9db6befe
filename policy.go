package linkz

// Policy selects how a Pipeline combines the boolean answers of its stages
// into one final result.
type Policy int

const (
	// All requires every stage to accept. The first reject determines the
	// outcome and short-circuits execution: trailing stages are never
	// invoked. Use All when a failed stage makes downstream work
	// meaningless, such as a source whose origin is missing.
	All Policy = iota

	// Any accepts if at least one stage accepted. Every stage is invoked
	// exactly once regardless of outcome, so each one still performs its
	// side effects. Use Any when stages act independently and the caller
	// only needs to know whether at least one succeeded.
	Any
)

// String returns the policy name for debugging and span tags.
func (p Policy) String() string {
	switch p {
	case All:
		return "all"
	case Any:
		return "any"
	default:
		return "unknown"
	}
}

// neutral returns the result of processing with no stages at all: the
// identity element of the policy's combination rule.
func (p Policy) neutral() bool {
	return p == All
}
