package metrics

const (
	LabelResource = "resource"
	LabelKind     = "kind"
	LabelOutcome  = "outcome"
	LabelChain    = "chain"
)

const (
	ResourceRequest    = "request"
	ResourceOperator   = "operator"
	ResourceGuild      = "guild"
	ResourceIdentities = "identities"
	ResourceBalance    = "balance"
)

// Job outcomes reported by operators.
const (
	OutcomeAnswered = "answered"
	OutcomeDropped  = "dropped"
	OutcomeFailed   = "failed"
)
