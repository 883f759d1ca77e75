package metrics

// Prometheus metric namespaces
const (
	namespaceOracle   = "oracle"
	namespaceOperator = "operator"
	namespaceStorage  = "storage"
)

// Prometheus metric subsystems
const (
	subsystemRequests  = "requests"
	subsystemOperators = "operators"
	subsystemJobs      = "jobs"
	subsystemLookup    = "lookup"
	subsystemCache     = "cache"
)
