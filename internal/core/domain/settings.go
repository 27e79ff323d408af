package domain

// Settings is the process configuration assembled from the environment.
// Command-line flags override individual fields per invocation.
type Settings struct {
	Solver      SolverConfig
	Workers     int
	PyPIURL     string
	LockFile    string
	Credentials string
	JSONLogs    bool
	Verbose     bool
}
