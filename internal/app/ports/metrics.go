package ports

type ApplyStats struct {
	Passes   int
	Actions  map[string]int
	Blocked  int
	Missing  int
	Fallback bool
}

type ReconcileMetrics interface {
	RecordApplied(stats ApplyStats)
	RecordBlocked()
	RecordFailure()
}
