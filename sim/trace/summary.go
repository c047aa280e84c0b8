package trace

// TraceSummary aggregates statistics from a Recorder.
type TraceSummary struct {
	TotalEvents int
	LastTime    float64
	PerKind     map[string]int // event kind -> dispatch count
	PerTarget   map[string]int // target name -> dispatch count
}

// Summarize computes aggregate statistics from a Recorder.
// Safe for nil or empty recorders (returns zero-value fields).
func Summarize(r *Recorder) *TraceSummary {
	summary := &TraceSummary{
		PerKind:   make(map[string]int),
		PerTarget: make(map[string]int),
	}
	if r == nil {
		return summary
	}
	summary.TotalEvents = len(r.Records)
	for _, rec := range r.Records {
		summary.PerKind[rec.Kind.String()]++
		summary.PerTarget[rec.Target]++
		if rec.Time > summary.LastTime {
			summary.LastTime = rec.Time
		}
	}
	return summary
}
