package testutil

// FixedTraceGenerator returns the same trace ID for every request.
//
// With a fixed trace ID and a DeterministicClock, running the same scenario
// twice produces byte-identical instruction logs.
type FixedTraceGenerator struct {
	id string
}

// NewFixedTraceGenerator creates a generator. An empty id becomes
// "test-trace-default".
func NewFixedTraceGenerator(id string) *FixedTraceGenerator {
	if id == "" {
		id = "test-trace-default"
	}
	return &FixedTraceGenerator{id: id}
}

// Generate returns the fixed trace ID. Implements host.TraceGenerator.
func (g *FixedTraceGenerator) Generate() string {
	return g.id
}
