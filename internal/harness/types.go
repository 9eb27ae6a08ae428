package harness

// TraceEvent records one executed step.
type TraceEvent struct {
	Seq      int64    `json:"seq"`
	Query    string   `json:"query"`
	Args     []string `json:"args"`
	HalfOpen bool     `json:"half_open,omitempty"`
	Results  []string `json:"results,omitempty"`

	// Error is the error class, empty on success.
	Error string `json:"error,omitempty"`

	// Message is the full error text. It is not part of the golden trace.
	Message string `json:"-"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true if every expectation matched.
	Pass bool `json:"pass"`

	// Trace contains one event per step, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains expectation failures. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
