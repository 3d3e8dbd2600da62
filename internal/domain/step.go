package domain

// StepKind identifies the remote operation an execution step performs.
type StepKind uint8

const (
	StepApprove StepKind = iota
	StepTransfer
	StepDeposit
	StepSwap
	StepWithdraw
)

func (k StepKind) String() string {
	switch k {
	case StepApprove:
		return "Approve"
	case StepTransfer:
		return "Transfer"
	case StepDeposit:
		return "Deposit"
	case StepSwap:
		return "Swap"
	case StepWithdraw:
		return "Withdraw"
	default:
		return "UNKNOWN"
	}
}

// StepStatus is the lifecycle state of one execution step. Exactly one step
// per pipeline is StatusLoading at a time; Complete, Error and Skipped are
// terminal.
type StepStatus uint8

const (
	StatusPending StepStatus = iota
	StatusLoading
	StatusComplete
	StatusError
	StatusSkipped
)

func (s StepStatus) String() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusLoading:
		return "Loading"
	case StatusComplete:
		return "Complete"
	case StatusError:
		return "Error"
	case StatusSkipped:
		return "Skipped"
	default:
		return "UNKNOWN"
	}
}

// Terminal reports whether the status is final.
func (s StepStatus) Terminal() bool {
	return s == StatusComplete || s == StatusError || s == StatusSkipped
}

// ExecutionStep is one remote operation in a venue pipeline.
type ExecutionStep struct {
	Kind   StepKind   `json:"kind"`
	Status StepStatus `json:"status"`

	// Amount the step moved, in base units. For a completed Deposit this is
	// the actual custodied amount reported by the venue, which becomes the
	// authoritative swap input.
	Amount uint64 `json:"amount,omitempty"`

	// Note annotates skips ("existing approval reused") and completions.
	Note string `json:"note,omitempty"`

	// Err carries the human-readable remote failure for StatusError steps.
	Err string `json:"error,omitempty"`
}

// VenueResult is the outcome of one venue's pipeline: the full ordered step
// list (steps after a failure stay Pending) and the realized swap output.
type VenueResult struct {
	Venue     VenueKind       `json:"venue"`
	Steps     []ExecutionStep `json:"steps"`
	AmountIn  uint64          `json:"amountIn"`
	AmountOut uint64          `json:"amountOut"`
	Err       string          `json:"error,omitempty"`
}

// Success reports whether every attempted step finished without error.
func (r VenueResult) Success() bool {
	return r.Err == ""
}

// ExecutionResult is the combined outcome of a trade. For split trades both
// venue results are present and overall success requires both; single-venue
// trades fill only the matching side.
type ExecutionResult struct {
	Pool    *VenueResult `json:"pool,omitempty"`
	Direct  *VenueResult `json:"direct,omitempty"`
	Success bool         `json:"success"`
}

// ExecutionPrefs carries the caller preferences the orchestrator honors but
// does not decide.
type ExecutionPrefs struct {
	// KeepOutputInPool skips the final pool-venue withdrawal, leaving the
	// proceeds custodied.
	KeepOutputInPool bool `json:"keepOutputInPool"`

	// SlippageBps widens the quoted output into a minimum-out bound.
	// Zero means the configured default.
	SlippageBps uint16 `json:"slippageBps"`
}

// StepObserver receives every step-state transition for progress display.
// Implementations must not block; the orchestrator calls them inline.
type StepObserver interface {
	StepChanged(venue VenueKind, index int, step ExecutionStep)
}

// NopObserver discards all transitions.
type NopObserver struct{}

func (NopObserver) StepChanged(VenueKind, int, ExecutionStep) {}
