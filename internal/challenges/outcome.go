package challenges

// Reason explains a rejection.
type Reason uint8

const (
	ReasonNone Reason = iota
	ReasonNoCodeIssued
	ReasonNoTokenIssued
	ReasonMismatch
	ReasonExpired
)

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonNoCodeIssued:
		return "no_code_issued"
	case ReasonNoTokenIssued:
		return "no_token_issued"
	case ReasonMismatch:
		return "mismatch"
	case ReasonExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// Outcome is the result of validating a supplied secret.
type Outcome struct {
	Accepted bool
	Reason   Reason
}

func accepted() Outcome { return Outcome{Accepted: true} }

func rejected(r Reason) Outcome { return Outcome{Reason: r} }
