package protocol

import "fmt"

// Rejection codes for agent output that cannot be turned into an action.
const (
	// Payload was not JSON or violated the action schema.
	ErrSchemaViolation = "E_SCHEMA_VIOLATION"

	// Schema-valid but missing a companion field its kind requires.
	ErrMissingField = "E_MISSING_FIELD"

	// Schema-valid but unaffordable at request time.
	ErrInfeasible = "E_INFEASIBLE"

	// The agent endpoint was unreachable or returned garbage.
	ErrTransport = "E_TRANSPORT"
)

// Rejection explains why a proposed action was refused. The reason string is
// fed back to the agent on the next retry attempt.
type Rejection struct {
	Code   string
	Reason string
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("%s: %s", r.Code, r.Reason)
}

func Reject(code, format string, args ...any) *Rejection {
	return &Rejection{Code: code, Reason: fmt.Sprintf(format, args...)}
}
