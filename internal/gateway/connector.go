package gateway

import (
	"context"

	"github.com/google/uuid"
)

// Authorization describes an outbound rail operation awaiting approval.
type Authorization struct {
	Operation  string // journal transaction type
	ContractID string
	Phone      string
	RIB        string
	Amount     int64
	Reference  string
}

// Decision is the rail's answer to an authorization request.
type Decision struct {
	Reference string
	Status    string
}

// Connector fronts the banking rail, real or simulated. The protocol engine
// exposes the same contract either way.
type Connector interface {
	Authorize(ctx context.Context, auth Authorization) (Decision, error)
}

// Static simulates an always-approving rail with synthetic references.
type Static struct{}

// Authorize approves the operation.
func (Static) Authorize(_ context.Context, _ Authorization) (Decision, error) {
	return Decision{Reference: uuid.NewString(), Status: "approved"}, nil
}
