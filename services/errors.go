package services

import "errors"

var (
	// ErrOrderNotFound means the order id is absent from every reachable kitchen store
	ErrOrderNotFound = errors.New("order not found")

	// ErrKitchenNotFound means the kitchen id is not in the registry snapshot
	ErrKitchenNotFound = errors.New("kitchen not found")

	// ErrAlreadyHandled means the decision point was already consumed.
	// Benign under double submission; surfaced as "already processed".
	ErrAlreadyHandled = errors.New("already handled")

	// ErrNothingToSettle means a settlement found zero unpaid commissions
	ErrNothingToSettle = errors.New("nothing to settle")

	// ErrContractViolation means a collaborator answered success but omitted
	// a field this core depends on
	ErrContractViolation = errors.New("collaborator contract violation")
)
