package engine

import (
	"errors"
	"fmt"
	"time"
)

// ErrCodeSearchBudgetExceeded is the code carried by BudgetExceededError.
// It continues the numbering of the setup error codes in package ir.
const ErrCodeSearchBudgetExceeded = "E007"

// Budget names the limit that stopped a search.
type Budget string

const (
	// BudgetNodes is the limit on expanded nodes.
	BudgetNodes Budget = "nodes"
	// BudgetTime is the wall-clock limit.
	BudgetTime Budget = "time"
	// BudgetQueue is the limit on nodes waiting in the frontier.
	BudgetQueue Budget = "queue"
)

// BudgetExceededError is returned when a search stops at a budget before
// exhausting the frontier.
//
// This error is not fatal. Run returns it together with every composition
// found up to the stop, which are the best found but not necessarily the
// best that exist.
type BudgetExceededError struct {
	Budget  Budget        // Which limit was reached
	Limit   int64         // The configured limit (nodes, or queued nodes)
	Elapsed time.Duration // Time spent searching
	Nodes   int64         // Nodes expanded before the stop
}

// Error implements the error interface.
func (e *BudgetExceededError) Error() string {
	switch e.Budget {
	case BudgetTime:
		return fmt.Sprintf("[%s] search stopped at time limit %s after %d nodes",
			ErrCodeSearchBudgetExceeded, e.Elapsed.Round(time.Millisecond), e.Nodes)
	case BudgetQueue:
		return fmt.Sprintf("[%s] search stopped: frontier reached %d nodes after %d expansions",
			ErrCodeSearchBudgetExceeded, e.Limit, e.Nodes)
	}
	return fmt.Sprintf("[%s] search stopped at node limit %d after %s",
		ErrCodeSearchBudgetExceeded, e.Limit, e.Elapsed.Round(time.Millisecond))
}

// Code returns the error code.
func (e *BudgetExceededError) Code() string { return ErrCodeSearchBudgetExceeded }

// IsBudgetError returns true if the error is a BudgetExceededError.
// Uses errors.As to handle wrapped errors.
func IsBudgetError(err error) bool {
	var be *BudgetExceededError
	return errors.As(err, &be)
}
