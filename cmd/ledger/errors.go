package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/subcommands"

	"github.com/josh-kwaku/fifo-ledger/internal/domain"
)

type cliError struct {
	Status  subcommands.ExitStatus
	Code    string
	Message string
}

var (
	errInvalidInput          = cliError{subcommands.ExitUsageError, "INVALID_INPUT", "Invalid input"}
	errNotFound              = cliError{subcommands.ExitFailure, "NOT_FOUND", "Record not found"}
	errMultipleRecords       = cliError{subcommands.ExitFailure, "MULTIPLE_RECORDS", "More than one record matched"}
	errDuplicate             = cliError{subcommands.ExitFailure, "DUPLICATE", "Record already exists (cost basis must be reset before recomputing)"}
	errInsufficientInventory = cliError{subcommands.ExitFailure, "INSUFFICIENT_INVENTORY", "Sale exceeds held inventory"}
	errLedgerMismatch        = cliError{subcommands.ExitFailure, "LEDGER_MISMATCH", "Stored cost basis disagrees with the lot trail"}
	errOpenPosition          = cliError{subcommands.ExitFailure, "OPEN_POSITION", "Ledger still holds inventory, verification needs a closed position"}
	errLedgerBusy            = cliError{subcommands.ExitFailure, "LEDGER_BUSY", "Another cost basis run is in progress"}
	errInternal              = cliError{subcommands.ExitFailure, "INTERNAL_ERROR", "An unexpected error occurred"}
)

func classify(err error) cliError {
	switch {
	case errors.Is(err, domain.ErrInsufficientInventory):
		return errInsufficientInventory
	case errors.Is(err, domain.ErrLedgerMismatch):
		return errLedgerMismatch
	case errors.Is(err, domain.ErrOpenPosition):
		return errOpenPosition
	case errors.Is(err, domain.ErrLedgerBusy):
		return errLedgerBusy
	case errors.Is(err, domain.ErrDuplicate):
		return errDuplicate
	case errors.Is(err, domain.ErrInvalidInput):
		return errInvalidInput
	case errors.Is(err, domain.ErrNotFound):
		return errNotFound
	case errors.Is(err, domain.ErrMultipleRecords):
		return errMultipleRecords
	default:
		return errInternal
	}
}

// report prints err to stderr and returns the exit status for its class.
func report(err error) subcommands.ExitStatus {
	ce := classify(err)
	if ce.Code == errInternal.Code {
		slog.Error("command failed", "error", err)
	}
	fmt.Fprintf(os.Stderr, "error [%s]: %s: %v\n", ce.Code, ce.Message, err)
	return ce.Status
}
