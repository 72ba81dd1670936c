package domain

import "errors"

var (
	ErrNotFound              = errors.New("not found")
	ErrMultipleRecords       = errors.New("multiple records")
	ErrDuplicate             = errors.New("duplicate record")
	ErrInvalidInput          = errors.New("invalid input")
	ErrInsufficientInventory = errors.New("insufficient inventory")
	ErrLedgerMismatch        = errors.New("cost basis does not match lot trail")
	ErrOpenPosition          = errors.New("ledger still holds open inventory")
	ErrLedgerBusy            = errors.New("another cost basis run holds the ledger lock")
)
