package contracts

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a row addressed by id or symbol does not exist
var ErrNotFound = errors.New("not found")

// ProviderFetchError is a per-symbol quote fetch failure. Never fatal to a cycle.
type ProviderFetchError struct {
	Symbol         string
	ProviderSymbol string
	StatusCode     int  // 0 when no response was received
	Timeout        bool // request exceeded its bound
	Err            error
}

func (e *ProviderFetchError) Error() string {
	switch {
	case e.Timeout:
		return fmt.Sprintf("fetch %s (%s): timeout: %v", e.Symbol, e.ProviderSymbol, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("fetch %s (%s): status %d: %v", e.Symbol, e.ProviderSymbol, e.StatusCode, e.Err)
	default:
		return fmt.Sprintf("fetch %s (%s): %v", e.Symbol, e.ProviderSymbol, e.Err)
	}
}

func (e *ProviderFetchError) Unwrap() error { return e.Err }

// PersistenceWriteError is a failed write. The symbol's pipeline stops at Op.
type PersistenceWriteError struct {
	Op     string // "update_instrument", "activate_signal", ...
	Symbol string
	Err    error
}

func (e *PersistenceWriteError) Error() string {
	if e.Symbol == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Symbol, e.Err)
}

func (e *PersistenceWriteError) Unwrap() error { return e.Err }
