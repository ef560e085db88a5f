package credstore

import (
	"errors"
	"fmt"

	"github.com/jamu/jamu-auth/internal/auth"
)

// Slot names of the persisted credential record
const (
	SlotAccessToken  = "access-token"
	SlotRefreshToken = "refresh-token"
	SlotTokenData    = "token-data"
)

// Slots lists every slot of the persisted record
var Slots = []string{SlotAccessToken, SlotRefreshToken, SlotTokenData}

// ErrNotFound is returned by Get and Delete when a slot holds no secret
var ErrNotFound = errors.New("secret not found")

// Store is a named-secret store backed by platform secure storage.
// Implementations return ErrNotFound for absent slots and a *StoreError for
// anything else.
type Store interface {
	Set(name, value string) error
	Get(name string) (string, error)
	Delete(name string) error
}

// StoreError indicates a secret store failure
type StoreError struct {
	Op   string // "get", "set", "delete"
	Slot string
	Err  error
}

func (e *StoreError) Error() string {
	msg := e.Op + " secret"
	if e.Slot != "" {
		msg += " " + e.Slot
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Is makes every StoreError match auth.ErrStore
func (e *StoreError) Is(target error) bool {
	return target == auth.ErrStore
}

func wrap(op, slot string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) {
		return fmt.Errorf("%s %s: %w", op, slot, ErrNotFound)
	}
	return &StoreError{Op: op, Slot: slot, Err: err}
}
