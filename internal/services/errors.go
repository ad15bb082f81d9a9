package services

import "errors"

// Kind classifies engine failures so transport layers can map them to
// status codes without string matching.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindConflict
	KindPermission
	KindNotFound
)

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func NewValidation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

func NewConflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

func NewPermission(message string) *Error {
	return &Error{Kind: KindPermission, Message: message}
}

func NewNotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

// ErrRoleFilled is the losing side of the slot race on acceptApplication.
// Callers may retry once after re-reading role state; the message is part
// of the contract so the UI can refresh immediately.
var ErrRoleFilled = NewConflict("role already filled")

func kindOf(err error) Kind {
	var e *Error

	if errors.As(err, &e) {
		return e.Kind
	}

	return 0
}

func IsValidation(err error) bool { return kindOf(err) == KindValidation }
func IsConflict(err error) bool   { return kindOf(err) == KindConflict }
func IsPermission(err error) bool { return kindOf(err) == KindPermission }
func IsNotFound(err error) bool   { return kindOf(err) == KindNotFound }
