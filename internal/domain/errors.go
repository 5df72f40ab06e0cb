package domain

import "errors"

type Kind string

const (
	KindValidation   Kind = "validation"
	KindAuth         Kind = "auth"
	KindConnectivity Kind = "connectivity"
	KindVote         Kind = "vote"
	KindLoad         Kind = "load"
	KindSubmit       Kind = "submit"
)

// Sentinels for errors.Is. A *Error matches the sentinel of its Kind.
var (
	ErrValidation   = errors.New("validation failed")
	ErrAuth         = errors.New("authentication required")
	ErrConnectivity = errors.New("can't reach server")
	ErrVote         = errors.New("failed to record vote")
	ErrLoad         = errors.New("failed to load reports")
	ErrSubmit       = errors.New("failed to submit report")
)

var sentinels = map[Kind]error{
	KindValidation:   ErrValidation,
	KindAuth:         ErrAuth,
	KindConnectivity: ErrConnectivity,
	KindVote:         ErrVote,
	KindLoad:         ErrLoad,
	KindSubmit:       ErrSubmit,
}

// Error is what the client components hand to presentation code. Message is
// the server-supplied text when there was one.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func NewError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if s, ok := sentinels[e.Kind]; ok {
		return s.Error()
	}
	return string(e.Kind) + " error"
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	return sentinels[e.Kind] == target
}

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind, true
	}
	return "", false
}
