package common

import "errors"

// Category groups failures by how a caller should react to them.
type Category uint8

const (
	CategoryUnknown Category = iota
	// CategoryPrecondition failures are caller-correctable.
	CategoryPrecondition
	CategoryAuthorization
	// CategoryArithmetic failures come from checked math refusing to wrap.
	CategoryArithmetic
	// CategoryState failures mean a required record is missing or conflicting.
	CategoryState
)

func (c Category) String() string {
	switch c {
	case CategoryPrecondition:
		return "precondition"
	case CategoryAuthorization:
		return "authorization"
	case CategoryArithmetic:
		return "arithmetic"
	case CategoryState:
		return "state"
	default:
		return "unknown"
	}
}

// Error is a sentinel carrying its category. Compare with errors.Is.
type Error struct {
	category Category
	msg      string
}

func NewError(category Category, msg string) *Error {
	return &Error{category: category, msg: msg}
}

func (e *Error) Error() string { return e.msg }

func (e *Error) Category() Category { return e.category }

// CategoryOf returns the category of the first categorised error in err's chain.
func CategoryOf(err error) Category {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.category
	}
	return CategoryUnknown
}
