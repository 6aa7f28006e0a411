package ops

import "errors"

// Operator errors. Every failure leaves the input table untouched.
var (
	ErrInvalidParams       = errors.New("invalid parameters")
	ErrUnknownOperator     = errors.New("unknown operator")
	ErrUnknownAgg          = errors.New("unknown aggregation")
	ErrConversion          = errors.New("conversion failed")
	ErrCannotAggregate     = errors.New("cannot aggregate values")
	ErrInsufficientColumns = errors.New("insufficient columns")
	ErrNoNulls             = errors.New("column has no missing values")

	// ErrNotApplied reports that an operator ran but had nothing it could do,
	// such as mean-filling a text column. It is not a failure of the input.
	ErrNotApplied = errors.New("operation not applied")
)
