package portfolio

import "errors"

var (
	ErrInvalidBudget       = errors.New("budget must be positive")
	ErrNoAssets            = errors.New("no assets supplied")
	ErrInvalidPrice        = errors.New("asset price must be positive")
	ErrDimensionMismatch   = errors.New("weights, prices and returns must have matching widths")
	ErrInvalidRequest      = errors.New("invalid selection request")
	ErrEmptyHistory        = errors.New("no return history")
	ErrNoFeasiblePortfolio = errors.New("no feasible portfolio under this budget")
)
