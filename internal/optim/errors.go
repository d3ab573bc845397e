package optim

import (
	"errors"
)

// Configuration errors.
var (
	ErrUnknownAlgorithm  = errors.New("unknown update algorithm")
	ErrInvalidHyperparam = errors.New("invalid hyperparameter")
	ErrHyperparamCount   = errors.New("wrong number of hyperparameters")
	ErrInvalidDimensions = errors.New("weight dimensions must be positive")
)
