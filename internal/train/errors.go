package train

import "errors"

// Training errors.
var (
	ErrInvalidModel   = errors.New("invalid model")
	ErrEmptyDataset   = errors.New("dataset is empty")
	ErrCheckpointKind = errors.New("checkpoint does not hold a model")
)
