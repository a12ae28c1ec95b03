package store

import "errors"

var (
	ErrIndexUnreachable  = errors.New("index server unreachable")
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	ErrBatchMismatch     = errors.New("texts, metadatas and ids must have equal length")
)
