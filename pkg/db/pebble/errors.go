package pebble

import "errors"

var (
	ErrClosed    = errors.New("pebble: store is closed")
	ErrBatchDone = errors.New("pebble: batch already committed or closed")
)
