package storage

import (
	"context"
	"errors"
	"io"
)

var ErrDisabled = errors.New("object storage is disabled")

// Uploader stores an object and returns the URL it is served from.
type Uploader interface {
	Upload(ctx context.Context, name, contentType string, r io.Reader, size int64) (string, error)
}

type disabled struct{}

func NewDisabled() Uploader { return disabled{} }

func (disabled) Upload(context.Context, string, string, io.Reader, int64) (string, error) {
	return "", ErrDisabled
}
