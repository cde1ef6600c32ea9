package port

import (
	"context"
	"io"
	"time"
)

// AttachmentObject is one attachment file headed for the object store.
type AttachmentObject struct {
	Key         string
	Body        io.Reader
	ContentType string
	Size        int64
}

// ObjectStorage abstracts the attachment object store. The bucket is fixed by the implementation.
type ObjectStorage interface {
	Put(ctx context.Context, obj AttachmentObject) (location string, err error)
	Remove(ctx context.Context, key string) error
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}
