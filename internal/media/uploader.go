// Package media is the seam to the external media host. Uploading,
// transcoding, and storage are collaborator concerns; the core only needs a
// serving URL for the message document.
package media

import "context"

// Uploader stores client-submitted media and returns a serving URL.
type Uploader interface {
	UploadImage(ctx context.Context, data string) (string, error)
	UploadVideo(ctx context.Context, data string) (string, error)
}

// Passthrough returns the submitted data unchanged. It stands in for the
// media host when clients already hold a URL, and in tests.
type Passthrough struct{}

func NewPassthrough() Passthrough { return Passthrough{} }

func (Passthrough) UploadImage(_ context.Context, data string) (string, error) {
	return data, nil
}

func (Passthrough) UploadVideo(_ context.Context, data string) (string, error) {
	return data, nil
}
