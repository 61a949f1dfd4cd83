package port

import (
	"context"
	"io"
)

// PictureStore persists profile pictures. Save normalizes the image to
// the profile thumbnail size and returns the generated file name.
type PictureStore interface {
	Save(ctx context.Context, r io.Reader) (string, error)
	// Remove deletes a stored picture. Removing an absent file is not
	// an error.
	Remove(ctx context.Context, name string) error
}
