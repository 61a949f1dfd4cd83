// Package storage keeps uploaded profile pictures on local disk.
package storage

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/image/draw"
)

// Profile pictures are stored as fixed-size thumbnails; the original
// upload is never kept.
const (
	thumbnailSize = 125
	jpegQuality   = 85
)

// PictureStore writes profile pictures under a single directory with
// random file names, so uploads by different users can never collide
// or overwrite each other.
type PictureStore struct {
	dir string
}

func NewPictureStore(dir string) (*PictureStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}
	return &PictureStore{dir: dir}, nil
}

// Save decodes the upload (JPEG or PNG), scales it down to the
// thumbnail size and stores it as JPEG. Returns the generated file
// name.
func (s *PictureStore) Save(ctx context.Context, r io.Reader) (string, error) {
	src, _, err := image.Decode(r)
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}

	name, err := randomName()
	if err != nil {
		return "", err
	}

	thumb := resize(src)

	f, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", fmt.Errorf("create picture file: %w", err)
	}
	defer f.Close()

	if err := jpeg.Encode(f, thumb, &jpeg.Options{Quality: jpegQuality}); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("encode thumbnail: %w", err)
	}
	return name, nil
}

func (s *PictureStore) Remove(ctx context.Context, name string) error {
	// The name is always generated by Save, but guard against path
	// traversal anyway.
	if filepath.Base(name) != name {
		return fmt.Errorf("invalid picture name: %s", name)
	}

	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Path returns the on-disk location of a stored picture.
func (s *PictureStore) Path(name string) string {
	return filepath.Join(s.dir, name)
}

func resize(src image.Image) image.Image {
	bounds := src.Bounds()
	if bounds.Dx() <= thumbnailSize && bounds.Dy() <= thumbnailSize {
		return src
	}

	// Scale the short side to the thumbnail size and crop the excess
	// of the long side around the center.
	side := bounds.Dx()
	if bounds.Dy() < side {
		side = bounds.Dy()
	}
	cx := bounds.Min.X + bounds.Dx()/2
	cy := bounds.Min.Y + bounds.Dy()/2
	crop := image.Rect(cx-side/2, cy-side/2, cx+side/2, cy+side/2)

	dst := image.NewRGBA(image.Rect(0, 0, thumbnailSize, thumbnailSize))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, crop, draw.Over, nil)
	return dst
}

func randomName() (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate picture name: %w", err)
	}
	return hex.EncodeToString(buf) + ".jpg", nil
}
