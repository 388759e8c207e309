package raster

import (
	"math"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

var (
	regularOnce sync.Once
	regularFont *opentype.Font
	regularErr  error
)

func loadRegular() (*opentype.Font, error) {
	regularOnce.Do(func() {
		regularFont, regularErr = opentype.Parse(goregular.TTF)
	})
	return regularFont, regularErr
}

// faceCache keeps one face per pixel size. Faces are not safe for
// concurrent use, so each surface owns its cache.
type faceCache struct {
	faces map[float64]font.Face
}

func newFaceCache() *faceCache {
	return &faceCache{faces: map[float64]font.Face{}}
}

func (c *faceCache) face(size float64) (font.Face, error) {
	f, err := loadRegular()
	if err != nil {
		return nil, err
	}
	size = math.Max(1, math.Round(size*4)/4)
	if face, ok := c.faces[size]; ok {
		return face, nil
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, err
	}
	c.faces[size] = face
	return face, nil
}

func (c *faceCache) close() {
	for size, face := range c.faces {
		_ = face.Close()
		delete(c.faces, size)
	}
}
