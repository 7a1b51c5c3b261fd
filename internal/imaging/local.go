package imaging

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"github.com/google/uuid"
	xdraw "golang.org/x/image/draw"
)

const (
	localMaxDimension = 2048
	localWebPQuality  = 80
	pixelateBlockSize = 16
)

// LocalStorage keeps photos on the local filesystem as WebP files and serves
// them from the /media/ route. Transforms are computed eagerly and stored as
// derived files next to the original.
type LocalStorage struct {
	dir     string
	baseURL string
}

// NewLocalStorage creates the media directory if needed.
func NewLocalStorage(dir, baseURL string) (*LocalStorage, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create media dir %s: %w", dir, err)
	}
	return &LocalStorage{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Upload validates, resizes and re-encodes the photo as WebP on disk.
func (s *LocalStorage) Upload(_ context.Context, content []byte, contentType string) (string, string, error) {
	if len(content) == 0 {
		return "", "", fmt.Errorf("empty file")
	}

	detected := http.DetectContentType(content)
	if !strings.HasPrefix(detected, "image/") {
		return "", "", fmt.Errorf("unsupported content type %q", detected)
	}
	if ct := strings.ToLower(strings.TrimSpace(contentType)); ct != "" && !strings.HasPrefix(ct, "image/") {
		return "", "", fmt.Errorf("unsupported content type %q", contentType)
	}

	decoded, _, err := image.Decode(bytes.NewReader(content))
	if err != nil {
		return "", "", fmt.Errorf("invalid image file: %w", err)
	}

	resized := resizeToFit(decoded, localMaxDimension, localMaxDimension)
	encoded, err := encodeWebP(resized)
	if err != nil {
		return "", "", err
	}

	publicID := uuid.NewString()
	if err := s.writeFile(s.path(publicID), encoded); err != nil {
		return "", "", err
	}

	return s.urlFor(publicID), publicID, nil
}

// Transform applies the effect to the stored original and writes a derived file.
// Repeated calls for the same effect overwrite the same derived file, so the
// operation is idempotent.
func (s *LocalStorage) Transform(_ context.Context, publicID string, effect Effect) (string, error) {
	if !isValidPublicID(publicID) {
		return "", fmt.Errorf("invalid public id %q", publicID)
	}

	raw, err := os.ReadFile(s.path(publicID))
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("photo %s not found in media store", publicID)
		}
		return "", err
	}

	src, err := webp.Decode(bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("stored photo %s is corrupt: %w", publicID, err)
	}

	var out image.Image
	switch effect {
	case EffectGrayscale:
		out = applyGrayscale(src)
	case EffectSepia:
		out = applySepia(src)
	case EffectPixelate:
		out = applyPixelate(src, pixelateBlockSize)
	default:
		return "", fmt.Errorf("unknown effect %q", effect)
	}

	encoded, err := encodeWebP(out)
	if err != nil {
		return "", err
	}

	derivedID := publicID + "_" + effect.String()
	if err := s.writeFile(s.path(derivedID), encoded); err != nil {
		return "", err
	}

	return s.urlFor(derivedID), nil
}

// Delete removes the original and any derived transforms.
func (s *LocalStorage) Delete(_ context.Context, publicID string) error {
	if !isValidPublicID(publicID) {
		return fmt.Errorf("invalid public id %q", publicID)
	}
	if err := os.Remove(s.path(publicID)); err != nil && !os.IsNotExist(err) {
		return err
	}
	for _, effect := range []Effect{EffectGrayscale, EffectSepia, EffectPixelate} {
		derived := s.path(publicID + "_" + effect.String())
		if err := os.Remove(derived); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

// Dir returns the directory files are stored in, for mounting as a static route.
func (s *LocalStorage) Dir() string {
	return s.dir
}

func (s *LocalStorage) path(id string) string {
	return filepath.Join(s.dir, id+".webp")
}

func (s *LocalStorage) urlFor(id string) string {
	return fmt.Sprintf("%s/media/%s.webp", s.baseURL, id)
}

func (s *LocalStorage) writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// isValidPublicID rejects anything that could escape the media directory.
func isValidPublicID(id string) bool {
	if id == "" || len(id) > 128 {
		return false
	}
	for _, c := range id {
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '-' || c == '_':
		default:
			return false
		}
	}
	return true
}

func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if w <= 0 || h <= 0 {
		return src
	}
	if w <= maxWidth && h <= maxHeight {
		return src
	}

	scaleW := float64(maxWidth) / float64(w)
	scaleH := float64(maxHeight) / float64(h)
	scale := scaleW
	if scaleH < scale {
		scale = scaleH
	}
	newW := int(float64(w) * scale)
	newH := int(float64(h) * scale)
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

func encodeWebP(img image.Image) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, img, &webp.Options{Quality: localWebPQuality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func applyGrayscale(src image.Image) image.Image {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			g := color.GrayModel.Convert(src.At(x, y)).(color.Gray)
			dst.Set(x-b.Min.X, y-b.Min.Y, color.RGBA{R: g.Y, G: g.Y, B: g.Y, A: 0xff})
		}
	}
	return dst
}

func applySepia(src image.Image) image.Image {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := src.At(x, y).RGBA()
			rf := float64(r >> 8)
			gf := float64(g >> 8)
			bf := float64(bl >> 8)
			dst.Set(x-b.Min.X, y-b.Min.Y, color.RGBA{
				R: clampByte(0.393*rf + 0.769*gf + 0.189*bf),
				G: clampByte(0.349*rf + 0.686*gf + 0.168*bf),
				B: clampByte(0.272*rf + 0.534*gf + 0.131*bf),
				A: 0xff,
			})
		}
	}
	return dst
}

func applyPixelate(src image.Image, block int) image.Image {
	if block < 1 {
		block = 1
	}
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for by := b.Min.Y; by < b.Max.Y; by += block {
		for bx := b.Min.X; bx < b.Max.X; bx += block {
			var rSum, gSum, bSum, n uint64
			for y := by; y < by+block && y < b.Max.Y; y++ {
				for x := bx; x < bx+block && x < b.Max.X; x++ {
					r, g, bl, _ := src.At(x, y).RGBA()
					rSum += uint64(r >> 8)
					gSum += uint64(g >> 8)
					bSum += uint64(bl >> 8)
					n++
				}
			}
			avg := color.RGBA{
				R: uint8(rSum / n),
				G: uint8(gSum / n),
				B: uint8(bSum / n),
				A: 0xff,
			}
			for y := by; y < by+block && y < b.Max.Y; y++ {
				for x := bx; x < bx+block && x < b.Max.X; x++ {
					dst.Set(x-b.Min.X, y-b.Min.Y, avg)
				}
			}
		}
	}
	return dst
}

func clampByte(v float64) uint8 {
	if v > 255 {
		return 255
	}
	if v < 0 {
		return 0
	}
	return uint8(v)
}
