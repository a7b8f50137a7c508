// Package imagecdn builds image URLs for a flat asset host or a Cloudinary
// upload base, including crop and delivery-width transforms where supported.
package imagecdn

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrAssetIDRequired reports a request without an asset id.
var ErrAssetIDRequired = errors.New("asset id is required")

// Crop selects a region of the source image.
type Crop struct {
	X        int
	Y        int
	WidthPX  int
	HeightPX int
}

// Delivery bounds the delivered image width.
type Delivery struct {
	WidthPX int
}

// Request describes one image to address.
type Request struct {
	AssetID   string
	Extension string
	Crop      *Crop
	Delivery  *Delivery
}

// CDN resolves requests against one base URL.
type CDN struct {
	base       string
	cloudinary bool
}

// New returns a CDN for base. Cloudinary upload bases receive transform
// segments; any other base is treated as a flat file host.
func New(base string) CDN {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	return CDN{base: base, cloudinary: isCloudinaryBase(base)}
}

// Base returns the normalized base URL.
func (c CDN) Base() string {
	return c.base
}

// Transforms reports whether crop and delivery settings are applied by the
// host. Flat hosts serve the original file.
func (c CDN) Transforms() bool {
	return c.cloudinary
}

// URL returns the address for req.
func (c CDN) URL(req Request) (string, error) {
	assetID := strings.TrimSpace(req.AssetID)
	if assetID == "" {
		return "", ErrAssetIDRequired
	}
	ext := strings.TrimSpace(req.Extension)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	file := url.PathEscape(assetID) + ext

	segments := []string{c.base}
	if c.cloudinary {
		if crop := req.Crop; crop != nil && crop.WidthPX > 0 && crop.HeightPX > 0 {
			segments = append(segments, fmt.Sprintf("c_crop,w_%d,h_%d,x_%d,y_%d", crop.WidthPX, crop.HeightPX, crop.X, crop.Y))
		}
		delivery := "f_auto,q_auto,dpr_auto"
		if req.Delivery != nil && req.Delivery.WidthPX > 0 {
			delivery += fmt.Sprintf(",c_limit,w_%d", req.Delivery.WidthPX)
		}
		segments = append(segments, delivery)
	}
	segments = append(segments, file)
	return strings.Join(segments, "/"), nil
}

func isCloudinaryBase(base string) bool {
	parsed, err := url.Parse(base)
	if err != nil {
		return false
	}
	return strings.EqualFold(parsed.Hostname(), "res.cloudinary.com") &&
		strings.Contains(parsed.Path, "/image/upload")
}
