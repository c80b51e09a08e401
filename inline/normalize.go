package inline

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"mime"
	"path"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/h2non/filetype"
	"go.uber.org/zap"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"ebh/common"
	"ebh/config"
)

// sniffMediaType determines media type from content, falling back to the file
// extension when the content is not recognizable (SVG and text formats mostly).
func sniffMediaType(name string, data []byte) string {
	if looksLikeSVG(data) {
		return "image/svg+xml"
	}
	if t, err := filetype.Match(data); err == nil && t != filetype.Unknown {
		return t.MIME.Value
	}
	if mt := mime.TypeByExtension(strings.ToLower(path.Ext(name))); len(mt) > 0 {
		// strip the charset parameter mime package adds for text types
		if i := strings.IndexByte(mt, ';'); i >= 0 {
			mt = mt[:i]
		}
		return mt
	}
	return "application/octet-stream"
}

func looksLikeSVG(data []byte) bool {
	head := data
	if len(head) > 1024 {
		head = head[:1024]
	}
	return bytes.Contains(head, []byte("<svg"))
}

// normalizeImage applies configured transformations to raster image data
// before it is inlined. Returns possibly new data and its media type. When an
// image cannot be decoded the original bytes pass through untouched so the
// reader at least gets what the publisher shipped.
func normalizeImage(name string, data []byte, cover bool, cfg *config.ImagesConfig, log *zap.Logger) ([]byte, string) {
	mediaType := sniffMediaType(name, data)

	if mediaType == "image/svg+xml" {
		if !cfg.RasterizeSVG {
			return data, mediaType
		}
		w, h := 0, 0
		if cover {
			w, h = cfg.Cover.Width, cfg.Cover.Height
		}
		img, err := rasterizeSVG(data, w, h)
		if err != nil {
			log.Warn("Unable to rasterize SVG image, inlining as is", zap.String("name", name), zap.Error(err))
			return data, mediaType
		}
		out, outType, err := encodeImage(img, "png", cfg)
		if err != nil {
			log.Warn("Unable to encode rasterized SVG image, inlining as is", zap.String("name", name), zap.Error(err))
			return data, mediaType
		}
		return out, outType
	}

	if !strings.HasPrefix(mediaType, "image/") {
		return data, mediaType
	}

	img, imgType, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		log.Warn("Unable to decode image, inlining as is", zap.String("name", name), zap.String("media-type", mediaType), zap.Error(err))
		return data, mediaType
	}

	imageChanged := false

	// Scaling cover image
	if cover {
		w, h := cfg.Cover.Width, cfg.Cover.Height
		switch cfg.Cover.Resize {
		case common.ImageResizeModeNone:
		case common.ImageResizeModeKeepAR:
			if img.Bounds().Dy() >= h {
				break
			}
			img = imaging.Resize(img, 0, h, imaging.Lanczos)
			imageChanged = true
		case common.ImageResizeModeStretch:
			img = imaging.Resize(img, w, h, imaging.Lanczos)
			imageChanged = true
		}
	}

	// Scaling non-cover images
	if !cover && cfg.ScaleFactor > 0.0 && cfg.ScaleFactor != 1.0 {
		if imgType == "png" || imgType == "jpeg" {
			img = imaging.Resize(img, 0, int(float64(img.Bounds().Dy())*cfg.ScaleFactor), imaging.Linear)
			imageChanged = true
		}
	}

	if !imageChanged {
		return data, mediaType
	}

	out, outType, err := encodeImage(img, imgType, cfg)
	if err != nil {
		log.Warn("Unable to encode processed image, inlining original", zap.String("name", name), zap.Error(err))
		return data, mediaType
	}
	return out, outType
}

func encodeImage(img image.Image, imgType string, cfg *config.ImagesConfig) ([]byte, string, error) {
	buf := new(bytes.Buffer)
	if imgType == "jpeg" {
		if err := imaging.Encode(buf, img, imaging.JPEG, imaging.JPEGQuality(cfg.JPEGQuality)); err != nil {
			return nil, "", fmt.Errorf("unable to encode JPEG: %w", err)
		}
		return buf.Bytes(), "image/jpeg", nil
	}
	// Everything decodable but not JPEG comes out as PNG.
	if err := imaging.Encode(buf, img, imaging.PNG, imaging.PNGCompressionLevel(png.BestCompression)); err != nil {
		return nil, "", fmt.Errorf("unable to encode PNG: %w", err)
	}
	return buf.Bytes(), "image/png", nil
}
