package scanning

import (
	"bytes"
	"errors"
	"fmt"
	"image/png"
	"slices"
	"strings"

	"github.com/gen2brain/heic"
)

// ErrUnsupportedDocument is returned for formats the analysis service cannot read
var ErrUnsupportedDocument = errors.New("unsupported document format")

// supportedMimeTypes are the formats Textract accepts for asynchronous analysis
var supportedMimeTypes = []string{
	"image/jpeg",
	"image/png",
	"image/tiff",
	"application/pdf",
}

// heicToPNG converts a HEIC/HEIF photo to PNG
func heicToPNG(data []byte) ([]byte, error) {
	img, err := heic.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding HEIC/HEIF image: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding PNG: %w", err)
	}

	return buf.Bytes(), nil
}

// isHEICFormat checks if the data starts with an ftyp box of a HEIC brand
func isHEICFormat(data []byte) bool {
	if len(data) < 12 || string(data[4:8]) != "ftyp" {
		return false
	}
	brand := string(data[8:12])
	return brand == "heic" || brand == "heif" || brand == "mif1" || brand == "msf1"
}

// isHEICMimeType checks if the MIME type indicates HEIC/HEIF format
func isHEICMimeType(mimeType string) bool {
	return strings.Contains(mimeType, "heic") || strings.Contains(mimeType, "heif")
}

// PrepareDocument normalizes an uploaded receipt into a format the analysis
// service accepts. iPhone HEIC photos are converted to PNG; supported
// formats pass through. Returns the data, its MIME type and whether
// conversion occurred.
func PrepareDocument(data []byte, contentType string) ([]byte, string, bool, error) {
	mimeType := strings.ToLower(strings.TrimSpace(contentType))
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	if isHEICFormat(data) || isHEICMimeType(mimeType) {
		pngData, err := heicToPNG(data)
		if err != nil {
			return nil, "", false, err
		}
		return pngData, "image/png", true, nil
	}

	if !slices.Contains(supportedMimeTypes, mimeType) {
		return nil, "", false, fmt.Errorf("%w: %s", ErrUnsupportedDocument, mimeType)
	}

	return data, mimeType, false, nil
}
