package storage

import (
	"bytes"
	"fmt"
	"mime"
	"net/http"
	"path"
	"strings"
)

// captureTypes maps accepted capture extensions to their content type.
var captureTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".heic": "image/heic",
}

// heifBrands are the ftyp major brands written by HEIC encoders.
var heifBrands = []string{"heic", "heix", "hevc", "heim", "heis", "mif1", "msf1"}

// IsCaptureExt reports whether ext, lower case with its dot, is accepted.
func IsCaptureExt(ext string) bool {
	_, ok := captureTypes[ext]
	return ok
}

// ContentType returns the content type for a stored capture path.
func ContentType(p string) string {
	if ct, ok := captureTypes[strings.ToLower(path.Ext(p))]; ok {
		return ct
	}
	return "application/octet-stream"
}

// ExtForContentType maps an image content type such as "image/png" or
// "image/jpeg; q=0.9" to its capture extension, or "" when not accepted.
func ExtForContentType(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	if mt == "image/jpeg" {
		return ".jpg"
	}
	for ext, ct := range captureTypes {
		if ct == mt {
			return ext
		}
	}
	return ""
}

// CheckCapture verifies that data is an image of the type ext names.
func CheckCapture(data []byte, ext string) error {
	want, ok := captureTypes[ext]
	if !ok {
		return fmt.Errorf("unsupported capture type %q (allowed: png, jpg, jpeg, webp, heic)", ext)
	}
	got := sniff(data)
	if got != want {
		return fmt.Errorf("capture content is %s, not %s", got, want)
	}
	return nil
}

// sniff detects the content type of data. HEIC is recognized by its ftyp
// box, which http.DetectContentType does not know.
func sniff(data []byte) string {
	if len(data) >= 12 && bytes.Equal(data[4:8], []byte("ftyp")) {
		brand := string(data[8:12])
		for _, b := range heifBrands {
			if brand == b {
				return "image/heic"
			}
		}
	}
	mt, _, err := mime.ParseMediaType(http.DetectContentType(data))
	if err != nil {
		return "application/octet-stream"
	}
	return mt
}
