// Package attachment maps stored complaint files to media types and to
// self-contained data URIs the browser can display or download directly.
package attachment

import (
	"encoding/base64"
	"errors"
	"strings"

	"github.com/SUSHANT-M-GIT/SIH/internal/models"
)

// MediaType is a MIME type such as "image/png".
type MediaType string

// OctetStream is the generic binary fallback for unknown extensions.
const OctetStream MediaType = "application/octet-stream"

var mediaTypes = map[string]MediaType{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"webp": "image/webp",
	"pdf":  "application/pdf",
	"mp4":  "video/mp4",
	"webm": "video/webm",
	"mov":  "video/quicktime",
	"txt":  "text/plain",
}

// Kind selects how an attachment is presented.
type Kind int

const (
	KindGeneric Kind = iota
	KindImage
	KindVideo
	KindDocument
)

func (k Kind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindVideo:
		return "video"
	case KindDocument:
		return "document"
	default:
		return "generic"
	}
}

// MarshalText renders the kind by name in JSON responses.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// ErrNotDataURI is returned by ParseLocator for anything Locator did not produce.
var ErrNotDataURI = errors.New("attachment: not a base64 data URI")

// extension returns the lower-cased text after the last dot, or "".
func extension(fileName string) string {
	i := strings.LastIndexByte(fileName, '.')
	if i < 0 {
		return ""
	}
	return strings.ToLower(fileName[i+1:])
}

// Extension is the upper-cased extension used as a placeholder label.
func Extension(fileName string) string {
	return strings.ToUpper(extension(fileName))
}

// MediaTypeOf infers the media type from the file extension. It never fails.
func MediaTypeOf(fileName string) MediaType {
	if mt, ok := mediaTypes[extension(fileName)]; ok {
		return mt
	}
	return OctetStream
}

func IsImage(fileName string) bool {
	return strings.HasPrefix(string(MediaTypeOf(fileName)), "image/")
}

func IsVideo(fileName string) bool {
	return strings.HasPrefix(string(MediaTypeOf(fileName)), "video/")
}

// KindOf derives the presentation variant once so renderers can switch on it.
func KindOf(fileName string) Kind {
	mt := string(MediaTypeOf(fileName))
	switch {
	case strings.HasPrefix(mt, "image/"):
		return KindImage
	case strings.HasPrefix(mt, "video/"):
		return KindVideo
	case mt == "application/pdf" || strings.HasPrefix(mt, "text/"):
		return KindDocument
	default:
		return KindGeneric
	}
}

// Locator builds the data URI for a stored attachment. Malformed content is
// passed through untouched; the browser reports it when the resource is opened.
func Locator(a models.Attachment) string {
	return "data:" + string(MediaTypeOf(a.FileName)) + ";base64," + a.FileContent
}

// ParseLocator splits a data URI produced by Locator back into its media type
// and encoded content.
func ParseLocator(locator string) (MediaType, string, error) {
	rest, ok := strings.CutPrefix(locator, "data:")
	if !ok {
		return "", "", ErrNotDataURI
	}
	header, content, ok := strings.Cut(rest, ",")
	if !ok {
		return "", "", ErrNotDataURI
	}
	mt, ok := strings.CutSuffix(header, ";base64")
	if !ok {
		return "", "", ErrNotDataURI
	}
	return MediaType(mt), content, nil
}

// Decode returns the raw bytes of a stored attachment.
func Decode(a models.Attachment) ([]byte, error) {
	content := strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' || r == ' ' || r == '\t' {
			return -1
		}
		return r
	}, a.FileContent)
	return base64.StdEncoding.DecodeString(content)
}
