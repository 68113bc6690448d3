// Package media sniffs and normalizes uploaded images before they reach
// object storage.
package media

import (
	"bytes"
	"encoding/base64"
	"errors"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

type Type string

const (
	TypeJPEG Type = "jpeg"
	TypePNG  Type = "png"
	TypeGIF  Type = "gif"
	TypeWEBP Type = "webp"
	TypeAVIF Type = "avif"
	TypeSVG  Type = "svg"
)

var (
	ErrUnknownType  = errors.New("unknown media type")
	ErrEmptyPayload = errors.New("empty media payload")
	ErrNotInline    = errors.New("source is not inline data")
)

type Result struct {
	Type Type
	MIME string
}

func (r Result) Extension() string {
	if r.Type == TypeJPEG {
		return ".jpg"
	}
	return "." + string(r.Type)
}

// supported lists the accepted formats in detection order.
var supported = []Result{
	{Type: TypeJPEG, MIME: "image/jpeg"},
	{Type: TypePNG, MIME: "image/png"},
	{Type: TypeGIF, MIME: "image/gif"},
	{Type: TypeWEBP, MIME: "image/webp"},
	{Type: TypeAVIF, MIME: "image/avif"},
	{Type: TypeSVG, MIME: "image/svg+xml"},
}

func DetectHead(head []byte) (Result, error) {
	if len(head) == 0 {
		return Result{}, ErrUnknownType
	}

	detected := mimetype.Detect(head)
	for _, r := range supported {
		if detected.Is(r.MIME) {
			return r, nil
		}
	}
	return Result{}, ErrUnknownType
}

// Prepare identifies data and strips active content from SVG documents.
func Prepare(data []byte) (Result, []byte, error) {
	if len(data) == 0 {
		return Result{}, nil, ErrEmptyPayload
	}
	result, err := DetectHead(data)
	if err != nil {
		return Result{}, nil, err
	}
	if result.Type == TypeSVG {
		clean, err := SanitizeSVG(data)
		if err != nil {
			return Result{}, nil, err
		}
		return result, clean, nil
	}
	return result, data, nil
}

// DecodeInline decodes a data URL or a bare base64 string. Anything that
// looks like a remote URL returns ErrNotInline.
func DecodeInline(source string) ([]byte, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return nil, ErrEmptyPayload
	}
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return nil, ErrNotInline
	}

	payload := source
	if strings.HasPrefix(source, "data:") {
		comma := strings.IndexByte(source, ',')
		if comma < 0 || !strings.HasSuffix(source[:comma], ";base64") {
			return nil, errors.New("malformed data url")
		}
		payload = source[comma+1:]
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(payload)
		if err != nil {
			return nil, errors.New("payload is not valid base64")
		}
	}
	if len(data) == 0 {
		return nil, ErrEmptyPayload
	}
	return data, nil
}

var (
	scriptTagPattern = regexp.MustCompile(`(?is)<\s*script[\s>].*?<\s*/\s*script\s*>`)
	eventAttrPattern = regexp.MustCompile(`(?is)\son[a-z]+\s*=\s*("[^"]*"|'[^']*')`)
	jsHrefPattern    = regexp.MustCompile(`(?is)\s(xlink:)?href\s*=\s*("\s*javascript:[^"]*"|'\s*javascript:[^']*')`)
)

func SanitizeSVG(input []byte) ([]byte, error) {
	if !bytes.Contains(bytes.ToLower(input), []byte("<svg")) {
		return nil, errors.New("not an svg document")
	}

	clean := scriptTagPattern.ReplaceAll(input, nil)
	clean = eventAttrPattern.ReplaceAll(clean, nil)
	clean = jsHrefPattern.ReplaceAll(clean, nil)
	return clean, nil
}
