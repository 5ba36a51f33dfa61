package ocr

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// Engine recognizes a single line of text in a prepared crop.
type Engine interface {
	Recognize(img image.Image) (string, error)
	Close() error
}

type Options struct {
	Language    string
	PageSegMode int // tesseract --psm, 7 is a single text line
	Whitelist   string
}

func DefaultOptions() Options {
	return Options{Language: "eng", PageSegMode: int(gosseract.PSM_SINGLE_LINE)}
}

// Tesseract is an Engine backed by one libtesseract client. It is not safe
// for concurrent use.
type Tesseract struct {
	client *gosseract.Client
}

func NewTesseract(opts Options) (*Tesseract, error) {
	client := gosseract.NewClient()

	lang := opts.Language
	if lang == "" {
		lang = "eng"
	}
	if err := client.SetLanguage(lang); err != nil {
		client.Close()
		return nil, fmt.Errorf("set ocr language %q: %w", lang, err)
	}
	if err := client.SetPageSegMode(gosseract.PageSegMode(opts.PageSegMode)); err != nil {
		client.Close()
		return nil, fmt.Errorf("set page segmentation mode %d: %w", opts.PageSegMode, err)
	}
	if opts.Whitelist != "" {
		if err := client.SetWhitelist(opts.Whitelist); err != nil {
			client.Close()
			return nil, fmt.Errorf("set ocr whitelist: %w", err)
		}
	}

	return &Tesseract{client: client}, nil
}

// Recognize returns the trimmed text in img. An image with no text gives "".
func (t *Tesseract) Recognize(img image.Image) (string, error) {
	if img.Bounds().Empty() {
		return "", nil
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("encode ocr input: %w", err)
	}
	if err := t.client.SetImageFromBytes(buf.Bytes()); err != nil {
		return "", fmt.Errorf("load ocr input: %w", err)
	}

	text, err := t.client.Text()
	if err != nil {
		return "", fmt.Errorf("recognize: %w", err)
	}
	return strings.TrimSpace(text), nil
}

func (t *Tesseract) Close() error {
	return t.client.Close()
}
