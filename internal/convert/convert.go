// Package convert turns source documents into page-marked markdown: each
// page is preceded by the "{n}" dash-rule boundary the parser splits on.
package convert

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/regrag/internal/parser"
)

// ErrUnsupported is returned for file types no converter handles.
var ErrUnsupported = errors.New("unsupported file type")

// Converter produces page-marked markdown from a source file.
type Converter interface {
	Convert(ctx context.Context, r io.Reader, filename string) (string, error)
}

// Options configures converter selection.
type Options struct {
	// FallbackPdftotext retries failed PDF extraction with pdftotext.
	FallbackPdftotext bool
	// MaxPages limits PDF pages converted. 0 converts all.
	MaxPages int
	// Marker, when set, converts PDFs remotely instead of locally.
	Marker *MarkerClient
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".csv":      true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
}

// ForFile returns the appropriate converter for a filename.
func ForFile(filename string, opts Options) (Converter, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &Text{}, nil
	case ".md", ".markdown":
		return &Markdown{}, nil
	case ".csv":
		return &CSV{}, nil
	case ".html", ".htm":
		return &HTML{}, nil
	case ".pdf":
		if opts.Marker != nil {
			return &RemotePDF{Client: opts.Marker, MaxPages: opts.MaxPages}, nil
		}
		return &PDF{FallbackPdftotext: opts.FallbackPdftotext, MaxPages: opts.MaxPages}, nil
	case ".docx":
		return &DOCX{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupported, ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	return SupportedExtensions[strings.ToLower(filepath.Ext(filename))]
}

// Paginate joins page texts, each preceded by its boundary marker.
func Paginate(pages []string) string {
	var sb strings.Builder
	for i, p := range pages {
		sb.WriteString(parser.PageMarker(i))
		sb.WriteString(strings.TrimSpace(p))
	}
	return sb.String()
}

// SinglePage wraps text as page 1 unless it already carries page markers.
func SinglePage(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	if parser.HasPageMarkers(text) {
		return text
	}
	return Paginate([]string{text})
}
