package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/modchat/modchat/internal/domain"
)

// maxExtractChars caps the combined document text folded into a prompt.
const maxExtractChars = 8000

const truncationMarker = "...(content truncated due to length)"

// supportedExtensions is the set clients are told about. Uploads outside it
// are still stored; they just carry supported=false.
var supportedExtensions = []string{"jpg", "jpeg", "png", "pdf", "docx", "txt"}

// UploadResult describes one stored upload.
type UploadResult struct {
	Filename  string
	Path      string
	Supported bool
}

// UploadService stores uploads and reads their text back as prompt context.
type UploadService struct {
	dir     string
	maxSize int64
}

// NewUploadService creates an upload service rooted at dir.
func NewUploadService(dir string, maxSize int64) *UploadService {
	return &UploadService{dir: dir, maxSize: maxSize}
}

// MaxSize returns the upload size limit in bytes.
func (s *UploadService) MaxSize() int64 { return s.maxSize }

// SupportedTypes returns the advertised file type list.
func (s *UploadService) SupportedTypes() []string {
	return supportedExtensions
}

// Save writes one upload under the service directory, keeping the client's
// base filename. A later upload with the same name overwrites the earlier
// one.
func (s *UploadService) Save(filename string, src io.Reader) (*UploadResult, error) {
	filename = filepath.Base(filename)
	if filename == "" || filename == "." || filename == string(filepath.Separator) {
		return nil, fmt.Errorf("invalid filename")
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	path := filepath.Join(s.dir, filename)
	dst, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return nil, fmt.Errorf("failed to write file: %w", err)
	}

	return &UploadResult{
		Filename:  filename,
		Path:      path,
		Supported: s.extensionSupported(filename),
	}, nil
}

func (s *UploadService) extensionSupported(filename string) bool {
	ext := normalizeExt(filename)
	for _, supported := range supportedExtensions {
		if ext == supported {
			return true
		}
	}
	return false
}

// Extract reads previously uploaded files back as one document context
// string. Files that cannot be read are logged and skipped; the combined
// text is capped at maxExtractChars.
func (s *UploadService) Extract(ctx context.Context, filenames []string) (string, error) {
	var docs []string
	for _, name := range filenames {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		text, err := s.extractOne(name)
		if err != nil {
			log.Warn().Err(err).Str("filename", name).Msg("skipping unreadable upload")
			continue
		}
		if text != "" {
			docs = append(docs, text)
		}
	}

	combined := strings.Join(docs, "\n\n")
	if runes := []rune(combined); len(runes) > maxExtractChars {
		log.Warn().Int("length", len(runes)).Msg("document content exceeded max length")
		combined = string(runes[:maxExtractChars]) + truncationMarker
	}
	return combined, nil
}

// extractOne returns the text of a single upload. Image types carry no
// text. Formats without a text reader are a recoverable processing error so
// the chat proceeds without them.
func (s *UploadService) extractOne(filename string) (string, error) {
	filename = filepath.Base(filename)

	switch ext := normalizeExt(filename); ext {
	case "txt":
		data, err := os.ReadFile(filepath.Join(s.dir, filename))
		if err != nil {
			return "", domain.Recoverable(domain.ErrFileProcessing,
				fmt.Sprintf("failed to read %s", filename)).WithDetail(err.Error())
		}
		return string(data), nil
	case "jpg", "jpeg", "png":
		return "", nil
	case "pdf", "docx":
		return "", domain.Recoverable(domain.ErrFileProcessing,
			fmt.Sprintf("no text extractor available for %s files", ext))
	default:
		return "", domain.Recoverable(domain.ErrFileProcessing,
			fmt.Sprintf("unsupported file type: %s", ext))
	}
}

func normalizeExt(filename string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
}
