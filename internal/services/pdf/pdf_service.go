// -----------------------------------------------------------------------
// PDF Service - page counting, page splitting and text extraction
// Uses pdfcpu for Go-native PDF processing
// -----------------------------------------------------------------------

package pdf

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/audile/internal/interfaces"
)

// Service implements the PDFService interface using pdfcpu.
// pdfcpu's high-level API is file based, so every operation round-trips
// through a private temp directory.
type Service struct {
	logger  arbor.ILogger
	tempDir string
	seq     atomic.Uint64
}

// Compile-time interface assertion
var _ interfaces.PDFService = (*Service)(nil)

// NewService creates a new PDF service
func NewService(logger arbor.ILogger) *Service {
	tempDir := filepath.Join(os.TempDir(), "audile-pdf")
	os.MkdirAll(tempDir, 0755)

	return &Service{
		logger:  logger,
		tempDir: tempDir,
	}
}

// PageCount returns the number of pages in the document.
func (s *Service) PageCount(ctx context.Context, pdf []byte) (int, error) {
	tempFile, cleanup, err := s.writeTemp("count", pdf)
	if err != nil {
		return 0, err
	}
	defer cleanup()

	pdfCtx, err := api.ReadContextFile(tempFile)
	if err != nil {
		return 0, fmt.Errorf("failed to read PDF context: %w", err)
	}

	return pdfCtx.PageCount, nil
}

// ExtractPage returns a single-page PDF containing only the given page
// (1-indexed).
func (s *Service) ExtractPage(ctx context.Context, pdf []byte, page int) ([]byte, error) {
	if page < 1 {
		return nil, fmt.Errorf("invalid page number %d", page)
	}

	tempFile, cleanup, err := s.writeTemp("split", pdf)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	outDir := filepath.Join(s.tempDir, fmt.Sprintf("page_%d_%d", os.Getpid(), s.seq.Add(1)))
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}
	defer os.RemoveAll(outDir)

	conf := model.NewDefaultConfiguration()
	selector := fmt.Sprintf("%d", page)
	if err := api.TrimFile(tempFile, filepath.Join(outDir, "page.pdf"), []string{selector}, conf); err != nil {
		return nil, fmt.Errorf("failed to extract page %d: %w", page, err)
	}

	data, err := os.ReadFile(filepath.Join(outDir, "page.pdf"))
	if err != nil {
		return nil, fmt.Errorf("failed to read extracted page: %w", err)
	}

	s.logger.Debug().
		Int("page", page).
		Int("bytes", len(data)).
		Msg("Extracted single page")

	return data, nil
}

// ExtractText extracts text content page by page.
// pdfcpu has no direct text extraction; page content streams are extracted
// and read back. Pages whose content could not be decoded get empty text.
func (s *Service) ExtractText(ctx context.Context, pdf []byte) ([]interfaces.PDFPageContent, error) {
	tempFile, cleanup, err := s.writeTemp("extract", pdf)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	pdfCtx, err := api.ReadContextFile(tempFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF context: %w", err)
	}
	pageCount := pdfCtx.PageCount

	outDir := filepath.Join(s.tempDir, fmt.Sprintf("content_%d_%d", os.Getpid(), s.seq.Add(1)))
	os.MkdirAll(outDir, 0755)
	defer os.RemoveAll(outDir)

	pages := make([]interfaces.PDFPageContent, 0, pageCount)

	conf := model.NewDefaultConfiguration()
	if err := api.ExtractContentFile(tempFile, outDir, nil, conf); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to extract PDF content, returning empty pages")
		for pageNum := 1; pageNum <= pageCount; pageNum++ {
			pages = append(pages, interfaces.PDFPageContent{PageNumber: pageNum})
		}
		return pages, nil
	}

	pageTexts := make(map[int]string)
	files, _ := os.ReadDir(outDir)
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		content, err := os.ReadFile(filepath.Join(outDir, file.Name()))
		if err != nil {
			continue
		}
		var pageNum int
		if _, err := fmt.Sscanf(file.Name(), "Content_page_%d", &pageNum); err == nil {
			pageTexts[pageNum] = string(content)
		} else if _, err := fmt.Sscanf(file.Name(), "page_%d", &pageNum); err == nil {
			pageTexts[pageNum] = string(content)
		}
	}

	for pageNum := 1; pageNum <= pageCount; pageNum++ {
		pages = append(pages, interfaces.PDFPageContent{
			PageNumber: pageNum,
			Text:       pageTexts[pageNum],
		})
	}

	return pages, nil
}

// writeTemp writes pdf bytes to a uniquely named temp file and returns the
// path plus a cleanup func.
func (s *Service) writeTemp(prefix string, pdf []byte) (string, func(), error) {
	tempFile := filepath.Join(s.tempDir, fmt.Sprintf("%s_%d_%d.pdf", prefix, os.Getpid(), s.seq.Add(1)))
	if err := os.WriteFile(tempFile, pdf, 0644); err != nil {
		return "", nil, fmt.Errorf("failed to write temp PDF file: %w", err)
	}
	return tempFile, func() { os.Remove(tempFile) }, nil
}
