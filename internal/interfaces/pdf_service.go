package interfaces

import "context"

// PDFPageContent is the extracted text of one PDF page.
type PDFPageContent struct {
	PageNumber int
	Text       string
}

// PDFService provides page-level operations on PDF documents.
type PDFService interface {
	// PageCount returns the number of pages in the document.
	PageCount(ctx context.Context, pdf []byte) (int, error)

	// ExtractPage returns a single-page PDF containing only the given page
	// (1-indexed).
	ExtractPage(ctx context.Context, pdf []byte, page int) ([]byte, error)

	// ExtractText extracts text content page by page.
	ExtractText(ctx context.Context, pdf []byte) ([]PDFPageContent, error)
}

// PageRenderer rasterizes one PDF page for on-screen display and AI input.
// Rendering is idempotent and side-effect-free on the document itself.
type PageRenderer interface {
	// RenderPage returns a JPEG of the given page (1-indexed).
	RenderPage(ctx context.Context, pdf []byte, page int) ([]byte, error)
}
