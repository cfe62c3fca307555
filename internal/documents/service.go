package documents

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/odyssey-erp/stockflow/internal/shared"
)

// ErrPDFUnavailable is returned when no PDF converter is configured.
var ErrPDFUnavailable = errors.New("documents: pdf conversion not configured")

// Repository gives read access to the registry.
type Repository interface {
	ViewDocuments(ctx context.Context, fn func(*Registry) error) error
}

// Converter turns a rendered HTML blob into a PDF.
type Converter interface {
	RenderHTML(ctx context.Context, html string) ([]byte, error)
}

// Service exposes the document registry to readers.
type Service struct {
	repo      Repository
	converter Converter
}

// NewService builds Service. converter may be nil.
func NewService(repo Repository, converter Converter) *Service {
	return &Service{repo: repo, converter: converter}
}

// List returns documents of the given type, or all when t is empty.
func (s *Service) List(ctx context.Context, t Type) ([]Document, error) {
	t = Type(strings.ToUpper(strings.TrimSpace(string(t))))
	if t != "" && !t.Valid() {
		return nil, fmt.Errorf("%w: unknown document type %q", shared.ErrValidation, t)
	}
	var out []Document
	err := s.repo.ViewDocuments(ctx, func(r *Registry) error {
		out = r.List(t)
		return nil
	})
	return out, err
}

// Get returns a single document.
func (s *Service) Get(ctx context.Context, docID string) (Document, error) {
	var doc Document
	err := s.repo.ViewDocuments(ctx, func(r *Registry) error {
		var err error
		doc, err = r.Get(docID)
		return err
	})
	return doc, err
}

// Blob returns the rendered artifact.
func (s *Service) Blob(ctx context.Context, docID string) ([]byte, error) {
	var blob []byte
	err := s.repo.ViewDocuments(ctx, func(r *Registry) error {
		var err error
		blob, err = r.Blob(docID)
		return err
	})
	return blob, err
}

// PDF converts the rendered artifact of a document to PDF.
func (s *Service) PDF(ctx context.Context, docID string) ([]byte, error) {
	if s.converter == nil {
		return nil, ErrPDFUnavailable
	}
	blob, err := s.Blob(ctx, docID)
	if err != nil {
		return nil, err
	}
	pdf, err := s.converter.RenderHTML(ctx, string(blob))
	if err != nil {
		return nil, fmt.Errorf("documents: convert %s: %w", docID, err)
	}
	return pdf, nil
}
