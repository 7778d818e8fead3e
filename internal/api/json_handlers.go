package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/awbooks/awbooks-server/internal/domain"
)

func (s *Server) registerJSONRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getCategoryJSON",
		Method:      http.MethodGet,
		Path:        "/tech/{categorySlug}/json",
		Summary:     "List a category's books",
		Description: "Returns every book in the category with its author and category.",
		Tags:        []string{"Catalog"},
		Errors:      []int{http.StatusNotFound},
	}, s.handleCategoryJSON)

	huma.Register(s.api, huma.Operation{
		OperationID: "getBookJSON",
		Method:      http.MethodGet,
		Path:        "/tech/{categorySlug}/{titleSlug}/json",
		Summary:     "Get a book",
		Description: "Returns a book with its author and category. The category segment is not checked.",
		Tags:        []string{"Catalog"},
		Errors:      []int{http.StatusNotFound},
	}, s.handleBookJSON)
}

// CategoryJSONInput names a category.
type CategoryJSONInput struct {
	CategorySlug string `path:"categorySlug" doc:"Category slug"`
}

// CategoryJSONOutput wraps the category listing for Huma.
type CategoryJSONOutput struct {
	Body domain.CategoryDocument
}

func (s *Server) handleCategoryJSON(ctx context.Context, input *CategoryJSONInput) (*CategoryJSONOutput, error) {
	doc, err := s.services.Catalog.CategoryDocument(ctx, input.CategorySlug)
	if err != nil {
		return nil, err
	}
	return &CategoryJSONOutput{Body: doc}, nil
}

// BookJSONInput names a book.
type BookJSONInput struct {
	CategorySlug string `path:"categorySlug" doc:"Category slug"`
	TitleSlug    string `path:"titleSlug" doc:"Book slug"`
}

// BookJSONOutput wraps the book document for Huma.
type BookJSONOutput struct {
	Body domain.BookDocument
}

func (s *Server) handleBookJSON(ctx context.Context, input *BookJSONInput) (*BookJSONOutput, error) {
	doc, err := s.services.Catalog.BookDocument(ctx, input.TitleSlug)
	if err != nil {
		return nil, err
	}
	return &BookJSONOutput{Body: doc}, nil
}
