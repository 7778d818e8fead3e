package service

import (
	"context"
	"fmt"

	"github.com/awbooks/awbooks-server/internal/domain"
	"github.com/awbooks/awbooks-server/internal/errors"
	"github.com/awbooks/awbooks-server/internal/slug"
	"github.com/awbooks/awbooks-server/internal/store"
)

// CategorySeed describes a category created on first start.
type CategorySeed struct {
	Name        string
	IconURL     string
	Description string
}

// DefaultCategories is the initial category list.
var DefaultCategories = []CategorySeed{
	{Name: "Python", IconURL: "/static/icons/python.svg", Description: "Scripting, data science and web development with Python."},
	{Name: "Go", IconURL: "/static/icons/go.svg", Description: "Building simple, reliable and efficient software with Go."},
	{Name: "JavaScript", IconURL: "/static/icons/javascript.svg", Description: "The language of the browser and of Node.js."},
	{Name: "Java", IconURL: "/static/icons/java.svg", Description: "The JVM, its ecosystem and enterprise development."},
	{Name: "Rust", IconURL: "/static/icons/rust.svg", Description: "Systems programming with memory safety."},
	{Name: "Databases", IconURL: "/static/icons/databases.svg", Description: "SQL, NoSQL and data modelling."},
	{Name: "DevOps", IconURL: "/static/icons/devops.svg", Description: "Infrastructure, delivery pipelines and operations."},
	{Name: "Algorithms", IconURL: "/static/icons/algorithms.svg", Description: "Data structures, algorithms and computer science fundamentals."},
}

// SeedCategories creates any missing categories from seeds and returns how
// many were added. Running it again is harmless.
func SeedCategories(ctx context.Context, st store.Store, seeds []CategorySeed) (int, error) {
	created := 0
	for _, seed := range seeds {
		c := &domain.Category{
			Name:        seed.Name,
			IconURL:     seed.IconURL,
			Description: seed.Description,
			Slug:        slug.Make(seed.Name),
		}
		err := st.CreateCategory(ctx, c)
		if errors.Is(err, store.ErrAlreadyExists) {
			continue
		}
		if err != nil {
			return created, fmt.Errorf("seed category %q: %w", seed.Name, err)
		}
		created++
	}
	return created, nil
}
