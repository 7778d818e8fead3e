package service

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/awbooks/awbooks-server/internal/domain"
	"github.com/awbooks/awbooks-server/internal/identity"
	"github.com/awbooks/awbooks-server/internal/logger"
	"github.com/awbooks/awbooks-server/internal/store"
	"github.com/awbooks/awbooks-server/internal/store/sqlite"
)

// stubVerifier records every call and answers from a fixed table.
type stubVerifier struct {
	calls  int
	claims map[string]*identity.Claims
	err    error
}

func (v *stubVerifier) Verify(_ context.Context, token string) (*identity.Claims, error) {
	v.calls++
	if v.err != nil {
		return nil, v.err
	}
	c, ok := v.claims[token]
	if !ok {
		return nil, identityRejected()
	}
	cp := *c
	return &cp, nil
}

type testEnv struct {
	store    *sqlite.Store
	catalog  *CatalogService
	identity *IdentityService
	verifier *stubVerifier
}

func setupServiceTest(t *testing.T) *testEnv {
	t.Helper()

	log := logger.Discard()
	st, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"), log.Logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	_, err = SeedCategories(context.Background(), st, DefaultCategories)
	require.NoError(t, err)

	v := &stubVerifier{claims: map[string]*identity.Claims{
		"ada-token":   {Subject: "g-ada", Name: "Ada Lovelace", Email: "ada@example.com", Picture: "https://example.com/ada.png"},
		"grace-token": {Subject: "g-grace", Name: "Grace Hopper", Email: "grace@example.com"},
	}}

	return &testEnv{
		store:    st,
		catalog:  NewCatalogService(st, log.Logger),
		identity: NewIdentityService(st, v, log.Logger),
		verifier: v,
	}
}

// login runs the full state + connect flow and returns an active session.
func (e *testEnv) login(t *testing.T, token string) *domain.WebSession {
	t.Helper()
	sess := &domain.WebSession{ID: "sess-" + token}
	state, err := e.identity.BeginLogin(sess)
	require.NoError(t, err)
	_, err = e.identity.Connect(context.Background(), sess, state, token)
	require.NoError(t, err)
	require.True(t, sess.IsActive())
	return sess
}

func (e *testEnv) createBook(t *testing.T, sess *domain.WebSession, title, category string) *domain.BookDetail {
	t.Helper()
	d, err := e.catalog.CreateBook(context.Background(), sess, CreateBookRequest{
		Title:           title,
		Category:        category,
		Year:            "2016",
		Summary:         "Rules for focused success in a distracted world.",
		ISBN:            "978-1455586691",
		AuthorFirstName: "Cal",
		AuthorLastName:  "Newport",
	})
	require.NoError(t, err)
	return d
}

// editForm is what the edit page submits for d when nothing is touched.
func editForm(d *domain.BookDetail) EditBookRequest {
	return EditBookRequest{
		Title:           d.Book.Title,
		Category:        d.Category.Name,
		Year:            d.Book.PublishYear,
		Link:            d.Book.Link,
		CoverURL:        d.Book.CoverURL,
		Summary:         d.Book.Summary,
		ISBN:            d.Book.ISBN,
		AuthorFirstName: d.Author.FirstName,
		AuthorLastName:  d.Author.LastName,
	}
}

// recordingStore remembers every change set handed to the store.
type recordingStore struct {
	store.Store
	updates []store.BookChanges
}

func (r *recordingStore) UpdateBookWithAuthor(ctx context.Context, bookID int64, changes store.BookChanges) (*domain.Book, error) {
	r.updates = append(r.updates, changes)
	return r.Store.UpdateBookWithAuthor(ctx, bookID, changes)
}

// recordingCatalog returns a catalog service whose store writes are recorded.
func (e *testEnv) recordingCatalog() (*CatalogService, *recordingStore) {
	rec := &recordingStore{Store: e.store}
	return NewCatalogService(rec, logger.Discard().Logger), rec
}
