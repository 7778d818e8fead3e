package api

import (
	"context"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/net/publicsuffix"

	"github.com/awbooks/awbooks-server/internal/auth"
	"github.com/awbooks/awbooks-server/internal/errors"
	"github.com/awbooks/awbooks-server/internal/identity"
	"github.com/awbooks/awbooks-server/internal/logger"
	"github.com/awbooks/awbooks-server/internal/ratelimit"
	"github.com/awbooks/awbooks-server/internal/service"
	"github.com/awbooks/awbooks-server/internal/session"
	"github.com/awbooks/awbooks-server/internal/store/sqlite"
	"github.com/awbooks/awbooks-server/internal/view"
)

var testCategories = []service.CategorySeed{
	{Name: "Python", Description: "Python books"},
	{Name: "Go", Description: "Go books"},
}

var testIdentities = map[string]identity.Claims{
	"ada-token":   {Subject: "g-ada", Name: "Ada Lovelace", Email: "ada@example.com", Picture: "https://example.com/ada.png"},
	"grace-token": {Subject: "g-grace", Name: "Grace Hopper", Email: "grace@example.com"},
}

type testServer struct {
	server        *Server
	http          *httptest.Server
	store         *sqlite.Store
	verifierCalls *atomic.Int32
	cleanup       func()
}

func setupTestServer(t *testing.T) *testServer {
	return setupTestServerWithLimit(t, 1000, 1000)
}

func setupTestServerWithLimit(t *testing.T, rps float64, burst int) *testServer {
	t.Helper()
	log := logger.Discard().Logger
	ctx := context.Background()

	st, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"), log)
	require.NoError(t, err)
	_, err = service.SeedCategories(ctx, st, testCategories)
	require.NoError(t, err)

	sessStore, err := session.OpenInMemory(log)
	require.NoError(t, err)

	key, err := auth.DeriveKey("test secret")
	require.NoError(t, err)
	sealer, err := auth.NewCookieSealer(key)
	require.NoError(t, err)
	manager := session.NewManager(sessStore, sealer, session.Options{CookieName: "awbooks_session", Duration: time.Hour}, log)

	calls := &atomic.Int32{}
	verifier := identity.VerifierFunc(func(_ context.Context, token string) (*identity.Claims, error) {
		calls.Add(1)
		c, ok := testIdentities[token]
		if !ok {
			return nil, errors.InvalidIssuer("token rejected")
		}
		return &c, nil
	})

	views, err := view.New(view.Options{}, log)
	require.NoError(t, err)

	limiter := ratelimit.New(rps, burst)

	srv := NewServer(st, &Services{
		Catalog:  service.NewCatalogService(st, log),
		Identity: service.NewIdentityService(st, verifier, log),
	}, manager, views, limiter, Options{GoogleClientID: "client.apps.googleusercontent.com"}, log)

	hs := httptest.NewServer(srv)

	ts := &testServer{
		server:        srv,
		http:          hs,
		store:         st,
		verifierCalls: calls,
	}
	ts.cleanup = func() {
		hs.Close()
		limiter.Stop()
		_ = sessStore.Close()
		_ = st.Close()
	}
	return ts
}

// browser is a client with its own cookie jar that does not follow redirects.
type browser struct {
	t      *testing.T
	base   string
	client *http.Client
}

func (ts *testServer) newBrowser(t *testing.T) *browser {
	t.Helper()
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	require.NoError(t, err)
	return &browser{
		t:    t,
		base: ts.http.URL,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

type page struct {
	status   int
	location string
	body     string
	header   http.Header
}

func (b *browser) do(req *http.Request) page {
	b.t.Helper()
	resp, err := b.client.Do(req)
	require.NoError(b.t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(b.t, err)
	return page{
		status:   resp.StatusCode,
		location: resp.Header.Get("Location"),
		body:     string(body),
		header:   resp.Header,
	}
}

func (b *browser) get(path string) page {
	b.t.Helper()
	req, err := http.NewRequest(http.MethodGet, b.base+path, nil)
	require.NoError(b.t, err)
	return b.do(req)
}

func (b *browser) postForm(path string, form url.Values) page {
	b.t.Helper()
	req, err := http.NewRequest(http.MethodPost, b.base+path, strings.NewReader(form.Encode()))
	require.NoError(b.t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return b.do(req)
}

func (b *browser) postBody(path, body string) page {
	b.t.Helper()
	req, err := http.NewRequest(http.MethodPost, b.base+path, strings.NewReader(body))
	require.NoError(b.t, err)
	req.Header.Set("Content-Type", "application/octet-stream")
	return b.do(req)
}

var stateRE = regexp.MustCompile(`state=([A-Z0-9]{32})`)

// loginState loads /login and returns the state embedded in the page.
func (b *browser) loginState() string {
	b.t.Helper()
	p := b.get("/login")
	require.Equal(b.t, http.StatusOK, p.status)
	m := stateRE.FindStringSubmatch(p.body)
	require.Len(b.t, m, 2, "login page should embed the state")
	return m[1]
}

// login runs the whole login flow with a token the stub verifier accepts.
func (b *browser) login(token string) {
	b.t.Helper()
	state := b.loginState()
	p := b.postBody("/gconnect?state="+state, token)
	require.Equal(b.t, http.StatusSeeOther, p.status, p.body)
	require.Equal(b.t, "/", p.location)
}

func deepWorkForm() url.Values {
	return url.Values{
		"title":       {"Deep Work"},
		"category":    {"Python"},
		"year":        {"2016"},
		"summary":     {"Rules for focused success in a distracted world."},
		"isbn":        {"978-1455586691"},
		"authorFName": {"Cal"},
		"authorLName": {"Newport"},
	}
}
