package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/awbooks/awbooks-server/internal/errors"
)

// DefaultTokenInfoURL is Google's token introspection endpoint.
const DefaultTokenInfoURL = "https://www.googleapis.com/oauth2/v3/tokeninfo"

// TokenInfoVerifier asks Google's tokeninfo endpoint whether a token is
// genuine. Any non-200 answer means the token is rejected.
type TokenInfoVerifier struct {
	client   *http.Client
	endpoint string
	clientID string
}

// NewTokenInfoVerifier creates a verifier. An empty clientID skips the
// audience check.
func NewTokenInfoVerifier(endpoint, clientID string, timeout time.Duration) *TokenInfoVerifier {
	if endpoint == "" {
		endpoint = DefaultTokenInfoURL
	}
	return &TokenInfoVerifier{
		client:   &http.Client{Timeout: timeout},
		endpoint: endpoint,
		clientID: clientID,
	}
}

type tokenInfo struct {
	Sub     string `json:"sub"`
	Aud     string `json:"aud"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture string `json:"picture"`
}

// Verify implements Verifier.
func (v *TokenInfoVerifier) Verify(ctx context.Context, idToken string) (*Claims, error) {
	if idToken == "" {
		return nil, errors.InvalidIssuer("missing identity token")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		v.endpoint+"?id_token="+url.QueryEscape(idToken), nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "build tokeninfo request")
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeUnavailable, "could not reach the identity provider")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, errors.InvalidIssuer(fmt.Sprintf("identity provider rejected the token (status %d)", resp.StatusCode))
	}

	var info tokenInfo
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&info); err != nil {
		return nil, errors.Wrap(err, errors.CodeUnavailable, "unreadable tokeninfo response")
	}

	if v.clientID != "" && info.Aud != v.clientID {
		return nil, errors.InvalidIssuer("token was issued for a different client")
	}
	if info.Email == "" {
		return nil, errors.InvalidIssuer("token carries no email")
	}

	return &Claims{Subject: info.Sub, Name: info.Name, Email: info.Email, Picture: info.Picture}, nil
}
