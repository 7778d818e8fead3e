package identity

import (
	"context"
	"net"
	"net/url"

	googleAuthIDTokenVerifier "github.com/futurenda/google-auth-id-token-verifier"
	"github.com/golang-jwt/jwt/v4"

	"github.com/awbooks/awbooks-server/internal/errors"
)

// LocalVerifier checks the token signature against Google's published
// certificates instead of calling tokeninfo for every login.
type LocalVerifier struct {
	clientID string
	verifier googleAuthIDTokenVerifier.Verifier
}

// NewLocalVerifier creates a verifier bound to one OAuth client id.
func NewLocalVerifier(clientID string) *LocalVerifier {
	return &LocalVerifier{clientID: clientID}
}

// Verify implements Verifier.
func (v *LocalVerifier) Verify(_ context.Context, idToken string) (*Claims, error) {
	if idToken == "" {
		return nil, errors.InvalidIssuer("missing identity token")
	}
	if err := v.verifier.VerifyIDToken(idToken, []string{v.clientID}); err != nil {
		return nil, verifyError(err)
	}

	claimSet, err := googleAuthIDTokenVerifier.Decode(idToken)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidIssuer, "identity token could not be decoded")
	}

	claims := &Claims{Subject: claimSet.Sub, Name: claimSet.Name, Email: claimSet.Email}
	claims.Picture = pictureClaim(idToken)

	if claims.Email == "" {
		return nil, errors.InvalidIssuer("token carries no email")
	}
	return claims, nil
}

// verifyError separates a failed certificate fetch from a rejected token.
// VerifyIDToken downloads Google's certificates on each call, so transport
// errors surface from it unwrapped.
func verifyError(err error) error {
	var urlErr *url.Error
	var netErr net.Error
	if errors.As(err, &urlErr) || errors.As(err, &netErr) {
		return errors.Wrap(err, errors.CodeUnavailable, "could not fetch the identity provider's certificates")
	}
	return errors.Wrap(err, errors.CodeInvalidIssuer, "identity token failed verification")
}

// pictureClaim reads the optional picture claim. The signature was already
// checked by VerifyIDToken, so parsing unverified here is safe.
func pictureClaim(idToken string) string {
	mc := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(idToken, mc); err != nil {
		return ""
	}
	pic, _ := mc["picture"].(string)
	return pic
}
