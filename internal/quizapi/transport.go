package quizapi

import (
	"context"
	"net/http"
	"time"

	"github.com/vytor/quizrunner/internal/auth"
	"golang.org/x/oauth2/clientcredentials"
)

// bearerTransport forwards the learner token stored on the request context.
type bearerTransport struct {
	base http.RoundTripper
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	token := auth.TokenFromContext(req.Context())
	if token == "" || req.Header.Get("Authorization") != "" {
		return t.base.RoundTrip(req)
	}
	clone := req.Clone(req.Context())
	clone.Header.Set("Authorization", "Bearer "+token)
	return t.base.RoundTrip(clone)
}

// NewServiceHTTPClient returns an http.Client authenticating as the runner
// itself through the OAuth2 client-credentials grant.
func NewServiceHTTPClient(ctx context.Context, tokenURL, clientID, clientSecret string, timeout time.Duration) *http.Client {
	cc := clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     tokenURL,
	}
	h := cc.Client(ctx)
	if timeout > 0 {
		h.Timeout = timeout
	}
	return h
}
