package testsupport

import (
	"context"
	"net/http/httptest"
	"testing"

	"vidash/internal/mockapi"
	"vidash/internal/remote"
	"vidash/internal/session"
)

// APIServer is a running mock Remote API.
type APIServer struct {
	*mockapi.Server
	HTTP    *httptest.Server
	BaseURL string
}

// NewAPIServer starts a mock API seeded with opts (DefaultFixture when none
// is given) and closes it on cleanup.
func NewAPIServer(t testing.TB, opts ...mockapi.Option) *APIServer {
	t.Helper()

	srv := mockapi.New(opts...)
	httpSrv := httptest.NewServer(srv.Handler())
	t.Cleanup(httpSrv.Close)
	return &APIServer{Server: srv, HTTP: httpSrv, BaseURL: httpSrv.URL + mockapi.Prefix}
}

// Client returns a remote client for the server authenticated as sess. A nil
// session yields an anonymous client.
func (s *APIServer) Client(t testing.TB, sess *session.Session) *remote.Client {
	t.Helper()

	opts := []remote.Option{remote.WithHTTPClient(s.HTTP.Client()), remote.WithMediaBase(s.HTTP.URL)}
	if sess != nil {
		opts = append(opts, remote.WithTokenSource(sess))
	}
	client, err := remote.New(s.BaseURL, opts...)
	if err != nil {
		t.Fatalf("remote client: %v", err)
	}
	return client
}

// Login signs in through the mock API and returns the session and a client
// bound to it.
func (s *APIServer) Login(t testing.TB, username, password string) (*session.Session, *remote.Client) {
	t.Helper()

	sess, err := session.Login(context.Background(), s.Client(t, nil), nil, username, password)
	if err != nil {
		t.Fatalf("login %s: %v", username, err)
	}
	return sess, s.Client(t, sess)
}
