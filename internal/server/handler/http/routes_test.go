package http_test

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/atinyakov/ContactKeeper/internal/models"
	handler "github.com/atinyakov/ContactKeeper/internal/server/handler/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeUsers struct {
	known   map[string]bool
	ensured []string
	err     error
}

func (f *fakeUsers) UserExists(_ context.Context, login string) (bool, error) {
	return f.known[login], f.err
}

func (f *fakeUsers) EnsureUser(_ context.Context, login string) error {
	if f.err != nil {
		return f.err
	}
	f.ensured = append(f.ensured, login)
	f.known[login] = true
	return nil
}

func newTestRouter(users *fakeUsers, dir *fakeDirectory) http.Handler {
	return handler.NewRouter(
		&handler.AuthHandler{Users: users},
		&handler.ContactHandler{Directory: dir, Logger: zap.NewNop()},
		&handler.CategoryHandler{Categories: &fakeCategories{}, Logger: zap.NewNop()},
		users,
		zap.NewNop(),
	)
}

func withCert(req *http.Request, cn string) *http.Request {
	req.TLS = &tls.ConnectionState{
		PeerCertificates: []*x509.Certificate{{Subject: pkix.Name{CommonName: cn}}},
	}
	return req
}

func TestRouter_NoCertificate(t *testing.T) {
	users := &fakeUsers{known: map[string]bool{}}
	r := newTestRouter(users, &fakeDirectory{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/contacts", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, users.ensured)
}

func TestRouter_MeRegistersUser(t *testing.T) {
	users := &fakeUsers{known: map[string]bool{}}
	r := newTestRouter(users, &fakeDirectory{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, withCert(httptest.NewRequest(http.MethodGet, "/api/me", nil), "alice"))

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","user":"alice"}`, w.Body.String())
	assert.Equal(t, []string{"alice"}, users.ensured)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRouter_EnsureUserFailure(t *testing.T) {
	users := &fakeUsers{known: map[string]bool{}, err: errors.New("db down")}
	r := newTestRouter(users, &fakeDirectory{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, withCert(httptest.NewRequest(http.MethodGet, "/api/me", nil), "alice"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestRouter_ContactsUseCertificateIdentity(t *testing.T) {
	dir := &fakeDirectory{contacts: []models.Contact{}}
	r := newTestRouter(&fakeUsers{known: map[string]bool{}}, dir)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, withCert(httptest.NewRequest(http.MethodGet, "/api/contacts?categoryId=5", nil), "bob"))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "bob", dir.userID)
	assert.Equal(t, int64(5), dir.categoryID)
}

func TestRouter_SearchIsNotAnID(t *testing.T) {
	dir := &fakeDirectory{contacts: []models.Contact{}}
	r := newTestRouter(&fakeUsers{known: map[string]bool{}}, dir)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, withCert(httptest.NewRequest(http.MethodGet, "/api/contacts/search?q=you", nil), "bob"))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "you", dir.query)
}

func TestRouter_RejectsNonJSONBody(t *testing.T) {
	dir := &fakeDirectory{}
	r := newTestRouter(&fakeUsers{known: map[string]bool{}}, dir)

	req := withCert(httptest.NewRequest(http.MethodPost, "/api/contacts", bytes.NewBufferString("name=x")), "bob")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
	assert.Empty(t, dir.userID)
}
