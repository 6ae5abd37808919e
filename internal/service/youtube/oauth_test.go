package youtube

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

const installedCredentials = `{"installed":{"client_id":"client-id","client_secret":"client-secret","redirect_uris":["urn:ietf:wg:oauth:2.0:oob"],"auth_uri":"https://accounts.google.com/o/oauth2/auth","token_uri":"https://oauth2.googleapis.com/token"}}`

func TestNewOAuthHTTPClient_MissingToken(t *testing.T) {
	dir := t.TempDir()
	creds := filepath.Join(dir, "credentials.json")
	require.NoError(t, os.WriteFile(creds, []byte(installedCredentials), 0o600))

	_, err := NewOAuthHTTPClient(context.Background(), creds, filepath.Join(dir, "token.json"), nil)
	assert.Error(t, err)
}

func TestAuthorize_SavesTokenUsableByClient(t *testing.T) {
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "auth-code", r.Form.Get("code"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"access","token_type":"Bearer","refresh_token":"refresh","expires_in":3600}`)
	}))
	defer tokenSrv.Close()

	dir := t.TempDir()
	creds := filepath.Join(dir, "credentials.json")
	tokenFile := filepath.Join(dir, "token.json")
	require.NoError(t, os.WriteFile(creds, []byte(installedCredentials), 0o600))

	config, err := LoadOAuthConfig(creds)
	require.NoError(t, err)
	config.Endpoint = oauth2.Endpoint{AuthURL: tokenSrv.URL + "/auth", TokenURL: tokenSrv.URL + "/token"}

	var out bytes.Buffer
	err = Authorize(context.Background(), config, tokenFile, strings.NewReader("auth-code\n"), &out, nil)
	require.NoError(t, err)
	assert.Contains(t, out.String(), tokenSrv.URL+"/auth")

	saved, err := loadToken(tokenFile)
	require.NoError(t, err)
	assert.Equal(t, "access", saved.AccessToken)
	assert.Equal(t, "refresh", saved.RefreshToken)

	client, err := NewOAuthHTTPClient(context.Background(), creds, tokenFile, nil)
	require.NoError(t, err)
	assert.NotNil(t, client)
}

func TestAuthorize_EmptyCode(t *testing.T) {
	config := &oauth2.Config{ClientID: "id", Endpoint: oauth2.Endpoint{AuthURL: "https://example.com/auth"}}

	err := Authorize(context.Background(), config, filepath.Join(t.TempDir(), "token.json"), strings.NewReader("\n"), &bytes.Buffer{}, nil)
	assert.Error(t, err)
}

func TestSaveToken(t *testing.T) {
	tokenFile := filepath.Join(t.TempDir(), "token.json")
	require.NoError(t, os.WriteFile(tokenFile, []byte(strings.Repeat("x", 4096)), 0o600))

	require.NoError(t, saveToken(tokenFile, &oauth2.Token{AccessToken: "new", TokenType: "Bearer"}))

	saved, err := loadToken(tokenFile)
	require.NoError(t, err, "old content is truncated")
	assert.Equal(t, "new", saved.AccessToken)

	err = saveToken(filepath.Join(t.TempDir(), "missing", "token.json"), &oauth2.Token{AccessToken: "x"})
	assert.Error(t, err)
}
