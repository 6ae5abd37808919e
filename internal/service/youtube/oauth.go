package youtube

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/youtube/v3"
)

// LoadOAuthConfig reads an installed-app client secret file with read-only YouTube scope.
func LoadOAuthConfig(credentialsFile string) (*oauth2.Config, error) {
	credBytes, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %w", err)
	}

	config, err := google.ConfigFromJSON(credBytes, youtube.YoutubeReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %w", err)
	}
	return config, nil
}

// NewOAuthHTTPClient returns an HTTP client authorized with a previously saved
// token. Run Authorize first when no token exists.
func NewOAuthHTTPClient(ctx context.Context, credentialsFile, tokenFile string, logger *zap.Logger) (*http.Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	config, err := LoadOAuthConfig(credentialsFile)
	if err != nil {
		return nil, err
	}

	token, err := loadToken(tokenFile)
	if err != nil {
		logger.Warn("No existing token found, need to authorize",
			zap.String("file", tokenFile))
		return nil, fmt.Errorf("no OAuth token at %s (run the auth command): %w", tokenFile, err)
	}

	logger.Info("YouTube OAuth client initialized",
		zap.String("token_file", tokenFile))
	return config.Client(ctx, token), nil
}

// Authorize runs the installed-app consent flow: it prints the consent URL to
// out, reads the authorization code from in and saves the token to tokenFile.
func Authorize(ctx context.Context, config *oauth2.Config, tokenFile string, in io.Reader, out io.Writer, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	authURL := config.AuthCodeURL("state-token", oauth2.AccessTypeOffline)

	logger.Info("Authorization required")
	fmt.Fprintln(out, "=== YouTube API Authorization ===")
	fmt.Fprintln(out, "Go to the following link in your browser:")
	fmt.Fprintln(out, authURL)
	fmt.Fprintln(out, "After authorization, enter the code here:")

	code, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return fmt.Errorf("unable to read authorization code: %w", err)
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return fmt.Errorf("empty authorization code")
	}

	token, err := config.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("unable to retrieve token: %w", err)
	}

	if err := saveToken(tokenFile, token); err != nil {
		return fmt.Errorf("unable to save token: %w", err)
	}

	logger.Info("YouTube OAuth authorization complete",
		zap.String("token_file", tokenFile))
	fmt.Fprintln(out, "Authorization successful. Token saved.")
	return nil
}

func loadToken(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	token := &oauth2.Token{}
	err = json.NewDecoder(f).Decode(token)
	return token, err
}

func saveToken(file string, token *oauth2.Token) error {
	f, err := os.OpenFile(file, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}

	if err := json.NewEncoder(f).Encode(token); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
