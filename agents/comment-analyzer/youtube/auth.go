package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"comment-insights/shared/config"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const readonlyScope = "https://www.googleapis.com/auth/youtube.readonly"

// newOAuthHTTPClient returns an auto-refreshing client for the token stored in
// cfg.TokenFile, running the device flow when no usable token exists. base is
// used for both API calls and token refreshes.
func newOAuthHTTPClient(ctx context.Context, cfg *config.YouTubeConfig, base *http.Client) (*http.Client, error) {
	oauthConfig := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Scopes:       []string{readonlyScope},
		Endpoint:     google.Endpoint,
	}

	if base != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, base)
	}

	token, err := getToken(ctx, oauthConfig, cfg.TokenFile)
	if err != nil {
		return nil, fmt.Errorf("failed to get OAuth token: %w", err)
	}

	ts := &tokenSaver{
		ctx:       ctx,
		config:    oauthConfig,
		token:     token,
		tokenFile: cfg.TokenFile,
	}
	return oauth2.NewClient(ctx, ts), nil
}

// tokenSaver persists refreshed tokens so they survive restarts.
type tokenSaver struct {
	ctx       context.Context
	config    *oauth2.Config
	token     *oauth2.Token
	tokenFile string
	mu        sync.Mutex
}

func (ts *tokenSaver) Token() (*oauth2.Token, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	ctx := ts.ctx
	if ctx == nil {
		ctx = context.Background()
	}

	newToken, err := ts.config.TokenSource(ctx, ts.token).Token()
	if err != nil {
		return nil, err
	}

	if newToken.AccessToken != ts.token.AccessToken {
		logrus.Info("YouTube token refreshed, saving to file")
		ts.token = newToken
		if err := saveToken(ts.tokenFile, newToken); err != nil {
			logrus.Warnf("Failed to save refreshed token: %v", err)
		}
	}

	return newToken, nil
}

// getToken prefers a stored token with a refresh token, even an expired one,
// and only falls back to the device flow when nothing usable is on disk.
func getToken(ctx context.Context, oauthConfig *oauth2.Config, tokenFile string) (*oauth2.Token, error) {
	tok, err := tokenFromFile(tokenFile)
	if err == nil {
		if tok.RefreshToken != "" {
			logrus.WithField("expiry", tok.Expiry).Debug("Loaded YouTube token from file")
			return tok, nil
		}
		if tok.Valid() {
			return tok, nil
		}
	}

	logrus.Info("No usable YouTube token on disk, starting device authorization")
	tok, err = deviceFlowToken(ctx, oauthConfig)
	if err != nil {
		return nil, err
	}

	if err := saveToken(tokenFile, tok); err != nil {
		logrus.Warnf("Failed to save token: %v", err)
	}
	return tok, nil
}

func deviceFlowToken(ctx context.Context, oauthConfig *oauth2.Config) (*oauth2.Token, error) {
	resp, err := oauthConfig.DeviceAuth(ctx, oauth2.AccessTypeOffline)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			logrus.Errorf("Device authorization response failed (%s): %s", retrieveErr.Response.Status, strings.TrimSpace(string(retrieveErr.Body)))
		}
		return nil, fmt.Errorf("unable to start device authorization (the OAuth client must be of type 'TVs and Limited Input devices'): %w", err)
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 80))
	fmt.Printf("YOUTUBE DEVICE AUTHORIZATION REQUIRED\n")
	fmt.Printf("1. Visit %s in your browser.\n", resp.VerificationURI)
	fmt.Printf("2. Enter this code when prompted: %s\n", resp.UserCode)
	fmt.Printf("%s\n", strings.Repeat("=", 80))

	tok, err := oauthConfig.DeviceAccessToken(ctx, resp, oauth2.AccessTypeOffline)
	if err != nil {
		return nil, fmt.Errorf("device authorization did not complete: %w", err)
	}
	return tok, nil
}

func tokenFromFile(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	err = json.NewDecoder(f).Decode(tok)
	return tok, err
}

func saveToken(path string, token *oauth2.Token) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("unable to create token directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("unable to cache oauth token: %w", err)
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(token); err != nil {
		return fmt.Errorf("failed to encode oauth token: %w", err)
	}
	return nil
}
