package gcal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// ClientOptions builds authentication options from files on disk.
//
//   - credentialsFile only: a service-account or authorized-user JSON key.
//   - credentialsFile and tokenFile: an OAuth client secret plus a saved
//     oauth2.Token (as written by any installed-app consent flow). The
//     token is refreshed in memory; the file is not rewritten.
//
// Obtaining the token in the first place is outside this package.
func ClientOptions(ctx context.Context, credentialsFile, tokenFile string) ([]option.ClientOption, error) {
	if credentialsFile == "" {
		return nil, errors.New("gcal: credentials file is required")
	}
	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("gcal: read credentials: %w", err)
	}

	if tokenFile == "" {
		creds, err := google.CredentialsFromJSON(ctx, data, calendar.CalendarEventsScope)
		if err != nil {
			return nil, fmt.Errorf("gcal: parse credentials: %w", err)
		}
		return []option.ClientOption{option.WithCredentials(creds)}, nil
	}

	conf, err := google.ConfigFromJSON(data, calendar.CalendarEventsScope)
	if err != nil {
		return nil, fmt.Errorf("gcal: parse client secret: %w", err)
	}
	tok, err := readToken(tokenFile)
	if err != nil {
		return nil, err
	}
	return []option.ClientOption{option.WithHTTPClient(conf.Client(ctx, tok))}, nil
}

func readToken(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("gcal: open token: %w", err)
	}
	defer f.Close()

	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, fmt.Errorf("gcal: decode token: %w", err)
	}
	if tok.AccessToken == "" && tok.RefreshToken == "" {
		return nil, errors.New("gcal: token file holds neither access nor refresh token")
	}
	return tok, nil
}
