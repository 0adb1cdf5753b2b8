package utils

import (
	"errors"
	"fmt"
	"strings"
	"time"

	sdk "github.com/bitwarden/sdk-go"
)

const (
	secretsLoginAttempts = 5
	secretsFirstBackoff  = 500 * time.Millisecond
)

// FetchProjectSecrets logs in to Bitwarden Secrets Manager with a machine
// account token and returns the key/value pairs of one project, matched
// case-insensitively by name.
func FetchProjectSecrets(accessToken, orgID, project string) (map[string]string, error) {
	switch {
	case strings.TrimSpace(accessToken) == "":
		return nil, errors.New("bitwarden access token is empty")
	case strings.TrimSpace(orgID) == "":
		return nil, errors.New("bitwarden organization id is empty")
	case strings.TrimSpace(project) == "":
		return nil, errors.New("bitwarden project name is empty")
	}

	bw, err := sdk.NewBitwardenClient(nil, nil)
	if err != nil {
		return nil, fmt.Errorf("init bitwarden client: %w", err)
	}
	defer bw.Close()

	if err := loginWithBackoff(bw, accessToken); err != nil {
		return nil, err
	}

	projects, err := bw.Projects().List(orgID)
	if err != nil {
		return nil, fmt.Errorf("list bitwarden projects: %w", err)
	}
	projectID := ""
	for _, p := range projects.Data {
		if strings.EqualFold(p.Name, project) {
			projectID = p.ID
			break
		}
	}
	if projectID == "" {
		return nil, fmt.Errorf("bitwarden project %q not found", project)
	}

	synced, err := bw.Secrets().Sync(orgID, nil)
	if err != nil {
		return nil, fmt.Errorf("sync bitwarden secrets: %w", err)
	}
	out := make(map[string]string)
	for _, s := range synced.Secrets {
		if s.ProjectID != nil && *s.ProjectID == projectID {
			out[s.Key] = s.Value
		}
	}
	return out, nil
}

// loginWithBackoff retries only rate-limited logins, doubling the wait.
func loginWithBackoff(bw sdk.BitwardenClientInterface, accessToken string) error {
	wait := secretsFirstBackoff
	var err error
	for attempt := 1; attempt <= secretsLoginAttempts; attempt++ {
		if err = bw.AccessTokenLogin(accessToken, nil); err == nil {
			return nil
		}
		if !isRateLimited(err) {
			return fmt.Errorf("bitwarden login: %w", err)
		}
		if attempt < secretsLoginAttempts {
			Logger.WithError(err).Warnf("bitwarden login rate limited, retrying in %v", wait)
			time.Sleep(wait)
			wait *= 2
		}
	}
	return fmt.Errorf("bitwarden login: gave up after %d attempts: %w", secretsLoginAttempts, err)
}

// sdk-go surfaces HTTP failures as plain strings.
func isRateLimited(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "429") || strings.Contains(msg, "Too Many Requests")
}
