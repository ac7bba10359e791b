package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/Yupiglo/yupimall-warehouse-sub000/internal/remote"
)

// RefreshResolver exchanges a refresh credential for a session token at the
// auth endpoint. A 401/403 from the endpoint means the credential itself is
// dead, which is terminal: the user has to sign in again.
func RefreshResolver(refreshURL, refreshToken string, client *http.Client) ResolveFunc {
	if client == nil {
		client = http.DefaultClient
	}
	return func(ctx context.Context) (string, error) {
		payload, err := json.Marshal(map[string]string{"refresh_token": refreshToken})
		if err != nil {
			return "", fmt.Errorf("encode refresh request: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, refreshURL, bytes.NewReader(payload))
		if err != nil {
			return "", fmt.Errorf("build refresh request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := client.Do(req)
		if err != nil {
			return "", fmt.Errorf("refresh token: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			return "", fmt.Errorf("refresh credential rejected: %w", remote.ErrAuthExpired)
		}
		if resp.StatusCode != http.StatusOK {
			return "", fmt.Errorf("refresh endpoint returned status %d", resp.StatusCode)
		}

		var body struct {
			Token string `json:"token"`
		}
		if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&body); err != nil {
			return "", fmt.Errorf("decode refresh response: %w", err)
		}
		if body.Token == "" {
			return "", fmt.Errorf("refresh response carried no token")
		}
		return body.Token, nil
	}
}
