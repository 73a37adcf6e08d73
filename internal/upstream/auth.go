package upstream

import (
	"context"
	"io"

	"learnhub/gateway/internal/models"
)

// TokenResponse is the credential pair issued by the login and refresh
// endpoints.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// Login exchanges credentials for a token pair. The token endpoint is the
// one place the platform expects form encoding instead of JSON.
func (c *Client) Login(ctx context.Context, email, password string) (TokenResponse, error) {
	var out TokenResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"username": email,
			"password": password,
		}).
		SetResult(&out).
		Post("/auth/login")
	if err := c.check(resp, err); err != nil {
		return TokenResponse{}, err
	}
	return out, nil
}

// Refresh trades a refresh token for a fresh pair. The platform rotates
// both tokens; the caller must replace its cached copy wholesale.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (TokenResponse, error) {
	var out TokenResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"refresh_token": refreshToken}).
		SetResult(&out).
		Post("/auth/refresh")
	if err := c.check(resp, err); err != nil {
		return TokenResponse{}, err
	}
	return out, nil
}

type RegisterInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

func (c *Client) Register(ctx context.Context, input RegisterInput) (models.User, error) {
	var out models.User
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(input).
		SetResult(&out).
		Post("/auth/register")
	if err := c.check(resp, err); err != nil {
		return models.User{}, err
	}
	return out, nil
}

// Me fetches the profile of the token's owner.
func (c *Client) Me(ctx context.Context, accessToken string) (models.User, error) {
	var out models.User
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetResult(&out).
		Get("/users/me")
	if err := c.check(resp, err); err != nil {
		return models.User{}, err
	}
	return out, nil
}

// UpdateAvatar forwards a profile picture as multipart and returns the
// refetched profile.
func (c *Client) UpdateAvatar(ctx context.Context, accessToken, filename string, file io.Reader) (models.User, error) {
	var out models.User
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetFileReader("file", filename, file).
		SetResult(&out).
		Put("/users/me/avatar")
	if err := c.check(resp, err); err != nil {
		return models.User{}, err
	}
	return out, nil
}
