package upstream

import (
	"context"

	"learnhub/gateway/internal/models"
)

func (c *Client) ListUsers(ctx context.Context, accessToken string) ([]models.User, error) {
	var out struct {
		Users []models.User `json:"users"`
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetResult(&out).
		Get("/admin/users")
	if err := c.check(resp, err); err != nil {
		return nil, err
	}
	return out.Users, nil
}

func (c *Client) PromoteUser(ctx context.Context, accessToken, userID string) (models.User, error) {
	var out models.User
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetResult(&out).
		Post("/admin/users/" + userID + "/promote")
	if err := c.check(resp, err); err != nil {
		return models.User{}, err
	}
	return out, nil
}

func (c *Client) DeleteUser(ctx context.Context, accessToken, userID string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		Delete("/admin/users/" + userID)
	return c.check(resp, err)
}
