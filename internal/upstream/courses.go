package upstream

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"learnhub/gateway/internal/models"
)

func (c *Client) ListCourses(ctx context.Context, accessToken string) ([]models.Course, error) {
	var out struct {
		Courses []models.Course `json:"courses"`
	}
	req := c.http.R().
		SetContext(ctx).
		SetResult(&out)
	if accessToken != "" {
		req.SetAuthToken(accessToken)
	}
	resp, err := req.Get("/courses")
	if err := c.check(resp, err); err != nil {
		return nil, err
	}
	return out.Courses, nil
}

type CreateCourseInput struct {
	Title       string
	Description string
	Price       int64
	Duration    string
	MediaName   string
	Media       io.Reader
}

// CreateCourse uploads a new course with its media file as multipart.
func (c *Client) CreateCourse(ctx context.Context, accessToken string, input CreateCourseInput) (models.Course, error) {
	var out models.Course
	req := c.http.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetFormData(map[string]string{
			"title":       input.Title,
			"description": input.Description,
			"price_cents": strconv.FormatInt(input.Price, 10),
			"duration":    input.Duration,
		}).
		SetResult(&out)
	if input.Media != nil {
		req.SetFileReader("media", input.MediaName, input.Media)
	}
	resp, err := req.Post("/courses")
	if err := c.check(resp, err); err != nil {
		return models.Course{}, err
	}
	return out, nil
}

func (c *Client) PurchaseCourse(ctx context.Context, accessToken, courseID string) (models.Course, error) {
	var out models.Course
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetResult(&out).
		Post("/courses/" + courseID + "/purchase")
	if err := c.check(resp, err); err != nil {
		return models.Course{}, err
	}
	return out, nil
}

// LikeResult is the platform's authoritative like state after toggling.
type LikeResult struct {
	Liked     bool `json:"liked"`
	LikeCount int  `json:"like_count"`
}

func (c *Client) LikeCourse(ctx context.Context, accessToken, courseID string) (LikeResult, error) {
	var out LikeResult
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetResult(&out).
		Post("/courses/" + courseID + "/like")
	if err := c.check(resp, err); err != nil {
		return LikeResult{}, err
	}
	return out, nil
}

// Download is a streamed course media payload. Body must be closed by the
// caller.
type Download struct {
	Body        io.ReadCloser
	ContentType string
	Length      int64
}

// DownloadCourse streams the purchased course's media. The platform
// enforces ownership; the gateway only relays.
func (c *Client) DownloadCourse(ctx context.Context, accessToken, courseID string) (Download, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetDoNotParseResponse(true).
		Get("/courses/" + courseID + "/download")
	if err != nil {
		return Download{}, fmt.Errorf("platform api: %w", err)
	}

	raw := resp.RawResponse
	if raw.StatusCode == http.StatusUnauthorized {
		raw.Body.Close()
		return Download{}, ErrUnauthorized
	}
	if raw.StatusCode < 200 || raw.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(raw.Body, 4096))
		raw.Body.Close()
		return Download{}, &APIError{
			Status:  raw.StatusCode,
			Message: extractMessage(body),
		}
	}

	return Download{
		Body:        raw.Body,
		ContentType: raw.Header.Get("Content-Type"),
		Length:      raw.ContentLength,
	}, nil
}
