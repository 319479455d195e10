// Package wordpress talks to the WordPress REST API: connection tests,
// featured-image uploads and post creation.
package wordpress

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/fiddyhq/autopublisher/pkg/logger"
)

const (
	usersMePath = "/wp-json/wp/v2/users/me"
	mediaPath   = "/wp-json/wp/v2/media"
	postsPath   = "/wp-json/wp/v2/posts"

	maxImageBytes = 20 << 20
)

// Target is one WordPress instance. Password is the application password,
// decrypted by the caller just for this call and never logged.
type Target struct {
	BaseURL  string
	Username string
	Password string
}

// Identity is who the credentials authenticate as.
type Identity struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Post is one piece of content ready to publish. Body is Markdown and gets
// converted before submission.
type Post struct {
	Title    string
	Body     string
	Keywords []string
	ImageURL string
}

// PublishResult reports what landed on the site. ImageWarning is set when
// the featured image upload failed and the post went out without it.
type PublishResult struct {
	PostID       int64
	PostURL      string
	MediaID      int64
	ImageWarning string
}

type wpError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type mediaResponse struct {
	ID        int64  `json:"id"`
	SourceURL string `json:"source_url"`
}

type postResponse struct {
	ID   int64  `json:"id"`
	Link string `json:"link"`
}

type postPayload struct {
	Title         string `json:"title"`
	Content       string `json:"content"`
	Status        string `json:"status"`
	FeaturedMedia int64  `json:"featured_media,omitempty"`
}

// Client publishes content to WordPress sites.
type Client struct {
	http   *http.Client
	logger logger.Logger
}

// New creates a publish client. A nil httpClient gets a 30s timeout, which
// bounds how long one publish call can stall a scheduler tick.
func New(httpClient *http.Client, log logger.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if log == nil {
		log = logger.Default()
	}
	return &Client{http: httpClient, logger: log}
}

// TestConnection verifies the credentials by asking the site who they
// authenticate as. Read-only, never mutates site state.
func (c *Client) TestConnection(ctx context.Context, target Target) (*Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint(target, usersMePath), nil)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(target.Username, target.Password)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, networkError("connection test", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, classifyStatus(resp.StatusCode, readMessage(resp.Body))
	}

	var identity Identity
	if err := json.NewDecoder(resp.Body).Decode(&identity); err != nil {
		return nil, fmt.Errorf("decode identity: %w", err)
	}
	return &identity, nil
}

// Publish uploads the featured image (when present) and creates the post.
// An image upload failure does not abort the publish; the post goes out
// without a featured image and the result carries a warning.
func (c *Client) Publish(ctx context.Context, target Target, post *Post) (*PublishResult, error) {
	result := &PublishResult{}

	if post.ImageURL != "" {
		mediaID, err := c.uploadMedia(ctx, target, post.ImageURL, post.Title)
		if err != nil {
			c.logger.Warn("featured image upload failed, publishing without it",
				"site", target.BaseURL,
				"error", err,
			)
			result.ImageWarning = err.Error()
		} else {
			result.MediaID = mediaID
		}
	}

	html, err := markupToHTML(post.Body)
	if err != nil {
		return nil, fmt.Errorf("convert markup: %w", err)
	}

	payload, err := json.Marshal(postPayload{
		Title:         post.Title,
		Content:       html,
		Status:        "publish",
		FeaturedMedia: result.MediaID,
	})
	if err != nil {
		return nil, fmt.Errorf("encode post: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint(target, postsPath), bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(target.Username, target.Password)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, networkError("post create", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, classifyStatus(resp.StatusCode, readMessage(resp.Body))
	}

	var created postResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return nil, fmt.Errorf("decode post response: %w", err)
	}

	result.PostID = created.ID
	result.PostURL = created.Link
	c.logger.Info("post published", "site", target.BaseURL, "post_id", created.ID)
	return result, nil
}

// uploadMedia fetches the generated image and pushes it to the site's media
// endpoint, returning the media id to attach to the post.
func (c *Client) uploadMedia(ctx context.Context, target Target, imageURL, title string) (int64, error) {
	data, contentType, err := c.fetchImage(ctx, imageURL)
	if err != nil {
		return 0, err
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", slugify(title)+extensionFor(contentType))
	if err != nil {
		return 0, err
	}
	if _, err := part.Write(data); err != nil {
		return 0, err
	}
	if err := writer.Close(); err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint(target, mediaPath), &body)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.SetBasicAuth(target.Username, target.Password)

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, networkError("media upload", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return 0, classifyStatus(resp.StatusCode, readMessage(resp.Body))
	}

	var media mediaResponse
	if err := json.NewDecoder(resp.Body).Decode(&media); err != nil {
		return 0, fmt.Errorf("decode media response: %w", err)
	}
	if media.ID == 0 {
		return 0, &Error{Kind: KindRemoteError, Message: "media upload returned no id"}
	}
	return media.ID, nil
}

// fetchImage downloads the generated image so it can be re-uploaded to the
// target site.
func (c *Client) fetchImage(ctx context.Context, imageURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, "", err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", networkError("image fetch", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", &Error{Kind: KindRemoteError, StatusCode: resp.StatusCode, Message: "image fetch failed"}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, "", networkError("image fetch", err)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return data, contentType, nil
}

func endpoint(target Target, path string) string {
	return strings.TrimRight(target.BaseURL, "/") + path
}

// readMessage pulls the human-readable message out of a WordPress error
// body, falling back to the raw payload.
func readMessage(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil || len(data) == 0 {
		return ""
	}
	var we wpError
	if err := json.Unmarshal(data, &we); err == nil && we.Message != "" {
		return we.Message
	}
	return strings.TrimSpace(string(data))
}
