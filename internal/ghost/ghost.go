package ghost

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// pageSize is how many posts are requested per Content API call.
const pageSize = 50

// Post represents a single recipe post from the Ghost API.
type Post struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	HTML      string `json:"html"`
	UpdatedAt string `json:"updated_at"`
}

// PostsResponse is the top-level structure of the Ghost API response for posts.
type PostsResponse struct {
	Posts []Post `json:"posts"`
	Meta  struct {
		Pagination struct {
			Page  int  `json:"page"`
			Pages int  `json:"pages"`
			Next  *int `json:"next"`
		} `json:"pagination"`
	} `json:"meta"`
}

// Client reads posts from the Ghost Content API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	contentKey string
}

// NewClient creates a new Ghost API client.
func NewClient(baseURL, contentKey string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
		contentKey: contentKey,
	}
}

// FetchRecipes fetches every post, following pagination. A non-empty tag limits the result to posts carrying it.
func (c *Client) FetchRecipes(ctx context.Context, tag string) ([]Post, error) {
	var posts []Post
	for page := 1; ; {
		resp, err := c.fetchPage(ctx, tag, page)
		if err != nil {
			return nil, err
		}
		posts = append(posts, resp.Posts...)
		if resp.Meta.Pagination.Next == nil || *resp.Meta.Pagination.Next <= page {
			return posts, nil
		}
		page = *resp.Meta.Pagination.Next
	}
}

func (c *Client) fetchPage(ctx context.Context, tag string, page int) (*PostsResponse, error) {
	q := url.Values{}
	q.Set("key", c.contentKey)
	q.Set("formats", "html")
	q.Set("limit", strconv.Itoa(pageSize))
	q.Set("page", strconv.Itoa(page))
	if tag != "" {
		q.Set("filter", "tag:"+tag)
	}
	endpoint := fmt.Sprintf("%s/ghost/api/content/posts/?%s", c.baseURL, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept-Version", "v5.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("content api error: status %d", resp.StatusCode)
	}

	var postsResponse PostsResponse
	if err := json.NewDecoder(resp.Body).Decode(&postsResponse); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &postsResponse, nil
}
