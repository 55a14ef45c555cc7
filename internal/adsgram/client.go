// Package adsgram предоставляет клиент рекламной площадки: проверку
// факта просмотра рекламного блока пользователем.
package adsgram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// Client инкапсулирует HTTP-взаимодействие с рекламной площадкой.
type Client struct {
	baseURL    string
	httpClient *retryablehttp.Client
}

// ShowResult описывает вердикт площадки по одному показу.
type ShowResult struct {
	Done bool `json:"done"`
}

// NewClient создаёт HTTP-клиент рекламной площадки по указанному адресу.
// Повторы при временных сбоях и обработку Retry-After берёт на себя
// retryablehttp.
func NewClient(baseURL string) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 2
	rc.RetryWaitMin = 200 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.HTTPClient.Timeout = 5 * time.Second
	rc.Logger = nil

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: rc,
	}
}

// Show запрашивает показ рекламного блока и возвращает признак
// подтверждённого просмотра. Любой сбой транспорта или площадки
// трактуется вызывающим как неподтверждённый просмотр.
func (c *Client) Show(ctx context.Context, blockID string) (bool, error) {
	if c == nil || c.baseURL == "" {
		return false, fmt.Errorf("adsgram client not configured")
	}

	base := c.baseURL
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}

	url := fmt.Sprintf("%s/api/blocks/%s/show", base, blockID)

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return false, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var result ShowResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return false, fmt.Errorf("decode response: %w", err)
	}

	return result.Done, nil
}
