package providerdirectory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/m04kA/SMC-ConsultationService/internal/domain"
)

// Client HTTP клиент справочника провайдеров
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        Logger
}

// NewClient создает новый экземпляр клиента справочника
func NewClient(baseURL string, timeout time.Duration, log Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

// GetProvider получает профиль провайдера
func (c *Client) GetProvider(ctx context.Context, providerID int64) (*domain.Provider, error) {
	url := fmt.Sprintf("%s/internal/providers/%d", c.baseURL, providerID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", ErrInternal, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error("ProviderDirectory unavailable: provider=%d: %v", providerID, err)
		return nil, fmt.Errorf("%w: failed to execute request: %v", ErrInternal, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, ErrProviderNotFound
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("%w: unexpected status code %d: %s", ErrInvalidResponse, resp.StatusCode, string(body))
	}

	var provider Provider
	if err := json.NewDecoder(resp.Body).Decode(&provider); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", ErrInvalidResponse, err)
	}
	if provider.ID != providerID {
		return nil, fmt.Errorf("%w: requested provider %d, got %d", ErrInvalidResponse, providerID, provider.ID)
	}

	return provider.ToDomain(), nil
}

// IsNotFound true для ошибок отсутствия провайдера
func IsNotFound(err error) bool {
	return errors.Is(err, ErrProviderNotFound)
}
