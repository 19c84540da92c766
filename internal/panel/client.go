package panel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/magabrotheeeer/hosting-aggregator/internal/models"
)

// RemoteError — ошибка вызова API панели с человекочитаемым описанием.
type RemoteError struct {
	Op     string
	Status int
	Detail string
}

func (e *RemoteError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: panel returned status %d: %s", e.Op, e.Status, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Detail)
}

// Client — HTTP-клиент application API панели.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// New создает клиент панели. Таймаут фиксированный, ретраев нет.
func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// IsConfigured сообщает, заданы ли адрес панели и ключ API.
func (c *Client) IsConfigured() bool {
	return c.baseURL != "" && c.apiKey != ""
}

// Health выполняет лёгкий пробный запрос к панели.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/api/application/nodes?per_page=1", nil, nil)
}

// CreateUser создает аккаунт пользователя панели.
func (c *Client) CreateUser(ctx context.Context, req CreateUserRequest) (*User, error) {
	var resp struct {
		Attributes User `json:"attributes"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/application/users", req, &resp); err != nil {
		return nil, err
	}
	return &resp.Attributes, nil
}

// GetUser возвращает аккаунт пользователя панели по id.
func (c *Client) GetUser(ctx context.Context, id int) (*User, error) {
	var resp struct {
		Attributes User `json:"attributes"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/application/users/"+strconv.Itoa(id), nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Attributes, nil
}

// DeleteUser удаляет аккаунт пользователя панели.
func (c *Client) DeleteUser(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, "/api/application/users/"+strconv.Itoa(id), nil, nil)
}

// CreateServer создает сервер панели.
func (c *Client) CreateServer(ctx context.Context, req CreateServerRequest) (*Server, error) {
	var resp struct {
		Attributes Server `json:"attributes"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/application/servers", req, &resp); err != nil {
		return nil, err
	}
	return &resp.Attributes, nil
}

// GetServer возвращает сервер панели по числовому id.
func (c *Client) GetServer(ctx context.Context, id int) (*Server, error) {
	var resp struct {
		Attributes Server `json:"attributes"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/application/servers/"+strconv.Itoa(id), nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Attributes, nil
}

// DeleteServer удаляет сервер панели.
func (c *Client) DeleteServer(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, "/api/application/servers/"+strconv.Itoa(id), nil, nil)
}

// SuspendServer приостанавливает сервер панели.
func (c *Client) SuspendServer(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodPost, "/api/application/servers/"+strconv.Itoa(id)+"/suspend", nil, nil)
}

// UnsuspendServer возобновляет работу сервера панели.
func (c *Client) UnsuspendServer(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodPost, "/api/application/servers/"+strconv.Itoa(id)+"/unsuspend", nil, nil)
}

// ListServers возвращает полный список серверов панели.
func (c *Client) ListServers(ctx context.Context) ([]Server, error) {
	var resp struct {
		Data []struct {
			Attributes Server `json:"attributes"`
		} `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/application/servers?per_page=500", nil, &resp); err != nil {
		return nil, err
	}
	servers := make([]Server, 0, len(resp.Data))
	for _, item := range resp.Data {
		servers = append(servers, item.Attributes)
	}
	return servers, nil
}

// ListNodes возвращает список узлов панели.
func (c *Client) ListNodes(ctx context.Context) ([]Node, error) {
	var resp struct {
		Data []struct {
			Attributes Node `json:"attributes"`
		} `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/application/nodes", nil, &resp); err != nil {
		return nil, err
	}
	nodes := make([]Node, 0, len(resp.Data))
	for _, item := range resp.Data {
		nodes = append(nodes, item.Attributes)
	}
	return nodes, nil
}

// ListAllocations возвращает аллокации узла.
func (c *Client) ListAllocations(ctx context.Context, nodeID int) ([]Allocation, error) {
	var resp struct {
		Data []struct {
			Attributes Allocation `json:"attributes"`
		} `json:"data"`
	}
	path := fmt.Sprintf("/api/application/nodes/%d/allocations?per_page=500", nodeID)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	allocations := make([]Allocation, 0, len(resp.Data))
	for _, item := range resp.Data {
		allocations = append(allocations, item.Attributes)
	}
	return allocations, nil
}

// CreateAllocations создает пачку аллокаций на узле.
func (c *Client) CreateAllocations(ctx context.Context, nodeID int, req CreateAllocationsRequest) error {
	path := fmt.Sprintf("/api/application/nodes/%d/allocations", nodeID)
	return c.do(ctx, http.MethodPost, path, req, nil)
}

// GetServerUsage возвращает текущее потребление ресурсов сервера.
func (c *Client) GetServerUsage(ctx context.Context, uuid string) (*models.ResourceUsage, error) {
	var resp struct {
		Attributes struct {
			CurrentState string `json:"current_state"`
			Resources    struct {
				CPUAbsolute float64 `json:"cpu_absolute"`
				MemoryBytes float64 `json:"memory_bytes"`
				DiskBytes   float64 `json:"disk_bytes"`
			} `json:"resources"`
		} `json:"attributes"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/application/servers/"+uuid+"/resources", nil, &resp); err != nil {
		return nil, err
	}
	return &models.ResourceUsage{
		State:    resp.Attributes.CurrentState,
		CPUPct:   resp.Attributes.Resources.CPUAbsolute,
		MemoryMB: resp.Attributes.Resources.MemoryBytes / 1024 / 1024,
		DiskMB:   resp.Attributes.Resources.DiskBytes / 1024 / 1024,
	}, nil
}

func (c *Client) do(ctx context.Context, method, path string, reqBody, respBody any) error {
	op := fmt.Sprintf("panel.%s %s", method, path)

	var body io.Reader
	if reqBody != nil {
		data, err := json.Marshal(reqBody)
		if err != nil {
			return &RemoteError{Op: op, Detail: fmt.Sprintf("marshal request: %v", err)}
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return &RemoteError{Op: op, Detail: fmt.Sprintf("create request: %v", err)}
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return &RemoteError{Op: op, Detail: fmt.Sprintf("send request: %v", err)}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &RemoteError{Op: op, Status: resp.StatusCode, Detail: fmt.Sprintf("read response: %v", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &RemoteError{Op: op, Status: resp.StatusCode, Detail: errorDetail(data)}
	}

	if respBody != nil {
		if err := json.Unmarshal(data, respBody); err != nil {
			return &RemoteError{Op: op, Status: resp.StatusCode, Detail: fmt.Sprintf("decode response: %v", err)}
		}
	}
	return nil
}

// errorDetail извлекает текст первой ошибки из ответа панели
// формата {"errors":[{"detail":"..."}]}, иначе возвращает тело как есть.
func errorDetail(body []byte) string {
	var parsed struct {
		Errors []struct {
			Detail string `json:"detail"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && len(parsed.Errors) > 0 && parsed.Errors[0].Detail != "" {
		return parsed.Errors[0].Detail
	}
	return string(body)
}
