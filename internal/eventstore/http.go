package eventstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"groupreaper/internal/domain"
)

var selectedColumns = []string{FieldEventID, FieldTimestamp, FieldProjectID, FieldGroupID}

// HTTPConfig 配置远端事件存储查询接口。
type HTTPConfig struct {
	BaseURL        string
	QueryAPI       string
	TokenSource    TokenSource
	Timeout        time.Duration
	CustomClient   *http.Client
	AuthHeaderName string
}

// HTTPStore 通过 HTTP 查询接口读取事件。
type HTTPStore struct {
	baseURL     string
	queryAPI    string
	httpClient  *http.Client
	tokenSource TokenSource
	authHeader  string
}

var _ Store = (*HTTPStore)(nil)

// NewHTTPStore 根据配置创建事件存储客户端。
func NewHTTPStore(cfg HTTPConfig) (*HTTPStore, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("event store base url 不能为空")
	}
	client := cfg.CustomClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	queryAPI := cfg.QueryAPI
	if queryAPI == "" {
		queryAPI = "/query"
	}
	authHeader := cfg.AuthHeaderName
	if strings.TrimSpace(authHeader) == "" {
		authHeader = "Authorization"
	}
	return &HTTPStore{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		queryAPI:    queryAPI,
		httpClient:  client,
		tokenSource: cfg.TokenSource,
		authHeader:  authHeader,
	}, nil
}

type queryRequest struct {
	Dataset         string             `json:"dataset"`
	SelectedColumns []string           `json:"selected_columns"`
	FilterKeys      map[string][]int64 `json:"filter_keys"`
	Conditions      []Condition        `json:"conditions"`
	OrderBy         []string           `json:"orderby,omitempty"`
	Limit           int                `json:"limit,omitempty"`
	Referrer        string             `json:"referrer,omitempty"`
}

type queryResponse struct {
	Data  []domain.Event `json:"data"`
	Error string         `json:"error"`
}

// GetEvents 实现 Store。
func (c *HTTPStore) GetEvents(ctx context.Context, filter Filter, opts QueryOptions) ([]domain.Event, error) {
	if c == nil {
		return nil, errors.New("event store http client 未初始化")
	}
	body := queryRequest{
		Dataset:         "events",
		SelectedColumns: selectedColumns,
		FilterKeys:      map[string][]int64{},
		Conditions:      filter.Conditions,
		OrderBy:         opts.OrderBy,
		Limit:           opts.Limit,
		Referrer:        opts.Referrer,
	}
	if body.Conditions == nil {
		body.Conditions = []Condition{}
	}
	if len(filter.ProjectIDs) > 0 {
		body.FilterKeys[FieldProjectID] = filter.ProjectIDs
	}
	if len(filter.GroupIDs) > 0 {
		body.FilterKeys[FieldGroupID] = filter.GroupIDs
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("编码事件查询失败: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+c.queryAPI, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("构建请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.tokenSource != nil {
		token, err := c.tokenSource.Token(ctx)
		if err != nil {
			return nil, fmt.Errorf("获取 token 失败: %w", err)
		}
		if token != "" {
			req.Header.Set(c.authHeader, "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("请求事件存储失败: %w", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取事件存储响应失败: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("事件存储返回状态码 %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var out queryResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("解析事件存储响应失败: %w", err)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("事件存储查询失败: %s", out.Error)
	}
	return out.Data, nil
}
