package eventstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"
)

// TokenSource 提供访问事件存储查询接口的 Token。
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticTokenSource 返回固定 Token。
type StaticTokenSource struct {
	Value string
}

func (s *StaticTokenSource) Token(context.Context) (string, error) {
	return s.Value, nil
}

// PasswordTokenConfig 配置基于用户名/密码换取 Token。
type PasswordTokenConfig struct {
	Endpoint   string
	Username   string
	Password   string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// PasswordTokenSource 调用认证接口换取 Token，并在过期前 30 秒刷新。
type PasswordTokenSource struct {
	cfg    PasswordTokenConfig
	client *http.Client
	now    func() time.Time

	mu     sync.Mutex
	token  string
	expiry time.Time
}

// NewPasswordTokenSource 创建 PasswordTokenSource。
func NewPasswordTokenSource(cfg PasswordTokenConfig) (*PasswordTokenSource, error) {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, errors.New("token endpoint 不能为空")
	}
	if cfg.Username == "" || cfg.Password == "" {
		return nil, errors.New("用户名和密码不能为空")
	}
	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &PasswordTokenSource{cfg: cfg, client: client, now: time.Now}, nil
}

func (s *PasswordTokenSource) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token != "" && s.expiry.Sub(s.now()) > 30*time.Second {
		return s.token, nil
	}
	return s.refresh(ctx)
}

func (s *PasswordTokenSource) refresh(ctx context.Context) (string, error) {
	payload, err := json.Marshal(map[string]string{
		"username": s.cfg.Username,
		"password": s.cfg.Password,
	})
	if err != nil {
		return "", fmt.Errorf("编码 token 请求失败: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("构建 token 请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("获取 token 失败: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token 接口返回状态码 %d", resp.StatusCode)
	}

	var body struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("解析 token 响应失败: %w", err)
	}
	if body.AccessToken == "" {
		return "", errors.New("token 响应中缺少 access_token")
	}
	ttl := time.Duration(body.ExpiresIn) * time.Second
	if body.ExpiresIn <= 0 {
		ttl = 30 * time.Minute
	}
	s.token = body.AccessToken
	s.expiry = s.now().Add(ttl)
	return s.token, nil
}
