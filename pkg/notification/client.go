package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"noafarin/evaluation-service/config"
	pkgerrors "noafarin/evaluation-service/pkg/errors"
)

const createPath = "/notifications/internal/create"

// 通知类型与优先级（与用户服务通知模块约定一致）
const (
	TypeEvaluation = "evaluation"

	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Payload 通知内容
type Payload struct {
	Type     string                 `json:"type"`
	Priority string                 `json:"priority"`
	Title    string                 `json:"title"`
	Message  string                 `json:"message"`
	Link     string                 `json:"link,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// createRequest 用户服务内部接口请求体
type createRequest struct {
	UserID string `json:"userId"`
	Payload
}

// Client 通知服务客户端
//
// 投递语义：至多一次、尽力而为。
// 任何失败（超时、非 2xx、网络错误）只记录日志，不返回给调用方。
type Client struct {
	enabled        bool
	endpoint       string
	internalToken  string
	timeout        time.Duration
	maxConcurrency int
	httpClient     *http.Client
	logger         *zap.Logger

	inflight sync.WaitGroup
}

// NewClient 创建通知客户端
func NewClient(cfg *config.NotificationConfig, logger *zap.Logger) *Client {
	maxConcurrency := cfg.MaxConcurrency
	if maxConcurrency <= 0 {
		maxConcurrency = 8
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &Client{
		enabled:        cfg.Enabled,
		endpoint:       strings.TrimRight(cfg.BaseURL, "/") + createPath,
		internalToken:  cfg.InternalToken,
		timeout:        timeout,
		maxConcurrency: maxConcurrency,
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: logger,
	}
}

// Notify 同步发送一条通知，失败仅记录日志
func (c *Client) Notify(ctx context.Context, userID string, p Payload) {
	if !c.enabled {
		c.logger.Debug("通知已关闭，跳过发送",
			zap.String("user_id", userID),
			zap.String("title", p.Title),
		)
		return
	}

	if err := c.send(ctx, userID, p); err != nil {
		c.logger.Warn("发送通知失败",
			zap.String("user_id", userID),
			zap.String("title", p.Title),
			zap.Error(err),
		)
		return
	}

	c.logger.Debug("通知已发送", zap.String("user_id", userID), zap.String("title", p.Title))
}

// NotifyMany 并发向多个用户发送同一通知，等待全部完成
// 单个失败不影响其他发送
func (c *Client) NotifyMany(ctx context.Context, userIDs []string, p Payload) {
	var g errgroup.Group
	g.SetLimit(c.maxConcurrency)

	for _, id := range userIDs {
		g.Go(func() error {
			c.Notify(ctx, id, p)
			return nil
		})
	}

	_ = g.Wait()
}

// Dispatch 异步发送通知（fire-and-forget）
// 使用脱离请求生命周期的 context，请求结束不会取消发送
func (c *Client) Dispatch(ctx context.Context, userID string, p Payload) {
	detached := context.WithoutCancel(ctx)

	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()
		defer func() {
			if r := recover(); r != nil {
				c.logger.Error("通知发送 panic",
					zap.String("user_id", userID),
					zap.Any("panic", r),
				)
			}
		}()
		c.Notify(detached, userID, p)
	}()
}

// Wait 等待所有异步通知完成，用于优雅关闭
func (c *Client) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		c.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Client) send(ctx context.Context, userID string, p Payload) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(createRequest{UserID: userID, Payload: p})
	if err != nil {
		return fmt.Errorf("%w: 序列化通知失败: %v", pkgerrors.ErrDependency, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: 构造请求失败: %v", pkgerrors.ErrDependency, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.internalToken != "" {
		req.Header.Set("X-Internal-Token", c.internalToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", pkgerrors.ErrDependency, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: 通知服务返回状态码 %d", pkgerrors.ErrDependency, resp.StatusCode)
	}
	return nil
}
