package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-kratos/kratos/v2/log"
)

const userAgent = "dashbot-client/1.0"

// 后端接口路径
const (
	pathHealth  = "/api/health"
	pathTest    = "/api/test"
	pathAnalyze = "/api/analyze"
	pathReports = "/relatorios/"
)

// Options 客户端超时配置，零值字段使用默认值
type Options struct {
	AnalysisTimeout time.Duration
	TestTimeout     time.Duration
	HealthTimeout   time.Duration
	ProbeTimeout    time.Duration
	DownloadTimeout time.Duration
	HTTPClient      *http.Client
}

func (o Options) withDefaults() Options {
	if o.AnalysisTimeout <= 0 {
		o.AnalysisTimeout = 3 * time.Minute
	}
	if o.TestTimeout <= 0 {
		o.TestTimeout = 35 * time.Second
	}
	if o.HealthTimeout <= 0 {
		o.HealthTimeout = 5 * time.Second
	}
	if o.ProbeTimeout <= 0 {
		o.ProbeTimeout = 2 * time.Second
	}
	if o.DownloadTimeout <= 0 {
		o.DownloadTimeout = time.Minute
	}
	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{}
	}
	return o
}

// Client 分析后端 API 客户端
type Client struct {
	mu      sync.RWMutex
	baseURL string
	opts    Options
	client  *http.Client
	log     *log.Helper
}

// NewClient 创建一个新的分析后端客户端
func NewClient(baseURL string, opts Options, logger log.Logger) *Client {
	opts = opts.withDefaults()
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		opts:    opts,
		client:  opts.HTTPClient,
		log:     log.NewHelper(logger),
	}
}

// BaseURL 当前使用的后端地址
func (c *Client) BaseURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.baseURL
}

func (c *Client) setBaseURL(u string) {
	c.mu.Lock()
	c.baseURL = strings.TrimRight(u, "/")
	c.mu.Unlock()
}

// AnalysisTimeout 单次分析允许的最长等待时间
func (c *Client) AnalysisTimeout() time.Duration {
	return c.opts.AnalysisTimeout
}

// SubmitAnalysis 提交分析请求并等待结果
func (c *Client) SubmitAnalysis(ctx context.Context, req Request) (*Result, error) {
	req = req.normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.opts.AnalysisTimeout)
	defer cancel()

	httpReq, err := c.newAnalyzeRequest(ctx, &req)
	if err != nil {
		return nil, err
	}

	if req.UsesURL() {
		c.log.Infof("开始分析: project=%s url=%s", req.ProjectName, req.SheetsURL)
	} else {
		c.log.Infof("开始分析: project=%s file=%s (%d bytes)", req.ProjectName, req.File.Name, len(req.File.Data))
	}

	start := time.Now()
	body, status, err := c.do(ctx, httpReq, c.opts.AnalysisTimeout)
	if err != nil {
		c.log.Errorf("分析请求失败，耗时 %.1fs: %v", time.Since(start).Seconds(), err)
		return nil, err
	}
	c.log.Infof("分析响应已收到，耗时 %.1fs (status %d)", time.Since(start).Seconds(), status)

	if status/100 != 2 {
		return nil, ErrorServer(status, strings.TrimSpace(string(body)))
	}

	var result *Result
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, ErrorMalformed("invalid response from server during analysis").WithCause(err)
	}
	if result == nil {
		return nil, ErrorMalformed("empty response from server during analysis")
	}

	if !result.Success {
		msg := result.Error
		if msg == "" {
			msg = "analysis failed"
		}
		return nil, ErrorBusiness(msg)
	}

	return result, nil
}

func (c *Client) newAnalyzeRequest(ctx context.Context, req *Request) (*http.Request, error) {
	endpoint := c.BaseURL() + pathAnalyze

	if req.UsesURL() {
		payload, err := json.Marshal(analyzeBody{
			SheetsURL:   req.SheetsURL,
			ProjectName: req.ProjectName,
			ReportStyle: req.ReportStyle,
			DateStart:   req.DateStart,
			DateEnd:     req.DateEnd,
		})
		if err != nil {
			return nil, fmt.Errorf("marshal request failed: %w", err)
		}
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("create request failed: %w", err)
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("User-Agent", userAgent)
		return httpReq, nil
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filepath.Base(req.File.Name))
	if err != nil {
		return nil, fmt.Errorf("create form file failed: %w", err)
	}
	if _, err := part.Write(req.File.Data); err != nil {
		return nil, fmt.Errorf("write form file failed: %w", err)
	}
	fields := [][2]string{
		{"nome_loja", req.ProjectName},
		{"usar_looker", "false"},
		{"gerar_ia", "true"},
		{"estilo_pdf", req.ReportStyle},
	}
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, fmt.Errorf("write form field %s failed: %w", f[0], err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer failed: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}
	httpReq.Header.Set("Content-Type", w.FormDataContentType())
	httpReq.Header.Set("User-Agent", userAgent)
	return httpReq, nil
}

// Health 查询后端健康状态与版本
func (c *Client) Health(ctx context.Context) (*HealthInfo, error) {
	return c.health(ctx, c.BaseURL(), c.opts.HealthTimeout)
}

// CheckHealth 快速探测后端是否在线
func (c *Client) CheckHealth(ctx context.Context) bool {
	if _, err := c.Health(ctx); err != nil {
		c.log.Warnf("后端健康检查失败 [%s]: %v", c.BaseURL(), err)
		return false
	}
	return true
}

func (c *Client) health(ctx context.Context, base string, timeout time.Duration) (*HealthInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, base+pathHealth, nil)
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}
	httpReq.Header.Set("User-Agent", userAgent)

	body, status, err := c.do(ctx, httpReq, timeout)
	if err != nil {
		return nil, err
	}
	if status/100 != 2 {
		return nil, ErrorServer(status, strings.TrimSpace(string(body)))
	}

	var info HealthInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, ErrorMalformed("invalid health response").WithCause(err)
	}
	return &info, nil
}

// TestConnection 让后端检查表格是否可访问
func (c *Client) TestConnection(ctx context.Context, sheetsURL string) (*TestResult, error) {
	sheetsURL = strings.TrimSpace(sheetsURL)
	if sheetsURL == "" {
		return nil, ErrorValidation("enter the spreadsheet URL")
	}
	if !IsValidSheetsURL(sheetsURL) {
		return nil, ErrorValidation("invalid URL, use a valid Google Sheets link")
	}

	ctx, cancel := context.WithTimeout(ctx, c.opts.TestTimeout)
	defer cancel()

	payload, err := json.Marshal(testBody{SheetsURL: sheetsURL})
	if err != nil {
		return nil, fmt.Errorf("marshal request failed: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL()+pathTest, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("User-Agent", userAgent)

	body, status, err := c.do(ctx, httpReq, c.opts.TestTimeout)
	if err != nil {
		return nil, err
	}
	if status/100 != 2 {
		return nil, ErrorServer(status, strings.TrimSpace(string(body)))
	}

	var result TestResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, ErrorMalformed("invalid response from server").WithCause(err)
	}
	if !result.Success {
		return nil, ErrorBusiness(result.Error)
	}
	if result.Message == "" {
		result.Message = "spreadsheet reachable"
	}
	return &result, nil
}

// ReportURL 返回报告文件的下载地址
func (c *Client) ReportURL(fileName string) string {
	return c.BaseURL() + pathReports + url.PathEscape(fileName)
}

// FetchReportBytes 下载已生成的报告，失败时返回 false 而不是错误
func (c *Client) FetchReportBytes(ctx context.Context, fileName string) ([]byte, bool) {
	if fileName == "" {
		c.log.Warn("报告文件名为空，跳过下载")
		return nil, false
	}

	ctx, cancel := context.WithTimeout(ctx, c.opts.DownloadTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.ReportURL(fileName), nil)
	if err != nil {
		c.log.Errorf("创建下载请求失败 [%s]: %v", fileName, err)
		return nil, false
	}
	httpReq.Header.Set("User-Agent", userAgent)

	body, status, err := c.do(ctx, httpReq, c.opts.DownloadTimeout)
	if err != nil {
		c.log.Errorf("下载报告失败 [%s]: %v", fileName, err)
		return nil, false
	}
	if status/100 != 2 {
		c.log.Errorf("下载报告失败 [%s]: status %d", fileName, status)
		return nil, false
	}
	return body, true
}

func (c *Client) do(ctx context.Context, req *http.Request, budget time.Duration) ([]byte, int, error) {
	res, err := c.client.Do(req)
	if err != nil {
		return nil, 0, transportError(ctx, err, budget)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, 0, transportError(ctx, err, budget)
	}
	return body, res.StatusCode, nil
}

// transportError 区分超时、主动取消与其它网络错误
func transportError(ctx context.Context, err error, budget time.Duration) error {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return ErrorTimeout("request took too long (maximum %s)", budget).WithCause(err)
	case errors.Is(ctx.Err(), context.Canceled):
		return fmt.Errorf("request canceled: %w", ctx.Err())
	default:
		return ErrorUnavailable("request failed: %v", err).WithCause(err)
	}
}
