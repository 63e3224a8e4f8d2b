// Package remote 获取并解析引擎版本目录。
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"time"

	"github.com/charmbracelet/log"

	"github.com/liangyou/seed/internal/platform"
	"github.com/liangyou/seed/pkg/models"
)

const (
	// DefaultCatalogURL 是官方版本目录地址。
	DefaultCatalogURL = "https://api.flaxengine.com/launcher/engine"
	// UserAgent 随目录与下载请求一起发送。
	UserAgent = "Seed Launcher for Flax"

	defaultTimeout = 30 * time.Second
)

// Catalog 定义版本目录应具备的能力。
type Catalog interface {
	FetchEngines(ctx context.Context) ([]models.Engine, error)
}

// HTTPClient 描述最小化的 HTTP 客户端接口，方便测试时替换。
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Option 用于配置 Client。
type Option func(*Client)

// WithSource 设置目录来源（远程地址或本地文件）。
func WithSource(source models.CatalogSource) Option {
	return func(c *Client) {
		if source.Location != "" {
			c.source = source
		}
	}
}

// WithHTTPClient 设置 HTTP 客户端。
func WithHTTPClient(h HTTPClient) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// WithTimeout 设置默认 HTTP 客户端的超时时间。
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithLogger 指定日志记录器。
func WithLogger(logger *log.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Client 实现 Catalog 接口，每次调用都重新获取，不做缓存。
type Client struct {
	source     models.CatalogSource
	httpClient HTTPClient
	timeout    time.Duration
	logger     *log.Logger
}

// NewClient 创建目录客户端。
func NewClient(opts ...Option) *Client {
	c := &Client{
		source:  models.RemoteCatalog(DefaultCatalogURL),
		timeout: defaultTimeout,
		logger:  log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: c.timeout}
	}
	return c
}

// FetchEngines 获取并严格解析目录，结果按版本从新到旧排序。
func (c *Client) FetchEngines(ctx context.Context) ([]models.Engine, error) {
	data, err := c.load(ctx)
	if err != nil {
		return nil, err
	}

	engines, err := parseCatalog(data)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("catalog loaded", "source", c.source.Location, "engines", len(engines))
	return engines, nil
}

func (c *Client) load(ctx context.Context) ([]byte, error) {
	if c.source.Kind == models.CatalogLocal {
		data, err := os.ReadFile(c.source.Location)
		if err != nil {
			return nil, transportFailure("read catalog file: %w", err)
		}
		return data, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.source.Location, nil)
	if err != nil {
		return nil, transportFailure("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, transportFailure("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, transportFailure("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportFailure("read body: %w", err)
	}
	return body, nil
}

// catalogDocument 与下面的结构使用指针字段，以区分缺失与零值。
type catalogDocument struct {
	Versions *[]rawEngine `json:"versions"`
}

type rawEngine struct {
	Name     *string       `json:"name"`
	Version  *string       `json:"version"`
	Packages *[]rawPackage `json:"packages"`
}

type rawPackage struct {
	Name       *string `json:"name"`
	Required   *bool   `json:"required"`
	Default    *bool   `json:"default"`
	TargetPath *string `json:"targetPath"`
	URL        *string `json:"url"`
}

func parseCatalog(data []byte) ([]models.Engine, error) {
	var doc catalogDocument
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&doc); err != nil {
		return nil, parseFailure("decode catalog: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, parseFailure("decode catalog: trailing data after document")
	}
	if doc.Versions == nil {
		return nil, parseFailure("missing field %q", "versions")
	}

	engines := make([]models.Engine, 0, len(*doc.Versions))
	for i, raw := range *doc.Versions {
		engine, err := raw.toEngine()
		if err != nil {
			return nil, parseFailure("versions[%d]: %w", i, err)
		}
		engines = append(engines, engine)
	}

	sort.SliceStable(engines, func(i, j int) bool {
		return engines[j].Version.Less(engines[i].Version)
	})
	return engines, nil
}

func (r rawEngine) toEngine() (models.Engine, error) {
	switch {
	case r.Name == nil:
		return models.Engine{}, fmt.Errorf("missing field %q", "name")
	case r.Version == nil:
		return models.Engine{}, fmt.Errorf("missing field %q", "version")
	case r.Packages == nil:
		return models.Engine{}, fmt.Errorf("missing field %q", "packages")
	}

	version, err := models.ParseVersion(*r.Version)
	if err != nil {
		return models.Engine{}, err
	}

	packages := make([]models.Package, 0, len(*r.Packages))
	for i, raw := range *r.Packages {
		pkg, err := raw.toPackage()
		if err != nil {
			return models.Engine{}, fmt.Errorf("packages[%d]: %w", i, err)
		}
		packages = append(packages, pkg)
	}

	return models.Engine{Name: *r.Name, Version: version, Packages: packages}, nil
}

func (r rawPackage) toPackage() (models.Package, error) {
	switch {
	case r.Name == nil:
		return models.Package{}, fmt.Errorf("missing field %q", "name")
	case r.TargetPath == nil:
		return models.Package{}, fmt.Errorf("missing field %q", "targetPath")
	case r.URL == nil:
		return models.Package{}, fmt.Errorf("missing field %q", "url")
	}

	return models.Package{
		Name:       *r.Name,
		Required:   r.Required,
		Default:    r.Default,
		TargetPath: *r.TargetPath,
		URL:        *r.URL,
		Class:      platform.Classify(*r.Name),
	}, nil
}
