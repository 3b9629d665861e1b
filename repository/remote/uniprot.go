package remote

import (
	"context"
	"errors"
	"fmt"
	"github.com/valyala/fasthttp"
	"pseudoenzymes-backend/utils"
	"time"
)

var ErrNotFound = errors.New("entry not found")

type Config struct {
	// %s 为 accession
	EntryURL string
	Timeout  time.Duration
}

/*
UniProtClient 按 accession 获取单条 UniProt 文本格式的条目
*/
type UniProtClient struct {
	config Config
	client *fasthttp.Client
}

func NewUniProtClient(config *Config) *UniProtClient {
	return NewUniProtClientWith(config, &fasthttp.Client{
		Name:                "pseudoenzymes-backend",
		MaxConnsPerHost:     4,
		MaxIdleConnDuration: time.Minute,
	})
}

func NewUniProtClientWith(config *Config, client *fasthttp.Client) *UniProtClient {
	c := *config
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	return &UniProtClient{config: c, client: client}
}

/*
FetchEntry 返回条目原文；条目不存在（404、410 或空响应）时返回 ErrNotFound，其它失败原样返回
*/
func (c *UniProtClient) FetchEntry(ctx context.Context, accession string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(fmt.Sprintf(c.config.EntryURL, accession))
	req.Header.SetMethod(fasthttp.MethodGet)

	deadline := time.Now().Add(c.config.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.client.DoDeadline(req, resp, deadline); err != nil {
		return nil, utils.WrapErrorf(err, "fetch uniprot entry [%s] fail", accession)
	}

	switch code := resp.StatusCode(); {
	case code == fasthttp.StatusNotFound || code == fasthttp.StatusGone:
		return nil, fmt.Errorf("%w: [%s]", ErrNotFound, accession)
	case code != fasthttp.StatusOK:
		return nil, fmt.Errorf("fetch uniprot entry [%s] fail: status %d", accession, code)
	}

	body := resp.Body()
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: [%s] empty body", ErrNotFound, accession)
	}
	ret := make([]byte, len(body))
	copy(ret, body)
	return ret, nil
}
