// Package client talks to the gene API: sequence download, expression
// download and expression query. Requests are sent once; there is no retry
// and no timeout other than what the caller's context and transport impose.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/yumyai/genepanel/pkg/model"
)

const (
	sequenceDownloadPath   = "/api/sequences/download"
	expressionDownloadPath = "/api/expressions/download"
	expressionQueryPath    = "/api/expressions"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a client for the API rooted at baseURL
// (e.g. "http://localhost:8000").
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL is the API root requests are sent to, without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// RequestSequenceDownload fetches the FASTA for genes, formatted per opts.
func (c *Client) RequestSequenceDownload(ctx context.Context, genes []string, opts model.DownloadOptions) (*model.Blob, error) {

	if len(genes) == 0 {
		return nil, ErrEmptySelection
	}

	params := url.Values{}
	params.Set("genes", strings.Join(genes, ","))
	params.Set("ext", opts.Ext.String())
	params.Set("wrap", strconv.Itoa(int(opts.Wrap)))

	return c.download(ctx, sequenceDownloadPath, params, opts.SequenceFilename())
}

// RequestExpressionDownload fetches the expression table for genes as TSV.
func (c *Client) RequestExpressionDownload(ctx context.Context, genes []string) (*model.Blob, error) {

	if len(genes) == 0 {
		return nil, ErrEmptySelection
	}

	params := url.Values{}
	params.Set("genes", strings.Join(genes, ","))

	return c.download(ctx, expressionDownloadPath, params, model.ExpressionFilename)
}

func (c *Client) download(ctx context.Context, path string, params url.Values, filename string) (*model.Blob, error) {

	target := c.baseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &DownloadError{TransportError{URL: target, Err: err}}
	}

	body, contentType, status, err := c.do(req)
	if err != nil {
		c.logger.Warn("download failed", zap.String("url", target), zap.Int("status", status), zap.Error(err))
		return nil, &DownloadError{TransportError{URL: target, StatusCode: status, Err: err}}
	}

	c.logger.Debug("download complete", zap.String("url", target), zap.Int("bytes", len(body)))

	return &model.Blob{
		Filename:    filename,
		ContentType: contentType,
		Data:        body,
	}, nil
}

type queryRequest struct {
	Genes []string `json:"genes"`
}

// Pointers tell a missing field or a null element apart from an empty or
// zero one.
type queryResponse struct {
	Samples  *[]*string      `json:"samples"`
	Rows     *[]queryRowJSON `json:"rows"`
	NotFound *[]*string      `json:"not_found"`
}

type queryRowJSON struct {
	Gene   *string     `json:"gene"`
	Values *[]*float64 `json:"values"`
}

// RequestExpressionQuery posts genes to the expression endpoint and returns
// the parsed, validated result.
func (c *Client) RequestExpressionQuery(ctx context.Context, genes []string) (*model.ExpressionQueryResult, error) {

	if len(genes) == 0 {
		return nil, ErrEmptySelection
	}

	target := c.baseURL + expressionQueryPath

	payload, err := json.Marshal(queryRequest{Genes: genes})
	if err != nil {
		return nil, &QueryError{TransportError{URL: target, Err: err}}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(payload))
	if err != nil {
		return nil, &QueryError{TransportError{URL: target, Err: err}}
	}
	req.Header.Set("Content-Type", "application/json")

	body, _, status, err := c.do(req)
	if err != nil {
		c.logger.Warn("expression query failed", zap.String("url", target), zap.Int("status", status), zap.Error(err))
		return nil, &QueryError{TransportError{URL: target, StatusCode: status, Err: err}}
	}

	result, err := decodeQueryResponse(body)
	if err == nil {
		err = result.Validate(genes)
	}
	if err != nil {
		c.logger.Warn("malformed expression response", zap.String("url", target), zap.Error(err))
		return nil, &QueryError{TransportError{URL: target, StatusCode: status, Err: err}}
	}

	c.logger.Debug("expression query complete",
		zap.Int("rows", len(result.Rows)),
		zap.Strings("not_found", result.NotFound),
	)

	return result, nil
}

func decodeQueryResponse(body []byte) (*model.ExpressionQueryResult, error) {

	var raw queryResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode expression response: %w", err)
	}

	switch {
	case raw.Samples == nil:
		return nil, errors.New("response is missing samples")
	case raw.Rows == nil:
		return nil, errors.New("response is missing rows")
	case raw.NotFound == nil:
		return nil, errors.New("response is missing not_found")
	}

	samples, err := derefAll(*raw.Samples, "samples")
	if err != nil {
		return nil, err
	}
	notFound, err := derefAll(*raw.NotFound, "not_found")
	if err != nil {
		return nil, err
	}

	result := &model.ExpressionQueryResult{
		Samples:  samples,
		Rows:     make([]model.ExpressionRow, 0, len(*raw.Rows)),
		NotFound: notFound,
	}

	for i, r := range *raw.Rows {
		if r.Gene == nil {
			return nil, fmt.Errorf("row %d is missing gene", i)
		}
		if r.Values == nil {
			return nil, fmt.Errorf("row %d (%s) is missing values", i, *r.Gene)
		}
		values, err := derefAll(*r.Values, "values of "+*r.Gene)
		if err != nil {
			return nil, err
		}
		result.Rows = append(result.Rows, model.ExpressionRow{Gene: *r.Gene, Values: values})
	}

	return result, nil
}

// derefAll fails on the first null element.
func derefAll[T any](in []*T, field string) ([]T, error) {
	out := make([]T, len(in))
	for i, p := range in {
		if p == nil {
			return nil, fmt.Errorf("%s[%d] is null", field, i)
		}
		out[i] = *p
	}
	return out, nil
}

// do sends req and reads the whole body. Any status outside 2xx is an error.
func (c *Client) do(req *http.Request) ([]byte, string, int, error) {

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", resp.StatusCode, fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", resp.StatusCode, fmt.Errorf("unexpected status %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	return body, resp.Header.Get("Content-Type"), resp.StatusCode, nil
}
