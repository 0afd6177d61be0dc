// Package controller holds the state of one gene-panel session and turns
// user actions into requests against the gene API.
package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/yumyai/genepanel/pkg/client"
	"github.com/yumyai/genepanel/pkg/heatmap"
	"github.com/yumyai/genepanel/pkg/model"
	"github.com/yumyai/genepanel/pkg/selection"
)

// ErrBusy is returned when a heatmap query is requested while one is
// already loading.
var ErrBusy = errors.New("heatmap query already in progress")

// Orchestrator issues the three outbound requests. *client.Client
// implements it.
type Orchestrator interface {
	RequestSequenceDownload(ctx context.Context, genes []string, opts model.DownloadOptions) (*model.Blob, error)
	RequestExpressionDownload(ctx context.Context, genes []string) (*model.Blob, error)
	RequestExpressionQuery(ctx context.Context, genes []string) (*model.ExpressionQueryResult, error)
}

// Saver hands a downloaded payload to the host environment.
type Saver interface {
	Save(ctx context.Context, blob *model.Blob) error
}

type SaverFunc func(ctx context.Context, blob *model.Blob) error

func (f SaverFunc) Save(ctx context.Context, blob *model.Blob) error {
	return f(ctx, blob)
}

// Controller is safe for concurrent use. The lock is never held across a
// network call; heatmap queries are serialized by PhaseLoading instead.
type Controller struct {
	mu     sync.Mutex
	orch   Orchestrator
	logger *zap.Logger
	state  State
}

type Option func(*Controller)

func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

func New(orch Orchestrator, opts ...Option) *Controller {
	c := &Controller{
		orch:   orch,
		logger: zap.NewNop(),
		state: State{
			Phase:   PhaseIdle,
			Options: model.DefaultDownloadOptions(),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// Commit adds the genes typed in text. It runs on Enter, on comma and
// whenever the input loses focus. Text without any gene is ignored.
func (c *Controller) Commit(text string) []string {

	tokens := selection.Normalize(text)

	c.mu.Lock()
	defer c.mu.Unlock()

	if len(tokens) > 0 {
		c.state.Selection = selection.AddTokens(c.state.Selection, tokens)
	}
	return append([]string(nil), c.state.Selection...)
}

// Remove drops the gene at index; an unknown index changes nothing.
func (c *Controller) Remove(index int) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state.Selection = selection.Remove(c.state.Selection, index)
	return append([]string(nil), c.state.Selection...)
}

func (c *Controller) SetOptions(opts model.DownloadOptions) error {
	if !opts.Wrap.Valid() {
		return fmt.Errorf("invalid wrap width %d", opts.Wrap)
	}
	c.mu.Lock()
	c.state.Options = opts
	c.mu.Unlock()
	return nil
}

// ViewHeatmap queries expression values for the current selection and
// projects them. The returned error is informational; the outcome is
// already reflected in the state.
func (c *Controller) ViewHeatmap(ctx context.Context) error {

	c.mu.Lock()
	// An empty selection is reported even while a query is pending.
	if len(c.state.Selection) == 0 {
		c.state.Error = MsgEmptySelection
		c.mu.Unlock()
		return client.ErrEmptySelection
	}
	if c.state.Phase == PhaseLoading {
		c.mu.Unlock()
		return ErrBusy
	}
	c.state.Error = ""
	c.state.Phase = PhaseLoading
	c.state.NotFound = nil
	genes := append([]string(nil), c.state.Selection...)
	c.mu.Unlock()

	c.logger.Debug("querying expression", zap.Strings("genes", genes))
	result, err := c.orch.RequestExpressionQuery(ctx, genes)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		c.state.Phase = PhaseError
		c.state.Error = MsgQueryFailed
		c.state.Projection = nil
		c.state.NotFound = nil
		c.logger.Error("heatmap query failed", zap.Strings("genes", genes), zap.Error(err))
		return err
	}

	projection := heatmap.Project(result)
	c.state.Phase = PhaseSuccess
	c.state.Projection = &projection
	c.state.NotFound = append([]string(nil), projection.NotFound...)

	if len(projection.NotFound) > 0 {
		c.logger.Warn("genes not found", zap.Strings("not_found", projection.NotFound))
	}
	return nil
}

// DownloadFASTA fetches the sequences for the current selection with the
// current options and hands them to saver.
func (c *Controller) DownloadFASTA(ctx context.Context, saver Saver) error {

	genes, opts, err := c.beginDownload()
	if err != nil {
		return err
	}

	blob, err := c.orch.RequestSequenceDownload(ctx, genes, opts)
	return c.finishDownload(ctx, blob, err, saver)
}

// DownloadTSV fetches the expression table for the current selection and
// hands it to saver.
func (c *Controller) DownloadTSV(ctx context.Context, saver Saver) error {

	genes, _, err := c.beginDownload()
	if err != nil {
		return err
	}

	blob, err := c.orch.RequestExpressionDownload(ctx, genes)
	return c.finishDownload(ctx, blob, err, saver)
}

func (c *Controller) beginDownload() ([]string, model.DownloadOptions, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state.Error = ""
	if len(c.state.Selection) == 0 {
		c.state.Error = MsgEmptySelection
		return nil, c.state.Options, client.ErrEmptySelection
	}
	return append([]string(nil), c.state.Selection...), c.state.Options, nil
}

func (c *Controller) finishDownload(ctx context.Context, blob *model.Blob, err error, saver Saver) error {

	if err != nil {
		c.mu.Lock()
		if client.IsValidation(err) {
			c.state.Error = MsgEmptySelection
		} else {
			c.state.Error = MsgDownloadFailed
		}
		c.mu.Unlock()
		c.logger.Error("download failed", zap.Error(err))
		return err
	}

	// Saving has no way back into the state; failures are only reported.
	if err := saver.Save(ctx, blob); err != nil {
		c.logger.Error("save failed", zap.String("filename", blob.Filename), zap.Error(err))
		return fmt.Errorf("save %s: %w", blob.Filename, err)
	}

	c.logger.Info("download saved", zap.String("filename", blob.Filename), zap.Int("bytes", len(blob.Data)))
	return nil
}
