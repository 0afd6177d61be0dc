package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yumyai/genepanel/pkg/controller"
	"github.com/yumyai/genepanel/pkg/model"
)

type nopAPI struct{}

func (nopAPI) RequestSequenceDownload(ctx context.Context, genes []string, opts model.DownloadOptions) (*model.Blob, error) {
	return &model.Blob{}, nil
}

func (nopAPI) RequestExpressionDownload(ctx context.Context, genes []string) (*model.Blob, error) {
	return &model.Blob{}, nil
}

func (nopAPI) RequestExpressionQuery(ctx context.Context, genes []string) (*model.ExpressionQueryResult, error) {
	return &model.ExpressionQueryResult{}, nil
}

func newManager(t *testing.T, size int) *Manager {
	t.Helper()
	m, err := NewManager(size, func() *controller.Controller { return controller.New(nopAPI{}) })
	require.NoError(t, err)
	return m
}

func TestGetCreatesAndReuses(t *testing.T) {
	m := newManager(t, 4)

	id, c := m.Get("")
	require.NotEmpty(t, id)
	c.Commit("GeneA")

	again, c2 := m.Get(id)
	assert.Equal(t, id, again)
	assert.Same(t, c, c2)
	assert.Equal(t, []string{"GeneA"}, c2.Snapshot().Selection)

	other, c3 := m.Get("unknown")
	assert.NotEqual(t, "unknown", other)
	assert.NotSame(t, c, c3)
	assert.Equal(t, 2, m.Len())
}

func TestEvictionStartsOver(t *testing.T) {
	m := newManager(t, 1)

	first, c := m.Get("")
	c.Commit("GeneA")
	m.Get("")

	id, fresh := m.Get(first)
	assert.NotEqual(t, first, id)
	assert.Empty(t, fresh.Snapshot().Selection)
}

func TestNewManagerRejectsZeroSize(t *testing.T) {
	_, err := NewManager(0, nil)
	assert.Error(t, err)
}

func TestForRequestCookie(t *testing.T) {
	m := newManager(t, 4)

	rec := httptest.NewRecorder()
	c := m.ForRequest(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, CookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	assert.Same(t, c, m.ForRequest(rec, req))
	assert.Empty(t, rec.Result().Cookies())
}
