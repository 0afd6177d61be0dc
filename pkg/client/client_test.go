package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yumyai/genepanel/pkg/model"
)

func TestRequestSequenceDownload(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/sequences/download", r.URL.Path)
		gotQuery = r.URL.RawQuery
		assert.Equal(t, "GeneB,GeneA", r.URL.Query().Get("genes"))
		assert.Equal(t, "fa", r.URL.Query().Get("ext"))
		assert.Equal(t, "60", r.URL.Query().Get("wrap"))
		w.Header().Set("Content-Type", "text/plain")
		io.WriteString(w, ">GeneA\nAAA\n")
	}))
	defer srv.Close()

	c := New(srv.URL + "/")
	blob, err := c.RequestSequenceDownload(context.Background(), []string{"GeneB", "GeneA"},
		model.DownloadOptions{Ext: model.FileExtensionFA, Wrap: model.Wrap60})

	require.NoError(t, err)
	assert.NotEmpty(t, gotQuery)
	assert.Equal(t, "sequences.fa", blob.Filename)
	assert.Equal(t, "text/plain", blob.ContentType)
	assert.Equal(t, ">GeneA\nAAA\n", string(blob.Data))
}

func TestRequestExpressionDownload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/expressions/download", r.URL.Path)
		assert.Equal(t, "GeneA", r.URL.Query().Get("genes"))
		io.WriteString(w, "Gene\tS1\nGeneA\t1\n")
	}))
	defer srv.Close()

	blob, err := New(srv.URL).RequestExpressionDownload(context.Background(), []string{"GeneA"})

	require.NoError(t, err)
	assert.Equal(t, "expressions.tsv", blob.Filename)
	assert.Equal(t, "Gene\tS1\nGeneA\t1\n", string(blob.Data))
}

func TestDownloadNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := New(srv.URL).RequestExpressionDownload(context.Background(), []string{"GeneA"})

	var de *DownloadError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, http.StatusInternalServerError, de.StatusCode)
	assert.True(t, IsTransport(err))
	assert.False(t, IsValidation(err))
}

func TestNetworkFailureIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	_, err := New(base).RequestSequenceDownload(context.Background(), []string{"GeneA"}, model.DefaultDownloadOptions())

	var de *DownloadError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, 0, de.StatusCode)
}

func TestEmptySelectionIssuesNoRequest(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()

	c := New(srv.URL)
	ctx := context.Background()

	_, err := c.RequestSequenceDownload(ctx, nil, model.DefaultDownloadOptions())
	assert.True(t, IsValidation(err))
	_, err = c.RequestExpressionDownload(ctx, []string{})
	assert.True(t, IsValidation(err))
	_, err = c.RequestExpressionQuery(ctx, nil)
	assert.True(t, IsValidation(err))

	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestRequestExpressionQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req struct {
			Genes []string `json:"genes"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"G1", "G2"}, req.Genes)

		io.WriteString(w, `{"samples":["S1","S2"],"rows":[{"gene":"G1","values":[1,2]}],"not_found":["G2"]}`)
	}))
	defer srv.Close()

	res, err := New(srv.URL).RequestExpressionQuery(context.Background(), []string{"G1", "G2"})

	require.NoError(t, err)
	assert.Equal(t, []string{"S1", "S2"}, res.Samples)
	assert.Equal(t, []model.ExpressionRow{{Gene: "G1", Values: []float64{1, 2}}}, res.Rows)
	assert.Equal(t, []string{"G2"}, res.NotFound)
}

func TestRequestExpressionQueryRejectsMalformedBodies(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `<html>`},
		{"missing samples", `{"rows":[],"not_found":[]}`},
		{"missing rows", `{"samples":[],"not_found":[]}`},
		{"missing not_found", `{"samples":[],"rows":[]}`},
		{"row without gene", `{"samples":["S1"],"rows":[{"values":[1]}],"not_found":[]}`},
		{"row without values", `{"samples":["S1"],"rows":[{"gene":"G1"}],"not_found":[]}`},
		{"null value", `{"samples":["S1","S2"],"rows":[{"gene":"G1","values":[1,null]}],"not_found":[]}`},
		{"null sample", `{"samples":["S1",null],"rows":[{"gene":"G1","values":[1,2]}],"not_found":[]}`},
		{"null not_found entry", `{"samples":[],"rows":[],"not_found":[null]}`},
		{"ragged row", `{"samples":["S1","S2"],"rows":[{"gene":"G1","values":[1]}],"not_found":[]}`},
		{"found and missing", `{"samples":["S1"],"rows":[{"gene":"G1","values":[1]}],"not_found":["G1"]}`},
		{"unrequested missing", `{"samples":[],"rows":[],"not_found":["Other"]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			_, err := New(srv.URL).RequestExpressionQuery(context.Background(), []string{"G1"})

			var qe *QueryError
			require.ErrorAs(t, err, &qe)
			assert.True(t, IsTransport(err))
		})
	}
}

func TestRequestExpressionQueryEmptyLists(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"samples":[],"rows":[],"not_found":["G1"]}`)
	}))
	defer srv.Close()

	res, err := New(srv.URL).RequestExpressionQuery(context.Background(), []string{"G1"})

	require.NoError(t, err)
	assert.Empty(t, res.Rows)
	assert.Equal(t, []string{"G1"}, res.NotFound)
}

func TestRequestExpressionQueryBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "No genes provided", http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := New(srv.URL).RequestExpressionQuery(context.Background(), []string{"G1"})

	var qe *QueryError
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, http.StatusBadRequest, qe.StatusCode)
	assert.Contains(t, err.Error(), "No genes provided")
}
