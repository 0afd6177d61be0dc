package request

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/yumyai/genepanel/pkg/model"
)

// GenesRequest is the raw text typed into the gene input.
type GenesRequest struct {
	Text string
}

func ParseGenesRequest(r *http.Request) (GenesRequest, error) {
	if err := r.ParseForm(); err != nil {
		return GenesRequest{}, fmt.Errorf("parse form: %w", err)
	}
	return GenesRequest{Text: r.PostForm.Get(FieldGenes)}, nil
}

// PendingGenes is text still in the gene input when an action ran. Action
// forms post it, download links send it in the query string.
func PendingGenes(r *http.Request) string {
	return r.FormValue(FieldGenes)
}

// ParseOptionsRequest reads the FASTA extension and wrap width. A field that
// is absent keeps its value from current.
func ParseOptionsRequest(r *http.Request, current model.DownloadOptions) (model.DownloadOptions, error) {
	if err := r.ParseForm(); err != nil {
		return current, fmt.Errorf("parse form: %w", err)
	}

	opts := current
	if r.PostForm.Has(FieldExt) {
		ext, err := model.ParseFileExtension(r.PostForm.Get(FieldExt))
		if err != nil {
			return current, err
		}
		opts.Ext = ext
	}
	if r.PostForm.Has(FieldWrap) {
		wrap, err := model.ParseWrapWidth(r.PostForm.Get(FieldWrap))
		if err != nil {
			return current, err
		}
		opts.Wrap = wrap
	}
	return opts, nil
}

// ParseIndex reads a chip position from a path value.
func ParseIndex(s string) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil || i < 0 {
		return 0, fmt.Errorf("invalid index %q", s)
	}
	return i, nil
}
