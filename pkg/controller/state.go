package controller

import (
	"github.com/yumyai/genepanel/pkg/model"
	"github.com/yumyai/genepanel/pkg/selection"
)

// Phase of the heatmap panel.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseSuccess
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhaseSuccess:
		return "success"
	case PhaseError:
		return "error"
	default:
		return "unknown"
	}
}

// Messages shown next to the controls.
const (
	MsgEmptySelection = "Enter up to 10 genes"
	MsgDownloadFailed = "Download failed"
	MsgQueryFailed    = "Failed to load heatmap"
)

// State is everything the display layer needs. Error and NotFound are
// independent of Phase: a download failure sets Error without touching the
// heatmap.
type State struct {
	Phase      Phase
	Selection  []string
	Options    model.DownloadOptions
	Error      string
	NotFound   []string
	Projection *model.HeatmapProjection
}

func (s State) Remaining() int {
	return selection.RemainingCapacity(s.Selection)
}

// CanAdd is false once the selection is full; the input is hidden then.
func (s State) CanAdd() bool {
	return s.Remaining() > 0
}

func (s State) Loading() bool {
	return s.Phase == PhaseLoading
}

// CanViewHeatmap mirrors the enabled state of the "View Heatmap" control.
func (s State) CanViewHeatmap() bool {
	return len(s.Selection) > 0 && !s.Loading()
}

func (s State) CanDownload() bool {
	return len(s.Selection) > 0
}

func (s State) clone() State {
	out := s
	out.Selection = append([]string(nil), s.Selection...)
	out.NotFound = append([]string(nil), s.NotFound...)
	if s.Projection != nil {
		p := *s.Projection
		out.Projection = &p
	}
	return out
}
