package model

import (
	"fmt"
	"strconv"
	"strings"
)

type FileExtension int

const (
	FileExtensionFASTA FileExtension = iota
	FileExtensionFA
)

func (e FileExtension) String() string {
	switch e {
	case FileExtensionFASTA:
		return "fasta"
	case FileExtensionFA:
		return "fa"
	default:
		return "fasta"
	}
}

// ParseFileExtension accepts "fasta" or "fa", with or without a leading dot.
func ParseFileExtension(ext string) (FileExtension, error) {
	switch strings.TrimPrefix(strings.ToLower(strings.TrimSpace(ext)), ".") {
	case "fasta":
		return FileExtensionFASTA, nil
	case "fa":
		return FileExtensionFA, nil
	default:
		return FileExtensionFASTA, fmt.Errorf("unsupported file extension %q (want fasta or fa)", ext)
	}
}

// WrapWidth is the FASTA line width. Zero keeps each sequence on one line.
type WrapWidth int

const (
	WrapNone WrapWidth = 0
	Wrap60   WrapWidth = 60
	Wrap80   WrapWidth = 80
)

var WrapWidths = []WrapWidth{WrapNone, Wrap60, Wrap80}

func (w WrapWidth) Valid() bool {
	for _, v := range WrapWidths {
		if w == v {
			return true
		}
	}
	return false
}

func ParseWrapWidth(s string) (WrapWidth, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return WrapNone, fmt.Errorf("wrap width %q is not a number", s)
	}
	w := WrapWidth(n)
	if !w.Valid() {
		return WrapNone, fmt.Errorf("unsupported wrap width %d (want 0, 60 or 80)", n)
	}
	return w, nil
}

type DownloadOptions struct {
	Ext  FileExtension
	Wrap WrapWidth
}

func DefaultDownloadOptions() DownloadOptions {
	return DownloadOptions{
		Ext:  FileExtensionFASTA,
		Wrap: WrapNone,
	}
}

// SequenceFilename is the name a FASTA download is saved under.
func (o DownloadOptions) SequenceFilename() string {
	return "sequences." + o.Ext.String()
}

const ExpressionFilename = "expressions.tsv"
