// Package importer turns uploaded site-diary files into daily progress
// submissions. Each supported format lives in its own sub-package behind
// the Importer interface.
package importer

import (
	"io"

	"github.com/dmcalde/sitework/internal/progress"
)

type Format string

const (
	FormatDiary Format = "diary"
)

type Importer interface {
	Parse(r io.Reader) ([]progress.SubmitParams, error)
}
