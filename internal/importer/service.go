package importer

import (
	"fmt"
	"io"

	"github.com/dmcalde/sitework/internal/importer/diary"
	"github.com/dmcalde/sitework/internal/progress"
)

type Service struct {
	diaryImporter Importer
}

func NewService() *Service {
	return &Service{
		diaryImporter: diary.NewParser(),
	}
}

// Import parses an upload in the given format. The returned params carry
// no project binding; the caller assigns the project before submitting.
func (s *Service) Import(format Format, r io.Reader) ([]progress.SubmitParams, error) {
	var imp Importer

	switch format {
	case FormatDiary:
		imp = s.diaryImporter
	default:
		return nil, fmt.Errorf("unknown import format: %s", format)
	}

	return imp.Parse(r)
}
