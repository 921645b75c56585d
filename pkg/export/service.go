// Package export renders generated resume content as downloadable files.
package export

import (
	"context"
	"fmt"

	"github.com/jobscout/jobscout/pkg/domain"
	"github.com/jobscout/jobscout/pkg/logger"
)

// File is a rendered export
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Recorder counts rendered exports
type Recorder interface {
	RecordExportCreated(format string)
}

// Service renders exports and optionally archives them
type Service struct {
	archive Archive
	metrics Recorder
	logger  logger.Logger
}

// NewService creates an export service. archive may be nil.
func NewService(archive Archive, log logger.Logger) *Service {
	if log == nil {
		log = logger.Default()
	}
	return &Service{archive: archive, logger: log.With("component", "export")}
}

// SetMetrics sets the export recorder
func (s *Service) SetMetrics(m Recorder) {
	s.metrics = m
}

// Render builds the file for a prompt's generated content. Archive failures
// are logged and do not fail the export.
func (s *Service) Render(ctx context.Context, prompt *domain.Prompt, gc *domain.GeneratedContent, format Format) (*File, error) {
	rows := Rows(gc)

	var (
		data []byte
		err  error
	)
	switch format {
	case FormatCSV:
		data, err = renderCSV(rows)
	case FormatXLSX:
		data, err = renderXLSX(prompt.Title, rows)
	default:
		return nil, ErrUnsupportedFormat
	}
	if err != nil {
		return nil, err
	}

	file := &File{
		Name:        fmt.Sprintf("resume-%s.%s", prompt.ID, format),
		ContentType: format.ContentType(),
		Data:        data,
	}

	if s.archive != nil {
		if err := s.archive.Store(ctx, ArchiveKey(prompt.UserID, prompt.ID, format), file.ContentType, data); err != nil {
			s.logger.Warn("failed to archive export", "prompt_id", prompt.ID, "format", format, "error", err)
		}
	}
	if s.metrics != nil {
		s.metrics.RecordExportCreated(string(format))
	}

	s.logger.Info("export rendered", "prompt_id", prompt.ID, "format", format, "rows", len(rows))
	return file, nil
}

// ArchiveKey is the object key for an archived export
func ArchiveKey(userID, promptID string, format Format) string {
	return fmt.Sprintf("exports/%s/%s.%s", userID, promptID, format)
}
