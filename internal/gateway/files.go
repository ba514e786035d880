package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/slack-go/slack"

	"github.com/analystbot/analystbot/internal/chat"
	"github.com/analystbot/analystbot/internal/observability"
)

// DefaultSettleDelay is how long to wait after completing an upload
// before the permalink is posted. Slack serves the file through the
// permalink only some time after completeUploadExternal returns.
const DefaultSettleDelay = 2 * time.Second

type fileAPI interface {
	UploadFileV2Context(ctx context.Context, params slack.UploadFileV2Parameters) (*slack.FileSummary, error)
	GetFileInfoContext(ctx context.Context, fileID string, count, page int) (*slack.File, []slack.Comment, *slack.Paging, error)
}

// FileUploader hosts charts as workspace files using the external upload
// flow and returns their permalinks.
type FileUploader struct {
	api         fileAPI
	settleDelay time.Duration
	logger      *slog.Logger
}

func NewFileUploader(api fileAPI, settleDelay time.Duration, logger *slog.Logger) *FileUploader {
	if settleDelay < 0 {
		settleDelay = 0
	}
	if logger == nil {
		logger = observability.DiscardLogger()
	}
	return &FileUploader{api: api, settleDelay: settleDelay, logger: logger}
}

func (u *FileUploader) Upload(ctx context.Context, name, path string) (chat.Image, error) {
	info, err := os.Stat(path)
	if err != nil {
		return chat.Image{}, fmt.Errorf("stat chart file: %w", err)
	}
	if info.Size() == 0 {
		return chat.Image{}, fmt.Errorf("chart file %s is empty", path)
	}

	summary, err := u.api.UploadFileV2Context(ctx, slack.UploadFileV2Parameters{
		File:     path,
		FileSize: int(info.Size()),
		Filename: name,
		Title:    "chart",
	})
	if err != nil {
		return chat.Image{}, fmt.Errorf("upload chart: %w", err)
	}
	file, _, _, err := u.api.GetFileInfoContext(ctx, summary.ID, 0, 0)
	if err != nil {
		return chat.Image{}, fmt.Errorf("get file info of %s: %w", summary.ID, err)
	}
	if file.Permalink == "" {
		return chat.Image{}, fmt.Errorf("file %s has no permalink", summary.ID)
	}
	u.logger.Debug("chart_file_uploaded",
		slog.String("trace_id", observability.TraceIDFromContext(ctx)),
		slog.String("file_id", summary.ID),
		slog.String("permalink", file.Permalink),
	)

	if err := u.settle(ctx); err != nil {
		return chat.Image{}, err
	}
	return chat.Image{URL: file.Permalink, Title: "Chart", SlackFile: true}, nil
}

func (u *FileUploader) settle(ctx context.Context) error {
	if u.settleDelay == 0 {
		return nil
	}
	timer := time.NewTimer(u.settleDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
