package service

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/genesisthayy-cmyk/PROYECTO-MEDUCA/internal/blob"
	"github.com/genesisthayy-cmyk/PROYECTO-MEDUCA/internal/config"
	"github.com/genesisthayy-cmyk/PROYECTO-MEDUCA/internal/domain"
	"github.com/genesisthayy-cmyk/PROYECTO-MEDUCA/internal/observability"
)

const (
	attachmentPrefix    = "tickets"
	defaultMimeCategory = "application"
	fallbackFileName    = "archivo"
)

// FileUpload is one file received with a submission. Open may be called once.
type FileUpload struct {
	Name        string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// AttachmentPipeline uploads submission files to the blob store and links them to a ticket.
type AttachmentPipeline struct {
	store       blob.Store
	max         int
	concurrency int
	logger      *zap.Logger
	metrics     *observability.Metrics
}

// NewAttachmentPipeline builds the pipeline from the ticket limits.
func NewAttachmentPipeline(store blob.Store, cfg config.TicketsConfig, logger *zap.Logger, metrics *observability.Metrics) *AttachmentPipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	maxFiles := cfg.MaxAttachments
	if maxFiles <= 0 || maxFiles > domain.MaxAttachments {
		maxFiles = domain.MaxAttachments
	}
	return &AttachmentPipeline{
		store:       store,
		max:         maxFiles,
		concurrency: cfg.UploadConcurrency,
		logger:      logger,
		metrics:     metrics,
	}
}

// Accept keeps the first files up to the configured maximum. Extra files are dropped without error.
func (p *AttachmentPipeline) Accept(files []FileUpload) []FileUpload {
	if len(files) <= p.max {
		return files
	}
	dropped := files[p.max:]
	names := make([]string, 0, len(dropped))
	for _, f := range dropped {
		names = append(names, f.Name)
	}
	p.logger.Debug("attachments over limit dropped", zap.Int("limit", p.max), zap.Strings("files", names))
	p.metrics.RecordUploads("dropped", len(dropped))
	return files[:p.max]
}

// Upload writes every file under tickets/<ticketID>/ concurrently and returns the references
// in input order. If any upload fails the blobs already written are removed and nothing is returned.
func (p *AttachmentPipeline) Upload(ctx context.Context, ticketID string, files []FileUpload) ([]domain.Attachment, error) {
	if len(files) == 0 {
		return []domain.Attachment{}, nil
	}

	attachments := make([]domain.Attachment, len(files))
	var (
		mu       sync.Mutex
		uploaded []string
	)

	g, gctx := errgroup.WithContext(ctx)
	limit := len(files)
	if p.concurrency > 0 && p.concurrency < limit {
		limit = p.concurrency
	}
	g.SetLimit(limit)

	for i, file := range files {
		g.Go(func() error {
			objectPath := AttachmentPath(ticketID, file.Name)
			if err := p.uploadOne(gctx, objectPath, file); err != nil {
				return fmt.Errorf("upload %q: %w", file.Name, err)
			}
			mu.Lock()
			uploaded = append(uploaded, objectPath)
			mu.Unlock()

			attachments[i] = domain.Attachment{
				Name: path.Base(objectPath),
				URL:  p.store.URL(objectPath),
				Type: MimeCategory(file.ContentType),
				Size: file.Size,
				Path: objectPath,
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		p.metrics.RecordUploads("failed", len(files)-len(uploaded))
		p.Discard(ctx, uploaded)
		return nil, err
	}
	p.metrics.RecordUploads("ok", len(files))
	return attachments, nil
}

func (p *AttachmentPipeline) uploadOne(ctx context.Context, objectPath string, file FileUpload) error {
	if file.Open == nil {
		return fmt.Errorf("no content")
	}
	body, err := file.Open()
	if err != nil {
		return err
	}
	defer body.Close()
	return p.store.Upload(ctx, objectPath, file.ContentType, body)
}

// Discard removes uploaded blobs. It runs even when ctx is already cancelled and only logs failures.
func (p *AttachmentPipeline) Discard(ctx context.Context, paths []string) {
	if len(paths) == 0 {
		return
	}
	ctx = context.WithoutCancel(ctx)
	for _, objectPath := range paths {
		if err := p.store.Delete(ctx, objectPath); err != nil {
			p.logger.Warn("attachment cleanup failed", zap.String("path", objectPath), zap.Error(err))
			continue
		}
		p.metrics.RecordUploads("discarded", 1)
	}
}

// AttachmentPath returns tickets/<ticketID>/<base name>. Files with the same name overwrite each other.
func AttachmentPath(ticketID, fileName string) string {
	name := strings.ReplaceAll(strings.TrimSpace(fileName), "\\", "/")
	base := path.Base(name)
	if base == "." || base == "/" || base == ".." || base == "" {
		base = fallbackFileName
	}
	return path.Join(attachmentPrefix, ticketID, base)
}

// MimeCategory is the part of a content type before the slash: image, application, text.
func MimeCategory(contentType string) string {
	category, _, _ := strings.Cut(strings.TrimSpace(contentType), "/")
	category = strings.ToLower(strings.TrimSpace(category))
	if category == "" {
		return defaultMimeCategory
	}
	return category
}

// attachmentPaths lists the blob paths of attachments for compensation.
func attachmentPaths(attachments []domain.Attachment) []string {
	paths := make([]string, 0, len(attachments))
	for _, a := range attachments {
		if a.Path != "" {
			paths = append(paths, a.Path)
		}
	}
	return paths
}
