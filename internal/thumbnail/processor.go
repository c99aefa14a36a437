package thumbnail

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"

	"filesmanager/internal/queue"
	"filesmanager/internal/repository"
	"filesmanager/internal/storage"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

// DefaultWidths 是生成缩略图的目标宽度。
var DefaultWidths = []int{500, 250, 100}

// Processor 为单个图片任务生成全部缩略图。
type Processor struct {
	files  repository.FileRepository
	blobs  storage.BlobStore
	widths []int
}

// NewProcessor 创建 Processor；widths 为空时使用 DefaultWidths。
func NewProcessor(files repository.FileRepository, blobs storage.BlobStore, widths []int) *Processor {
	if len(widths) == 0 {
		widths = DefaultWidths
	}
	return &Processor{files: files, blobs: blobs, widths: widths}
}

// Process 读取源图片并按每个宽度写入缩略图，任一宽度失败则整个任务失败。
// 返回的错误可通过 IsTerminal 判断是否应重试。
func (p *Processor) Process(ctx context.Context, job queue.Job) error {
	if job.FileID == "" {
		return ErrMissingFileID
	}
	if job.OwnerID == "" {
		return ErrMissingOwnerID
	}

	fileID, err := uuid.Parse(job.FileID)
	if err != nil {
		return ErrFileNotFound
	}

	rec, err := p.files.GetByOwner(ctx, fileID.String(), job.OwnerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrFileNotFound
		}
		return fmt.Errorf("load file record: %w", err)
	}
	if rec.Kind != repository.FileKindImage {
		return ErrNotAnImage
	}

	src, err := p.blobs.Read(ctx, rec.StorageKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrSourceMissing
		}
		return fmt.Errorf("read source: %w", err)
	}

	img, err := imaging.Decode(bytes.NewReader(src), imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("decode source: %w", err)
	}
	format := outputFormat(src)

	for _, width := range p.widths {
		thumb := imaging.Resize(img, width, 0, imaging.Lanczos)

		var buf bytes.Buffer
		if err := imaging.Encode(&buf, thumb, format); err != nil {
			return p.abort(ctx, rec.StorageKey, fmt.Errorf("encode %d: %w", width, err))
		}
		if err := p.blobs.Put(ctx, storage.DerivativeKey(rec.StorageKey, width), buf.Bytes()); err != nil {
			return p.abort(ctx, rec.StorageKey, fmt.Errorf("write %d: %w", width, err))
		}
	}

	return nil
}

// Discard 删除任务对应文件已写入的缩略图，用于未经 Process 即判定失败的任务。
func (p *Processor) Discard(ctx context.Context, job queue.Job) error {
	fileID, err := uuid.Parse(job.FileID)
	if err != nil || job.OwnerID == "" {
		return nil
	}
	rec, err := p.files.GetByOwner(ctx, fileID.String(), job.OwnerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("load file record: %w", err)
	}
	if rec.StorageKey == "" {
		return nil
	}
	return p.removeDerivatives(ctx, rec.StorageKey)
}

// abort 撤销本次已写入的缩略图，缩略图要么全部存在要么全部不存在。
func (p *Processor) abort(ctx context.Context, key string, cause error) error {
	if err := p.removeDerivatives(ctx, key); err != nil {
		return errors.Join(cause, err)
	}
	return cause
}

func (p *Processor) removeDerivatives(ctx context.Context, key string) error {
	var errs []error
	for _, width := range p.widths {
		if err := p.blobs.Delete(ctx, storage.DerivativeKey(key, width)); err != nil {
			errs = append(errs, fmt.Errorf("remove %d: %w", width, err))
		}
	}
	return errors.Join(errs...)
}

// outputFormat 保持源格式；png、jpeg、gif 以外的格式输出为 png。
func outputFormat(src []byte) imaging.Format {
	_, name, err := image.DecodeConfig(bytes.NewReader(src))
	if err != nil {
		return imaging.PNG
	}
	switch name {
	case "jpeg":
		return imaging.JPEG
	case "gif":
		return imaging.GIF
	default:
		return imaging.PNG
	}
}
