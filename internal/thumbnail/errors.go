package thumbnail

import "errors"

// 以下错误为终态：重试不会改变结果，任务直接标记为 failed。
var (
	ErrMissingFileID  = errors.New("missing fileId")
	ErrMissingOwnerID = errors.New("missing userId")
	ErrFileNotFound   = errors.New("file not found")
	ErrNotAnImage     = errors.New("file is not an image")
	ErrSourceMissing  = errors.New("source blob missing")
)

// IsTerminal 报告 err 是否不值得重试。
func IsTerminal(err error) bool {
	return errors.Is(err, ErrMissingFileID) ||
		errors.Is(err, ErrMissingOwnerID) ||
		errors.Is(err, ErrFileNotFound) ||
		errors.Is(err, ErrNotAnImage) ||
		errors.Is(err, ErrSourceMissing)
}
