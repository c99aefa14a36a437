package migrations

import "embed"

// FS 嵌入全部 goose 迁移脚本。
//
//go:embed *.sql
var FS embed.FS
