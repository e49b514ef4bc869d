package migrations

import "embed"

// FS 包含存储的建表脚本
//
//go:embed *.sql
var FS embed.FS
