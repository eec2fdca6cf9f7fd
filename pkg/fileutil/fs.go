// Package fileutil provides unified file system access for both real and embedded file systems.
//
// Names passed to a FileSystem are slash-separated paths relative to its base.
// Lookups fall back to a case-insensitive match of the final element so that
// fragments written on case-insensitive file systems keep resolving elsewhere.
package fileutil

import (
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// FileSystem は実ファイルシステムと埋め込みファイルシステムを統一的に扱うインターフェース
type FileSystem interface {
	// ReadFile はファイルの内容を読み込む（大文字小文字を無視）
	ReadFile(name string) ([]byte, error)
	// Exists はファイルが存在するかを返す（大文字小文字を無視）
	Exists(name string) bool
	// BasePath はベースパスを返す
	BasePath() string
	// IsEmbedded は埋め込みファイルシステムかどうかを返す
	IsEmbedded() bool
}

// CleanName は論理パスを正規化する。先頭の "/" や "\" は除去される。
func CleanName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = strings.TrimLeft(name, "/")
	if name == "" {
		return "."
	}
	return path.Clean(name)
}

// RealFS は実ファイルシステムへのアクセスを提供する
type RealFS struct {
	basePath string
}

// NewRealFS は実ファイルシステム用のFileSystemを作成する
func NewRealFS(basePath string) *RealFS {
	return &RealFS{basePath: basePath}
}

func (r *RealFS) ReadFile(name string) ([]byte, error) {
	actualPath, err := r.find(name)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(actualPath)
}

func (r *RealFS) Exists(name string) bool {
	_, err := r.find(name)
	return err == nil
}

func (r *RealFS) BasePath() string {
	return r.basePath
}

func (r *RealFS) IsEmbedded() bool {
	return false
}

func (r *RealFS) resolvePath(name string) string {
	p := filepath.FromSlash(CleanName(name))
	if r.basePath != "" {
		return filepath.Join(r.basePath, p)
	}
	return p
}

func (r *RealFS) find(name string) (string, error) {
	p := r.resolvePath(name)

	// まず直接アクセスを試みる
	if info, err := os.Stat(p); err == nil {
		if info.IsDir() {
			return "", &fs.PathError{Op: "open", Path: name, Err: errIsDir}
		}
		return p, nil
	}

	// 大文字小文字を無視して検索
	return FindFileCaseInsensitive(filepath.Dir(p), filepath.Base(p))
}

// EmbedFS は埋め込みファイルシステムへのアクセスを提供する
type EmbedFS struct {
	fsys     fs.FS
	basePath string
}

// NewEmbedFS は埋め込みファイルシステム用のFileSystemを作成する
func NewEmbedFS(fsys fs.FS, basePath string) *EmbedFS {
	return &EmbedFS{fsys: fsys, basePath: strings.Trim(basePath, "/")}
}

func (e *EmbedFS) ReadFile(name string) ([]byte, error) {
	actualPath, err := e.find(name)
	if err != nil {
		return nil, err
	}
	return fs.ReadFile(e.fsys, actualPath)
}

func (e *EmbedFS) Exists(name string) bool {
	_, err := e.find(name)
	return err == nil
}

func (e *EmbedFS) BasePath() string {
	return e.basePath
}

func (e *EmbedFS) IsEmbedded() bool {
	return true
}

func (e *EmbedFS) resolvePath(name string) string {
	cleanName := CleanName(name)
	// "." は現在のディレクトリを意味するので、basePathそのものを返す
	if cleanName == "." {
		if e.basePath != "" {
			return e.basePath
		}
		return "."
	}
	if e.basePath != "" {
		return e.basePath + "/" + cleanName
	}
	return cleanName
}

func (e *EmbedFS) find(name string) (string, error) {
	p := e.resolvePath(name)

	if info, err := fs.Stat(e.fsys, p); err == nil {
		if info.IsDir() {
			return "", &fs.PathError{Op: "open", Path: name, Err: errIsDir}
		}
		return p, nil
	}

	return FindFileCaseInsensitiveFS(e.fsys, path.Dir(p), path.Base(p))
}

var errIsDir = errors.New("is a directory")
