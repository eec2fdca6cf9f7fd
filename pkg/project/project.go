// Package project locates the fragments of a program on disk or in an
// embedded tree and reads its fragment.yaml manifest.
package project

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/zurustar/fragment/pkg/fileutil"
	"gopkg.in/yaml.v3"
)

// ManifestFile はプロジェクトのマニフェストファイル名
const ManifestFile = "fragment.yaml"

// DefaultEntry はマニフェストにentryがない場合のエントリーファイル
const DefaultEntry = "main.fr"

// Manifest はfragment.yamlの構造
type Manifest struct {
	Name     string `yaml:"name"`
	Entry    string `yaml:"entry"`
	Encoding string `yaml:"encoding"`
	LogLevel string `yaml:"log_level"`
}

// Project はフラグメントの集まりを表す
type Project struct {
	Name       string              // プロジェクト名（マニフェストのnameまたはディレクトリ名）
	Path       string              // プロジェクトのパス（embedの場合は仮想パス）
	IsEmbedded bool                // embedされたプロジェクトかどうか
	Manifest   Manifest            // fragment.yamlの内容（存在しない場合はゼロ値）
	Entry      string              // エントリーファイル名
	FS         fileutil.FileSystem // プロジェクトのファイルシステム
}

// Open ディレクトリからプロジェクトを読み込む
//
// entry が空でなければマニフェストより優先される。
func Open(path, entry string) (*Project, error) {
	// ディレクトリの存在確認
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("project directory does not exist: %s", path)
		}
		return nil, fmt.Errorf("failed to access project directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("project path is not a directory: %s", path)
	}

	// 絶対パスに変換
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	p := &Project{
		Name: filepath.Base(absPath),
		Path: absPath,
		FS:   fileutil.NewRealFS(absPath),
	}
	if err := p.load(entry, func() ([]fs.DirEntry, error) { return os.ReadDir(absPath) }); err != nil {
		return nil, err
	}
	return p, nil
}

// OpenFS embedされたファイルシステムからプロジェクトを読み込む
func OpenFS(fsys fs.FS, root, entry string) (*Project, error) {
	root = strings.Trim(root, "/")
	if root == "" {
		root = "."
	}

	info, err := fs.Stat(fsys, root)
	if err != nil {
		return nil, fmt.Errorf("embedded project does not exist: %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("embedded project path is not a directory: %s", root)
	}

	base := root
	if base == "." {
		base = ""
	}
	p := &Project{
		Name:       info.Name(),
		Path:       root,
		IsEmbedded: true,
		FS:         fileutil.NewEmbedFS(fsys, base),
	}
	if err := p.load(entry, func() ([]fs.DirEntry, error) { return fs.ReadDir(fsys, root) }); err != nil {
		return nil, err
	}
	return p, nil
}

// load はマニフェストを読み込み、エントリーファイルを決定する
func (p *Project) load(entry string, list func() ([]fs.DirEntry, error)) error {
	if p.FS.Exists(ManifestFile) {
		data, err := p.FS.ReadFile(ManifestFile)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", ManifestFile, err)
		}
		m, err := ParseManifest(data)
		if err != nil {
			return err
		}
		p.Manifest = *m
		if m.Name != "" {
			p.Name = m.Name
		}
	}

	// エントリーファイルの決定
	// 1. 引数で指定されていればそれを使用
	// 2. fragment.yamlのentryがあればそれを使用
	// 3. main.fr、なければディレクトリ内の唯一の.frファイル
	switch {
	case entry != "":
		p.Entry = entry
	case p.Manifest.Entry != "":
		p.Entry = p.Manifest.Entry
	default:
		detected, err := detectEntry(p.FS, list)
		if err != nil {
			return err
		}
		p.Entry = detected
	}

	p.Entry = fileutil.CleanName(p.Entry)
	return nil
}

// ParseManifest はfragment.yamlの内容を解析する
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", ManifestFile, err)
	}
	return &m, nil
}

// detectEntry はエントリーファイルを自動検出する
func detectEntry(fsys fileutil.FileSystem, list func() ([]fs.DirEntry, error)) (string, error) {
	if fsys.Exists(DefaultEntry) {
		return DefaultEntry, nil
	}

	entries, err := list()
	if err != nil {
		return "", fmt.Errorf("failed to list project: %w", err)
	}

	var candidates []string
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".fr") {
			candidates = append(candidates, e.Name())
		}
	}
	sort.Strings(candidates)

	switch len(candidates) {
	case 0:
		return "", ErrNoEntry
	case 1:
		return candidates[0], nil
	}
	return "", fmt.Errorf("%w: found %s; set entry in %s", ErrAmbiguousEntry, strings.Join(candidates, ", "), ManifestFile)
}

var (
	// ErrNoEntry はエントリーファイルが見つからないことを示す
	ErrNoEntry = errors.New("no fragment found")
	// ErrAmbiguousEntry はエントリーファイルの候補が複数あることを示す
	ErrAmbiguousEntry = errors.New("more than one fragment could be the entry")
)

// DisplayName はプロジェクトの表示名を返す
func (p *Project) DisplayName() string {
	if p.Manifest.Name != "" {
		return p.Manifest.Name
	}
	return p.Name
}
