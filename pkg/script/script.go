// Package script loads fragment source text through a fileutil.FileSystem,
// decoding it from the configured text encoding into UTF-8.
package script

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/zurustar/fragment/pkg/fileutil"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	// ErrNotFound はファイルが存在しないことを表す
	ErrNotFound = errors.New("fragment source not found")
	// ErrUnreadable はファイルが読めない、またはデコードできないことを表す
	ErrUnreadable = errors.New("fragment source unreadable")
)

// DefaultEncoding is used when no encoding is configured.
const DefaultEncoding = "utf-8"

// Script はフラグメントのソースを表す
type Script struct {
	FileName string // 論理パス（FileSystemのベースからの相対パス）
	Content  string // UTF-8に変換された内容
	Size     int64  // 変換前のバイト数
}

// Loader はスクリプトファイルの読み込みを行う
type Loader struct {
	fs       fileutil.FileSystem
	encoding encoding.Encoding
	name     string
}

// NewLoader Loaderを作成
//
// encodingName が空の場合は UTF-8 を使う。
func NewLoader(fsys fileutil.FileSystem, encodingName string) (*Loader, error) {
	if encodingName == "" {
		encodingName = DefaultEncoding
	}
	enc, err := LookupEncoding(encodingName)
	if err != nil {
		return nil, err
	}
	return &Loader{
		fs:       fsys,
		encoding: enc,
		name:     strings.ToLower(encodingName),
	}, nil
}

// FileSystem は内部のFileSystemを返す
func (l *Loader) FileSystem() fileutil.FileSystem {
	return l.fs
}

// EncodingName は設定されたエンコーディング名を返す
func (l *Loader) EncodingName() string {
	return l.name
}

// Load 単一のスクリプトファイルを読み込む
func (l *Loader) Load(name string) (*Script, error) {
	logical := fileutil.CleanName(name)

	data, err := l.fs.ReadFile(logical)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, logical)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrUnreadable, logical, err)
	}

	content, err := l.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnreadable, logical, err)
	}

	return &Script{
		FileName: logical,
		Content:  content,
		Size:     int64(len(data)),
	}, nil
}

// Decode 設定されたエンコーディングからUTF-8に変換する
//
// バイトオーダーマークがあればそちらを優先する。
func (l *Loader) Decode(data []byte) (string, error) {
	decoder := unicode.BOMOverride(l.encoding.NewDecoder())
	reader := transform.NewReader(bytes.NewReader(data), decoder)

	utf8Data, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("failed to decode %s: %w", l.name, err)
	}
	return string(utf8Data), nil
}

var encodings = map[string]encoding.Encoding{
	"utf-8":       unicode.UTF8,
	"utf8":        unicode.UTF8,
	"utf-16le":    unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM),
	"utf-16be":    unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM),
	"utf-16":      unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM),
	"shift_jis":   japanese.ShiftJIS,
	"shift-jis":   japanese.ShiftJIS,
	"sjis":        japanese.ShiftJIS,
	"euc-jp":      japanese.EUCJP,
	"iso-2022-jp": japanese.ISO2022JP,
}

// LookupEncoding はエンコーディング名から encoding.Encoding を返す
//
// 既知の別名を優先し、それ以外は IANA 名として解決する。
func LookupEncoding(name string) (encoding.Encoding, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if enc, ok := encodings[key]; ok {
		return enc, nil
	}

	enc, err := ianaindex.IANA.Encoding(key)
	if err != nil || enc == nil {
		return nil, fmt.Errorf("unsupported encoding %q", name)
	}
	return enc, nil
}
