package cli

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/zurustar/fragment/pkg/logger"
	"github.com/zurustar/fragment/pkg/script"
)

// 既定値
const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)

// 環境変数名
const (
	EnvLogLevel  = "LOG_LEVEL"
	EnvLogFormat = "LOG_FORMAT"
	EnvEncoding  = "FRAGMENT_ENCODING"
)

// Config はコマンドライン引数から解析された設定を保持する
type Config struct {
	Path        string // プロジェクトのディレクトリ
	EntryFile   string // エントリーファイル名（.frファイル指定時）
	LogLevel    string // ログレベル（debug, info, warn, error）
	LogFormat   string // ログ形式（text, json）
	Encoding    string // ソースの文字エンコーディング（空はマニフェストまたはUTF-8）
	Interactive bool   // 対話モード
	ShowHelp    bool   // ヘルプ表示フラグ

	set map[string]bool
}

// IsSet はフラグまたは環境変数で明示的に設定されたかを返す
// name は "log-level", "log-format", "encoding" のいずれか
func (c *Config) IsSet(name string) bool {
	return c.set[name]
}

// ParseArgs コマンドライン引数を解析してConfigを返す
func ParseArgs(args []string) (*Config, error) {
	// 引数を並べ替え：フラグを前に、位置引数を後ろに
	reorderedArgs := reorderArgs(args)

	fs := flag.NewFlagSet("fragment", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	config := &Config{set: map[string]bool{}}

	fs.StringVar(&config.LogLevel, "log-level", DefaultLogLevel, "ログレベル（debug, info, warn, error）")
	fs.StringVar(&config.LogLevel, "l", DefaultLogLevel, "ログレベル（短縮形）")
	fs.StringVar(&config.LogFormat, "log-format", DefaultLogFormat, "ログ形式（text, json）")
	fs.StringVar(&config.Encoding, "encoding", "", "ソースの文字エンコーディング")
	fs.StringVar(&config.Encoding, "e", "", "ソースの文字エンコーディング（短縮形）")
	fs.BoolVar(&config.Interactive, "interactive", false, "対話モード")
	fs.BoolVar(&config.Interactive, "i", false, "対話モード（短縮形）")
	fs.BoolVar(&config.ShowHelp, "help", false, "ヘルプを表示")
	fs.BoolVar(&config.ShowHelp, "h", false, "ヘルプを表示（短縮形）")

	if err := fs.Parse(reorderedArgs); err != nil {
		return nil, err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "log-level", "l":
			config.set["log-level"] = true
		case "log-format":
			config.set["log-format"] = true
		case "encoding", "e":
			config.set["encoding"] = true
		}
	})

	// 環境変数からの設定（コマンドラインフラグが優先）
	applyEnv(config, "log-level", EnvLogLevel, &config.LogLevel)
	applyEnv(config, "log-format", EnvLogFormat, &config.LogFormat)
	applyEnv(config, "encoding", EnvEncoding, &config.Encoding)

	config.LogLevel = strings.ToLower(config.LogLevel)
	config.LogFormat = strings.ToLower(config.LogFormat)

	// ログレベル・形式の検証
	if _, err := logger.ParseLevel(config.LogLevel); err != nil {
		return nil, fmt.Errorf("%w (must be debug, info, warn, or error)", err)
	}
	if config.LogFormat != "text" && config.LogFormat != "json" {
		return nil, fmt.Errorf("invalid log format: %s (must be text or json)", config.LogFormat)
	}

	// エンコーディングの検証
	if config.Encoding != "" {
		if _, err := script.LookupEncoding(config.Encoding); err != nil {
			return nil, err
		}
	}

	// 位置引数（プロジェクトのパス）
	if fs.NArg() > 1 {
		return nil, fmt.Errorf("too many arguments: %s", strings.Join(fs.Args(), " "))
	}
	if fs.NArg() > 0 {
		path := fs.Arg(0)

		// .frファイルが指定された場合、ディレクトリとエントリーファイルに分離
		if strings.HasSuffix(strings.ToLower(path), ".fr") {
			config.Path = filepath.Dir(path)
			config.EntryFile = filepath.Base(path)
		} else {
			config.Path = path
		}
	}

	return config, nil
}

func applyEnv(config *Config, name, env string, target *string) {
	if config.set[name] {
		return
	}
	if v := os.Getenv(env); v != "" {
		*target = v
		config.set[name] = true
	}
}

// reorderArgs 引数を並べ替えて、フラグを前に、位置引数を後ろに配置する
func reorderArgs(args []string) []string {
	var flags []string
	var positional []string

	boolFlags := map[string]bool{
		"-h": true, "--help": true, "-help": true,
		"-i": true, "--interactive": true, "-interactive": true,
	}

	for i := 0; i < len(args); i++ {
		arg := args[i]

		// "--" 以降はすべて位置引数
		if arg == "--" {
			positional = append(positional, args[i+1:]...)
			break
		}

		// フラグかどうかを判定（-または--で始まる）
		if len(arg) > 1 && arg[0] == '-' {
			flags = append(flags, arg)

			// 次の引数が値である可能性をチェック（-l debug のような場合）
			if strings.Contains(arg, "=") || boolFlags[arg] {
				continue
			}
			if i+1 < len(args) && len(args[i+1]) > 0 && args[i+1][0] != '-' {
				i++
				flags = append(flags, args[i])
			}
		} else {
			// 位置引数
			positional = append(positional, arg)
		}
	}

	// フラグを前に、位置引数を "--" の後ろに配置
	if len(positional) == 0 {
		return flags
	}
	return append(append(flags, "--"), positional...)
}

// PrintHelp ヘルプメッセージを表示
func PrintHelp(w io.Writer) {
	fmt.Fprintf(w, `fragment - interpreter for the fragment language

Usage:
  fragment [options] [path]

Arguments:
  path    a .fr file to run, or a project directory holding fragment.yaml
          (the manifest's entry file, main.fr by default, is run)
          without a path, an interactive session is started

Options:
  -l, --log-level <level>     log level: debug, info, warn, error (default: info)
  --log-format <format>       log format: text, json (default: text)
  -e, --encoding <name>       source encoding, e.g. utf-8, shift_jis, euc-jp (default: utf-8)
  -i, --interactive           start an interactive session after running path
  -h, --help                  show this help

Environment Variables:
  LOG_LEVEL=<level>           log level
  LOG_FORMAT=<format>         log format
  FRAGMENT_ENCODING=<name>    source encoding

Examples:
  fragment main.fr                  run a single fragment
  fragment ./project                run the entry fragment of a project
  fragment -e shift_jis legacy.fr   run a Shift_JIS encoded fragment
  fragment -i lib.fr                run lib.fr, then explore its bindings
  LOG_LEVEL=debug fragment main.fr  trace bindings, calls and imports
`)
}
