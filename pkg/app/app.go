package app

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/zurustar/fragment/pkg/cli"
	"github.com/zurustar/fragment/pkg/diagnostic"
	"github.com/zurustar/fragment/pkg/fileutil"
	"github.com/zurustar/fragment/pkg/fragment"
	"github.com/zurustar/fragment/pkg/logger"
	"github.com/zurustar/fragment/pkg/project"
	"github.com/zurustar/fragment/pkg/repl"
	"github.com/zurustar/fragment/pkg/script"
)

// ErrEvaluation は診断が表示済みであることを示す
var ErrEvaluation = errors.New("evaluation failed")

// historyFile は対話モードの履歴ファイル名（ホームディレクトリ直下）
const historyFile = ".fragment_history"

// Application はアプリケーションのメインロジックを管理する
type Application struct {
	config  *cli.Config
	log     *slog.Logger
	project *project.Project
	runtime *fragment.Runtime

	out    io.Writer
	errOut io.Writer

	embedFS   fs.FS  // embedされたプロジェクト（任意）
	embedRoot string // embedされたプロジェクトのディレクトリ

	startSession func(*repl.Session) error
}

// Option はApplicationの設定を変更する
type Option func(*Application)

// WithOutput 出力先（Printと値）と診断の出力先を設定
func WithOutput(out, errOut io.Writer) Option {
	return func(app *Application) {
		app.out = out
		app.errOut = errOut
	}
}

// WithEmbeddedProject パスが指定されない場合に実行するembedされたプロジェクトを設定
func WithEmbeddedProject(fsys fs.FS, root string) Option {
	return func(app *Application) {
		app.embedFS = fsys
		app.embedRoot = root
	}
}

// WithSessionRunner 対話モードの実行方法を設定（既定は端末での行編集）
func WithSessionRunner(run func(*repl.Session) error) Option {
	return func(app *Application) {
		app.startSession = run
	}
}

// New Applicationを作成
func New(opts ...Option) *Application {
	app := &Application{
		out:    os.Stdout,
		errOut: os.Stderr,
	}
	app.startSession = func(s *repl.Session) error {
		return repl.Start(s, historyPath())
	}
	for _, opt := range opts {
		opt(app)
	}
	return app
}

// Run アプリケーションを実行
func (app *Application) Run(args []string) error {
	// 1. コマンドライン引数の解析
	if err := app.parseArgs(args); err != nil {
		return fmt.Errorf("failed to parse args: %w", err)
	}

	if app.config.ShowHelp {
		cli.PrintHelp(app.out)
		return nil
	}

	// 2. プロジェクトの読み込み
	if err := app.loadProject(); err != nil {
		return fmt.Errorf("failed to load project: %w", err)
	}

	// 3. ロガーの初期化（マニフェストの設定はフラグと環境変数より弱い）
	if err := app.initLogger(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	app.log.Info("Application started")

	// 4. ランタイムの作成
	if err := app.initRuntime(); err != nil {
		return fmt.Errorf("failed to initialize runtime: %w", err)
	}

	// 5. エントリーフラグメントの実行
	var entry *fragment.Fragment
	if app.project != nil {
		app.log.Info("Project selected", "name", app.project.DisplayName(), "path", app.project.Path, "entry", app.project.Entry)

		f, err := app.runtime.Run(app.project.Entry)
		if err != nil {
			return app.fail(err)
		}
		entry = f
	}

	// 6. 対話モード
	if app.config.Interactive || app.project == nil {
		if err := app.interact(entry); err != nil {
			return fmt.Errorf("interactive session failed: %w", err)
		}
	}

	app.log.Info("Application terminated normally")
	return nil
}

// parseArgs コマンドライン引数を解析
func (app *Application) parseArgs(args []string) error {
	config, err := cli.ParseArgs(args)
	if err != nil {
		return err
	}
	app.config = config
	return nil
}

// loadProject プロジェクトを読み込む
func (app *Application) loadProject() error {
	switch {
	case app.config.Path != "":
		p, err := project.Open(app.config.Path, app.config.EntryFile)
		if err != nil {
			return err
		}
		app.project = p
	case app.embedFS != nil:
		p, err := project.OpenFS(app.embedFS, app.embedRoot, "")
		if err != nil {
			return err
		}
		app.project = p
	}
	return nil
}

// initLogger ロガーを初期化
func (app *Application) initLogger() error {
	level := app.config.LogLevel
	if !app.config.IsSet("log-level") && app.project != nil && app.project.Manifest.LogLevel != "" {
		level = app.project.Manifest.LogLevel
	}

	if err := logger.InitLogger(level, app.config.LogFormat); err != nil {
		return err
	}
	app.log = logger.GetLogger()
	return nil
}

// initRuntime ローダーとランタイムを作成
func (app *Application) initRuntime() error {
	encoding := app.config.Encoding
	if !app.config.IsSet("encoding") && app.project != nil && app.project.Manifest.Encoding != "" {
		encoding = app.project.Manifest.Encoding
	}

	var fsys fileutil.FileSystem = fileutil.NewRealFS(".")
	if app.project != nil {
		fsys = app.project.FS
	}

	loader, err := script.NewLoader(fsys, encoding)
	if err != nil {
		return err
	}
	app.log.Debug("Loader ready", "base", fsys.BasePath(), "embedded", fsys.IsEmbedded(), "encoding", loader.EncodingName())

	app.runtime = fragment.New(loader,
		fragment.WithLogger(app.log),
		fragment.WithOutput(app.out),
	)
	return nil
}

// interact 対話モードを開始する。entry が実行済みならその束縛を引き継ぐ
func (app *Application) interact(entry *fragment.Fragment) error {
	session, err := repl.New(app.runtime,
		repl.WithLogger(app.log),
		repl.WithOutput(app.out, app.errOut),
	)
	if err != nil {
		return app.fail(err)
	}
	if entry != nil {
		session.Frame().Merge(entry.Frame)
	}

	app.log.Debug("Starting interactive session")
	return app.startSession(session)
}

// fail は診断を表示してErrEvaluationを返す
func (app *Application) fail(err error) error {
	if d, ok := diagnostic.As(err); ok {
		fmt.Fprint(app.errOut, d.Render())
		app.log.Debug("Evaluation failed", "kind", string(d.Kind), "file", d.File, "position", d.Position.String())
		return ErrEvaluation
	}
	return err
}

// historyPath 履歴ファイルのパスを返す（ホームディレクトリがなければ空）
func historyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, historyFile)
}
