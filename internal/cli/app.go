// Package cli 实现 seed 命令行。
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/liangyou/seed/internal/config"
	"github.com/liangyou/seed/internal/engine"
	"github.com/liangyou/seed/internal/output"
	"github.com/liangyou/seed/pkg/models"
)

// ListService 描述引擎查询能力。
type ListService interface {
	RemoteEngines(ctx context.Context) ([]models.Engine, error)
	LocalEngines() ([]models.InstalledEngine, error)
	FindRemote(ctx context.Context, query string) (models.Engine, error)
}

// InstallService 描述安装能力。
type InstallService interface {
	Start(ctx context.Context, req engine.Request) *engine.Handle
	InstallPackage(ctx context.Context, e models.Engine, name, root string, p models.Platform, report engine.ProgressFunc) (*models.InstalledPackage, error)
}

// UninstallService 描述卸载能力。
type UninstallService interface {
	Uninstall(name string) ([]models.InstalledEngine, error)
}

// Registry 保存安装结果。
type Registry interface {
	SaveEngine(e models.InstalledEngine) error
}

// Services 聚合命令所需的服务。
type Services struct {
	Lister      ListService
	Installer   InstallService
	Uninstaller UninstallService
	Registry    Registry
}

// ServiceFactory 在配置加载完成后构造服务。
type ServiceFactory func(cfg models.Config, logger *log.Logger) (*Services, error)

// ConfigLoader 加载配置，path 为 --config 的值。
type ConfigLoader func(ctx context.Context, path string) (models.Config, error)

// App 负责 CLI 命令解析与分发。
type App struct {
	out        io.Writer
	errOut     io.Writer
	version    string
	factory    ServiceFactory
	loadConfig ConfigLoader

	cfg        models.Config
	services   *Services
	logger     *log.Logger
	writer     *output.Writer
	format     string
	configPath string
	root       string
	verbose    bool
}

// Option 配置 App。
type Option func(*App)

// WithOutput 指定标准输出与错误输出。
func WithOutput(out, errOut io.Writer) Option {
	return func(a *App) {
		if out != nil {
			a.out = out
		}
		if errOut != nil {
			a.errOut = errOut
		}
	}
}

// WithVersion 指定版本号。
func WithVersion(version string) Option {
	return func(a *App) {
		a.version = version
	}
}

// WithConfigLoader 替换配置加载方式。
func WithConfigLoader(loader ConfigLoader) Option {
	return func(a *App) {
		if loader != nil {
			a.loadConfig = loader
		}
	}
}

// NewApp 创建 CLI 应用实例。
func NewApp(factory ServiceFactory, opts ...Option) *App {
	a := &App{
		out:        os.Stdout,
		errOut:     os.Stderr,
		version:    "dev",
		factory:    factory,
		loadConfig: loadConfig,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run 解析参数并执行命令。
func (a *App) Run(ctx context.Context, args []string) error {
	root := a.rootCommand()
	root.SetArgs(args)
	root.SetOut(a.out)
	root.SetErr(a.errOut)
	return root.ExecuteContext(ctx)
}

func (a *App) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "seed",
		Short: "Install and manage Flax Engine versions",
		Long: `seed downloads Flax Engine releases from the official catalog and installs
the editor together with the platform tools you select.`,
		Version:           a.version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	root.PersistentFlags().StringVarP(&a.format, "output", "o", "text", "Output format: text, json, yaml, toml")
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Path to config file (default is <config dir>/seed/seed.yaml)")
	root.PersistentFlags().StringVar(&a.root, "root", "", "Install root directory (overrides install.root)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Verbose output")

	root.AddCommand(a.newRemoteCmd())
	root.AddCommand(a.newPackagesCmd())
	root.AddCommand(a.newInstallCmd())
	root.AddCommand(a.newAddCmd())
	root.AddCommand(a.newListCmd())
	root.AddCommand(a.newUninstallCmd())

	_ = root.RegisterFlagCompletionFunc("output", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{"text", "json", "yaml", "toml"}, cobra.ShellCompDirectiveNoFileComp
	})
	return root
}

// setup 在任何子命令执行前加载配置、创建日志与服务。
func (a *App) setup(cmd *cobra.Command, _ []string) error {
	format, err := output.ParseFormat(a.format)
	if err != nil {
		return err
	}
	a.writer = output.NewWriter(a.out, format)

	cfg, err := a.loadConfig(cmd.Context(), a.configPath)
	if err != nil {
		return err
	}
	if a.root != "" {
		cfg.Install.Root = a.root
	}
	a.cfg = cfg
	a.logger = newLogger(a.errOut, cfg.Log.Level, a.verbose)

	if a.factory == nil {
		return errors.New("cli: no services configured")
	}
	services, err := a.factory(cfg, a.logger)
	if err != nil {
		return fmt.Errorf("cli: init services: %w", err)
	}
	a.services = services
	return nil
}

func loadConfig(ctx context.Context, path string) (models.Config, error) {
	cfg, _, err := config.Load(ctx, config.LoadOptions{ConfigFilePath: path})
	return cfg, err
}

func newLogger(w io.Writer, level string, verbose bool) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{Prefix: "seed"})
	if verbose {
		logger.SetLevel(log.DebugLevel)
		return logger
	}
	if parsed, err := log.ParseLevel(strings.TrimSpace(level)); err == nil {
		logger.SetLevel(parsed)
	} else {
		logger.SetLevel(log.InfoLevel)
	}
	return logger
}
