package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/liangyou/seed/internal/engine"
	"github.com/liangyou/seed/internal/platform"
	"github.com/liangyou/seed/pkg/models"
)

type remoteList struct {
	Engines []models.Engine `json:"engines" yaml:"engines" toml:"engines"`
}

type localList struct {
	Engines []models.InstalledEngine `json:"engines" yaml:"engines" toml:"engines"`
}

type packageView struct {
	Name       string `json:"name" yaml:"name" toml:"name"`
	Kind       string `json:"kind" yaml:"kind" toml:"kind"`
	Platform   string `json:"platform,omitempty" yaml:"platform,omitempty" toml:"platform,omitempty"`
	Required   bool   `json:"required" yaml:"required" toml:"required"`
	Default    bool   `json:"default" yaml:"default" toml:"default"`
	TargetPath string `json:"targetPath" yaml:"targetPath" toml:"targetPath"`
	URL        string `json:"url,omitempty" yaml:"url,omitempty" toml:"url,omitempty"`
	Error      string `json:"error,omitempty" yaml:"error,omitempty" toml:"error,omitempty"`
}

type packageList struct {
	Engine   string        `json:"engine" yaml:"engine" toml:"engine"`
	Version  string        `json:"version" yaml:"version" toml:"version"`
	Platform string        `json:"platform" yaml:"platform" toml:"platform"`
	Packages []packageView `json:"packages" yaml:"packages" toml:"packages"`
}

func (a *App) newRemoteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remote",
		Short: "List engine versions available in the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			engines, err := a.services.Lister.RemoteEngines(cmd.Context())
			if err != nil {
				return fmt.Errorf("cli: fetch catalog: %w", err)
			}
			if !a.writer.IsText() {
				return a.writer.Write(remoteList{Engines: engines})
			}
			if len(engines) == 0 {
				fmt.Fprintln(a.out, "No remote engines available.")
				return nil
			}
			lines := []string{"Available engines:"}
			for _, e := range engines {
				lines = append(lines, "  "+engine.FormatRemoteEngine(e))
			}
			return a.writer.Write(lines)
		},
	}
}

func (a *App) newPackagesCmd() *cobra.Command {
	var platformName string
	cmd := &cobra.Command{
		Use:   "packages <version>",
		Short: "List the packages of an engine version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := a.services.Lister.FindRemote(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			p, err := a.targetPlatform(platformName)
			if err != nil {
				return err
			}

			list := packageList{Engine: target.Name, Version: target.Version.String(), Platform: p.String()}
			for _, pkg := range target.Packages {
				class := platform.ClassOf(pkg)
				view := packageView{
					Name:       pkg.Name,
					Kind:       class.Kind.String(),
					Required:   pkg.IsRequired(),
					Default:    pkg.IsDefault(),
					TargetPath: pkg.TargetPath,
				}
				if class.Kind == models.PackageTools {
					view.Platform = class.Platform.String()
				}
				if url, err := platform.PackageURL(pkg, p); err != nil {
					view.Error = err.Error()
				} else {
					view.URL = url
				}
				list.Packages = append(list.Packages, view)
			}

			if !a.writer.IsText() {
				return a.writer.Write(list)
			}
			lines := []string{fmt.Sprintf("Packages of %s (%s) for %s:", list.Engine, list.Version, list.Platform)}
			for _, v := range list.Packages {
				lines = append(lines, "  "+formatPackageView(v))
			}
			return a.writer.Write(lines)
		},
	}
	cmd.Flags().StringVar(&platformName, "platform", "", "Platform to resolve download URLs for (default: current host)")
	return cmd
}

func (a *App) newInstallCmd() *cobra.Command {
	var (
		packages      []string
		platformTools bool
		noDefaults    bool
		platformName  string
	)
	cmd := &cobra.Command{
		Use:   "install <version>",
		Short: "Install an engine version with the selected packages",
		Long: `Install the editor of an engine version (by name or version, e.g. 1.9) followed by
the selected packages. Packages flagged as default in the catalog are included unless
--no-defaults is given; required packages are always installed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			target, err := a.services.Lister.FindRemote(ctx, args[0])
			if err != nil {
				return err
			}
			host, root, err := a.prepareTarget(platformName)
			if err != nil {
				return err
			}

			var selection []string
			if !noDefaults {
				selection = append(selection, engine.DefaultSelection(target)...)
			}
			selection = append(selection, packages...)
			if platformTools {
				tools, err := platform.ResolvePlatformTools(target, host)
				if err != nil {
					return fmt.Errorf("cli: %w", err)
				}
				selection = append(selection, tools.Name)
			}

			color.New(color.FgCyan).Fprintf(a.errOut, "Installing %s (%s) into %s\n", target.Name, target.Version, root)
			handle := a.services.Installer.Start(ctx, engine.Request{
				Engine:   target,
				Packages: selection,
				Root:     root,
				Platform: host,
			})
			bar := newProgressBar(a.errOut)
			for ev := range handle.Events() {
				bar.Update(ev)
			}
			bar.Finish()

			result, err := handle.Wait()
			if err != nil {
				return installFailure(target, err)
			}
			if err := a.services.Registry.SaveEngine(*result); err != nil {
				return fmt.Errorf("cli: save install record: %w", err)
			}
			return a.writeInstalled(result)
		},
	}
	cmd.Flags().StringSliceVarP(&packages, "package", "p", nil, "Additional package to install (repeatable)")
	cmd.Flags().BoolVar(&platformTools, "platform-tools", false, "Also install the platform tools for the target platform")
	cmd.Flags().BoolVar(&noDefaults, "no-defaults", false, "Do not install packages flagged as default")
	cmd.Flags().StringVar(&platformName, "platform", "", "Target platform (default: current host)")
	return cmd
}

func (a *App) newAddCmd() *cobra.Command {
	var platformName string
	cmd := &cobra.Command{
		Use:   "add <version> <package>...",
		Short: "Install or retry single packages of an installed engine",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			target, err := a.services.Lister.FindRemote(ctx, args[0])
			if err != nil {
				return err
			}
			host, root, err := a.prepareTarget(platformName)
			if err != nil {
				return err
			}

			record, err := a.installedRecord(target)
			if err != nil {
				return err
			}

			for _, name := range args[1:] {
				bar := newProgressBar(a.errOut)
				pkg, err := a.services.Installer.InstallPackage(ctx, target, name, root, host, bar.Update)
				bar.Finish()
				if err != nil {
					return installFailure(target, err)
				}
				record.Packages = upsertPackage(record.Packages, *pkg)
				if err := a.services.Registry.SaveEngine(record); err != nil {
					return fmt.Errorf("cli: save install record: %w", err)
				}
			}
			return a.writeInstalled(&record)
		},
	}
	cmd.Flags().StringVar(&platformName, "platform", "", "Target platform (default: current host)")
	return cmd
}

func (a *App) newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List installed engines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			engines, err := a.services.Lister.LocalEngines()
			if err != nil {
				return err
			}
			if !a.writer.IsText() {
				return a.writer.Write(localList{Engines: engines})
			}
			if len(engines) == 0 {
				fmt.Fprintln(a.out, "No engines installed.")
				return nil
			}
			lines := []string{"Installed engines:"}
			for _, e := range engines {
				lines = append(lines, "  "+engine.FormatLocalEngine(e))
			}
			return a.writer.Write(lines)
		},
	}
}

func (a *App) newUninstallCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "uninstall <name>",
		Short: "Remove an installed engine",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			remaining, err := a.services.Uninstaller.Uninstall(args[0])
			if err != nil {
				return err
			}
			if !a.writer.IsText() {
				return a.writer.Write(localList{Engines: remaining})
			}
			color.New(color.FgGreen).Fprintf(a.out, "Uninstalled %s\n", args[0])
			fmt.Fprintln(a.out, "Remaining engines:")
			if len(remaining) == 0 {
				fmt.Fprintln(a.out, "  (none)")
				return nil
			}
			for _, e := range remaining {
				fmt.Fprintf(a.out, "  %s\n", engine.FormatLocalEngine(e))
			}
			return nil
		},
	}
}

// targetPlatform 返回 --platform 指定的平台，未指定时检测当前宿主。
func (a *App) targetPlatform(name string) (models.Platform, error) {
	if name != "" {
		return models.ParsePlatform(name)
	}
	return platform.NewChecker(a.cfg).Host()
}

// prepareTarget 确定目标平台并确保安装根目录可用。
func (a *App) prepareTarget(platformName string) (models.Platform, string, error) {
	root := a.cfg.Install.ResolveRoot()
	if platformName == "" {
		checker := platform.NewChecker(a.cfg)
		if err := checker.Validate(); err != nil {
			return models.PlatformUnknown, "", err
		}
		host, err := checker.Host()
		return host, root, err
	}

	p, err := models.ParsePlatform(platformName)
	if err != nil {
		return models.PlatformUnknown, "", err
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return models.PlatformUnknown, "", fmt.Errorf("cli: create install root: %w", err)
	}
	return p, root, nil
}

func (a *App) installedRecord(target models.Engine) (models.InstalledEngine, error) {
	engines, err := a.services.Lister.LocalEngines()
	if err != nil {
		return models.InstalledEngine{}, err
	}
	for _, e := range engines {
		if e.Name == target.Name {
			return e, nil
		}
	}
	return models.InstalledEngine{}, fmt.Errorf("cli: %s is not installed, run `seed install %s` first", target.Name, target.Version)
}

func (a *App) writeInstalled(result *models.InstalledEngine) error {
	if !a.writer.IsText() {
		return a.writer.Write(result)
	}
	color.New(color.FgGreen).Fprintf(a.out, "Installed %s (%s) at %s\n", result.Name, result.Version, result.Path)
	for _, pkg := range result.Packages {
		fmt.Fprintf(a.out, "  %s -> %s\n", pkg.Name, pkg.Path)
	}
	return nil
}

// installFailure 为失败的安装补充重试提示。
func installFailure(target models.Engine, err error) error {
	if engine.IsCancelled(err) {
		return fmt.Errorf("cli: installation cancelled: %w", err)
	}
	var ie *engine.InstallError
	if errors.As(err, &ie) && engine.Retryable(err) {
		return fmt.Errorf("cli: %w (retry with `seed add %s %s`)", err, target.Version, ie.Package)
	}
	return fmt.Errorf("cli: %w", err)
}

func upsertPackage(packages []models.InstalledPackage, pkg models.InstalledPackage) []models.InstalledPackage {
	for i := range packages {
		if packages[i].Name == pkg.Name {
			packages[i] = pkg
			return packages
		}
	}
	return append(packages, pkg)
}

func formatPackageView(v packageView) string {
	tags := []string{v.Kind}
	if v.Platform != "" {
		tags[0] = v.Kind + ":" + v.Platform
	}
	if v.Required {
		tags = append(tags, "required")
	}
	if v.Default {
		tags = append(tags, "default")
	}
	dest := v.URL
	if v.Error != "" {
		dest = "unavailable: " + v.Error
	}
	return fmt.Sprintf("%s [%s] -> %s", v.Name, strings.Join(tags, ", "), dest)
}
