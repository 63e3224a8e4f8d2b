package platform

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/liangyou/seed/pkg/models"
)

// ResolveBasePackage 返回目录条目中唯一的编辑器包。
func ResolveBasePackage(engine models.Engine) (models.Package, error) {
	var (
		found models.Package
		count int
	)
	for _, pkg := range engine.Packages {
		if ClassOf(pkg).Kind != models.PackageBase {
			continue
		}
		found = pkg
		count++
	}
	if count != 1 {
		return models.Package{}, &ResolutionError{
			Kind:   MissingBasePackage,
			Engine: engine.Name,
			Detail: fmt.Sprintf("found %d editor packages", count),
		}
	}
	return found, nil
}

// ResolvePlatformTools 返回与平台匹配的第一个工具包。
func ResolvePlatformTools(engine models.Engine, p models.Platform) (models.Package, error) {
	if _, ok := platforms[p]; !ok {
		return models.Package{}, &ResolutionError{Kind: UnsupportedPlatform, Engine: engine.Name, Detail: p.String()}
	}
	for _, pkg := range engine.Packages {
		class := ClassOf(pkg)
		if class.Kind == models.PackageTools && class.Platform == p {
			return pkg, nil
		}
	}
	return models.Package{}, &ResolutionError{
		Kind:   UnsupportedPlatform,
		Engine: engine.Name,
		Detail: fmt.Sprintf("no tools package for %s", p),
	}
}

// EditorURL 返回编辑器包在指定平台上的下载地址。
// Windows 直接使用目录中的地址，其他宿主平台替换同一目录下的文件名。
func EditorURL(pkg models.Package, p models.Platform) (string, error) {
	if p == models.PlatformWindows {
		return pkg.URL, nil
	}
	info, ok := platforms[p]
	if !ok || !info.host {
		return "", &ResolutionError{Kind: UnsupportedPlatform, Detail: fmt.Sprintf("editor is not available for %s", p)}
	}
	idx := strings.LastIndex(pkg.URL, "/")
	if idx < 0 {
		return "", &ResolutionError{Kind: InvalidURL, Detail: pkg.URL}
	}
	return pkg.URL[:idx] + "/" + info.editorArchive, nil
}

// PackageURL 返回任意包的有效下载地址，工具包与其他包使用原始地址。
func PackageURL(pkg models.Package, p models.Platform) (string, error) {
	if ClassOf(pkg).Kind == models.PackageBase {
		return EditorURL(pkg, p)
	}
	if pkg.URL == "" {
		return "", &ResolutionError{Kind: InvalidURL, Detail: fmt.Sprintf("package %s has no url", pkg.Name)}
	}
	return pkg.URL, nil
}

// InstallDir 计算包的解压目录：基础包位于 root/engine，其他包位于 root/engine/targetPath。
func InstallDir(root string, engine models.Engine, pkg models.Package) (string, error) {
	engineDir := filepath.Join(root, engine.Name)
	if engine.Name == "" || filepath.Clean(engineDir) == filepath.Clean(root) || !within(root, engineDir) {
		return "", &ResolutionError{Kind: InvalidTargetPath, Engine: engine.Name, Detail: "engine name escapes install root"}
	}
	if ClassOf(pkg).Kind == models.PackageBase {
		return engineDir, nil
	}
	target := filepath.Join(engineDir, filepath.FromSlash(pkg.TargetPath))
	if !within(engineDir, target) {
		return "", &ResolutionError{
			Kind:   InvalidTargetPath,
			Engine: engine.Name,
			Detail: fmt.Sprintf("%s -> %s", pkg.Name, pkg.TargetPath),
		}
	}
	return target, nil
}

// ClassOf 返回包的分类：优先使用解析目录时已计算好的 Class，手工构造的包才现场计算。
func ClassOf(pkg models.Package) models.PackageClass {
	if pkg.Class.Kind != models.PackageOther {
		return pkg.Class
	}
	return Classify(pkg.Name)
}

func within(root, target string) bool {
	root = filepath.Clean(root)
	target = filepath.Clean(target)
	if target == root {
		return true
	}
	return strings.HasPrefix(target, root+string(filepath.Separator))
}
