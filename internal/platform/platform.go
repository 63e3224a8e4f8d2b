package platform

import (
	"runtime"
	"strings"

	"github.com/liangyou/seed/pkg/models"
)

// EditorPackage 是基础包在目录中的固定名称。
const EditorPackage = "Editor"

// platformInfo 描述每个平台的命名约定。
type platformInfo struct {
	token         string
	goos          string
	host          bool   // 能否运行编辑器
	editorArchive string // 非 Windows 宿主上替换的编辑器文件名
}

// platforms 必须覆盖 models.AllPlatforms 中的每一项，见 TestPlatformTableIsExhaustive。
var platforms = map[models.Platform]platformInfo{
	models.PlatformWindows: {token: "Windows", goos: "windows", host: true},
	models.PlatformLinux:   {token: "Linux", goos: "linux", host: true, editorArchive: "FlaxEditorLinux.zip"},
	models.PlatformMacOS:   {token: "Mac", goos: "darwin", host: true, editorArchive: "FlaxEditor.dmg"},
	models.PlatformAndroid: {token: "Android", goos: "android"},
	models.PlatformIOS:     {token: "iOS", goos: "ios"},
}

// Classify 根据包名计算分类：Editor 为基础包，包含平台关键字的为对应平台工具包。
func Classify(name string) models.PackageClass {
	if name == EditorPackage {
		return models.PackageClass{Kind: models.PackageBase}
	}
	for _, p := range models.AllPlatforms() {
		if strings.Contains(name, platforms[p].token) {
			return models.PackageClass{Kind: models.PackageTools, Platform: p}
		}
	}
	return models.PackageClass{Kind: models.PackageOther}
}

// Detect 返回当前运行的平台。
func Detect() models.Platform {
	return fromGOOS(runtime.GOOS)
}

func fromGOOS(goos string) models.Platform {
	for p, info := range platforms {
		if info.goos == goos {
			return p
		}
	}
	return models.PlatformUnknown
}

// IsHost 判断该平台是否可以运行编辑器。
func IsHost(p models.Platform) bool {
	return platforms[p].host
}
