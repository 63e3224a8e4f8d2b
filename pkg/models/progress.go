package models

// Stage 表示单个安装包所处的阶段。
type Stage string

const (
	StageDownload Stage = "download"
	StageExtract  Stage = "extract"
)

// ProgressEvent 是安装过程中对外发布的进度事件，只有最新的一条有意义。
type ProgressEvent struct {
	Package  string  // 当前安装包名称
	Stage    Stage   // 下载或解压
	Label    string  // 例如 "Downloading Editor"
	Fraction float64 // 当前阶段进度，取值 [0,1]
	Index    int     // 当前包序号，从 1 开始
	Total    int     // 本次安装的包总数
}
