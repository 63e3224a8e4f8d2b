package archive

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// maxLinkDepth 限制解析符号链接链的深度，与内核的 ELOOP 上限一致。
const maxLinkDepth = 40

var errLinkLoop = errors.New("too many levels of symbolic links")

// safeJoin 将压缩包内的条目名映射到 root 下的路径，只做文本检查。
// 返回空字符串表示条目就是 root 本身；越界或绝对路径返回 ErrIllegalPath。
func safeJoin(root, name string) (string, error) {
	slashed := strings.ReplaceAll(name, "\\", "/")
	if path.IsAbs(slashed) || filepath.VolumeName(filepath.FromSlash(slashed)) != "" {
		return "", fmt.Errorf("%w: %s", ErrIllegalPath, name)
	}

	clean := path.Clean(slashed)
	if clean == "." || clean == "" {
		return "", nil
	}
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("%w: %s", ErrIllegalPath, name)
	}

	target := filepath.Join(root, filepath.FromSlash(clean))
	if err := ensureWithinRoot(root, target); err != nil {
		return "", err
	}
	return target, nil
}

// realTarget 沿磁盘上已解压的符号链接解析 target 的父目录，返回可以安全创建的真实路径。
// 任何一步落到 root 之外都返回 ErrIllegalPath。最后一级不解析，由调用方决定如何覆盖。
func realTarget(root, target string) (string, error) {
	rel, err := filepath.Rel(root, filepath.Dir(target))
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrIllegalPath, target)
	}
	parent, err := resolveInRoot(root, root, filepath.ToSlash(rel), 0)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrIllegalPath, target, err)
	}
	return filepath.Join(parent, filepath.Base(target)), nil
}

// realSource 完整解析 target（包括最后一级符号链接），用于硬链接源。
func realSource(root, target string) (string, error) {
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrIllegalPath, target)
	}
	resolved, err := resolveInRoot(root, root, filepath.ToSlash(rel), 0)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrIllegalPath, target, err)
	}
	return resolved, nil
}

// safeLink 校验位于 linkPath（已是真实路径）的符号链接按内核语义解析后仍在 root 内。
func safeLink(root, linkPath, linkTarget string) error {
	if linkTarget == "" || filepath.IsAbs(linkTarget) || path.IsAbs(linkTarget) {
		return fmt.Errorf("%w: link %s -> %s", ErrIllegalPath, linkPath, linkTarget)
	}
	if _, err := resolveInRoot(root, filepath.Dir(linkPath), linkTarget, 0); err != nil {
		return fmt.Errorf("%w: link %s -> %s: %v", ErrIllegalPath, linkPath, linkTarget, err)
	}
	return nil
}

// resolveInRoot 从 base 出发逐级解析 rel，遇到磁盘上已存在的符号链接时按其内容继续解析，
// ".." 作用于已解析的目录。base 必须位于 root 内且不含符号链接。
// 尚不存在的路径按普通目录处理，稍后由 MkdirAll 创建为真实目录。
func resolveInRoot(root, base, rel string, depth int) (string, error) {
	if depth > maxLinkDepth {
		return "", errLinkLoop
	}
	cur := base
	for _, part := range strings.Split(strings.ReplaceAll(rel, "\\", "/"), "/") {
		switch part {
		case "", ".":
			continue
		case "..":
			cur = filepath.Dir(cur)
		default:
			next := filepath.Join(cur, part)
			info, err := os.Lstat(next)
			if err == nil && info.Mode()&os.ModeSymlink != 0 {
				link, err := os.Readlink(next)
				if err != nil {
					return "", err
				}
				if filepath.IsAbs(link) || path.IsAbs(link) {
					return "", fmt.Errorf("absolute link %s -> %s", next, link)
				}
				next, err = resolveInRoot(root, cur, link, depth+1)
				if err != nil {
					return "", err
				}
			}
			cur = next
		}
		if err := ensureWithinRoot(root, cur); err != nil {
			return "", err
		}
	}
	return cur, nil
}

// removeLink 删除 target 处已存在的符号链接，避免写文件时跟随它。
func removeLink(target string) error {
	info, err := os.Lstat(target)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return os.Remove(target)
	}
	return nil
}

func ensureWithinRoot(root, target string) error {
	root = filepath.Clean(root)
	target = filepath.Clean(target)
	if target == root {
		return nil
	}
	if !strings.HasPrefix(target, root+string(os.PathSeparator)) {
		return fmt.Errorf("%w: %s", ErrIllegalPath, target)
	}
	return nil
}
