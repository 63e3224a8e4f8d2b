// Package storage 持久化已安装引擎的记录。
package storage

import (
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/liangyou/seed/pkg/models"
)

// RegistryFile 是记录文件名，位于安装根目录下。
const RegistryFile = "installed.json"

// LocalStorage 定义已安装引擎记录的读写接口。
type LocalStorage interface {
	SaveEngine(engine models.InstalledEngine) error
	LoadEngines() ([]models.InstalledEngine, error)
	DeleteEngine(name string) error
	GetInstallPath(name string) string
	Root() string
}

// FileStorage 通过 JSON 文件持久化安装记录。
type FileStorage struct {
	root         string
	registryPath string
	mu           sync.Mutex
}

// RegistryData 表示 installed.json 的结构。
type RegistryData struct {
	Engines []models.InstalledEngine `json:"engines"`
}

// NewFileStorage 构造文件存储，安装根目录取自配置。
func NewFileStorage(cfg models.Config) *FileStorage {
	root := cfg.Install.ResolveRoot()
	return &FileStorage{
		root:         root,
		registryPath: filepath.Join(root, RegistryFile),
	}
}

// Root 返回安装根目录。
func (s *FileStorage) Root() string {
	return s.root
}

// SaveEngine 保存或按名称替换一条安装记录。
func (s *FileStorage) SaveEngine(engine models.InstalledEngine) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return err
	}

	engines, err := s.readLocked()
	if err != nil {
		return err
	}

	updated := false
	for i := range engines {
		if engines[i].Name == engine.Name {
			engines[i] = engine
			updated = true
			break
		}
	}
	if !updated {
		engines = append(engines, engine)
	}

	return s.writeLocked(engines)
}

// LoadEngines 读取所有安装记录，文件不存在时返回空列表。
func (s *FileStorage) LoadEngines() ([]models.InstalledEngine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.readLocked()
}

// DeleteEngine 移除指定名称的记录，记录不存在时不报错。
func (s *FileStorage) DeleteEngine(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	engines, err := s.readLocked()
	if err != nil {
		return err
	}
	if len(engines) == 0 {
		return nil
	}

	filtered := engines[:0]
	for _, e := range engines {
		if e.Name != name {
			filtered = append(filtered, e)
		}
	}

	return s.writeLocked(filtered)
}

// GetInstallPath 返回引擎的安装目录。
func (s *FileStorage) GetInstallPath(name string) string {
	return filepath.Join(s.root, name)
}

func (s *FileStorage) readLocked() ([]models.InstalledEngine, error) {
	file, err := os.Open(s.registryPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []models.InstalledEngine{}, nil
		}
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return []models.InstalledEngine{}, nil
	}

	var registry RegistryData
	if err := json.Unmarshal(data, &registry); err != nil {
		return nil, err
	}
	if registry.Engines == nil {
		registry.Engines = []models.InstalledEngine{}
	}
	return registry.Engines, nil
}

// writeLocked 先写临时文件再重命名，避免中断时留下半截 JSON。
func (s *FileStorage) writeLocked(engines []models.InstalledEngine) error {
	data, err := json.MarshalIndent(RegistryData{Engines: engines}, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.root, RegistryFile+".*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.registryPath)
}
