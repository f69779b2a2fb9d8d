package persist

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"legion/pkg/core"
)

// WriteSnapshot 把世界存档写成 zstd 压缩的 JSON 文件。
// 先写临时文件再改名，避免写一半的存档被当成有效文件读走。
func WriteSnapshot(path string, st *core.SaveState) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("创建存档目录失败: %w", err)
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("创建存档文件失败: %w", err)
	}

	enc, err := zstd.NewWriter(f)
	if err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}

	if err := json.NewEncoder(enc).Encode(st); err != nil {
		enc.Close()
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("编码存档失败: %w", err)
	}
	if err := enc.Close(); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}

	return os.Rename(tmp, path)
}

// ReadSnapshot 读取并解压一份世界存档
func ReadSnapshot(path string) (*core.SaveState, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("打开存档失败: %w", err)
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	st := &core.SaveState{}
	if err := json.NewDecoder(dec).Decode(st); err != nil {
		return nil, fmt.Errorf("解码存档失败: %w", err)
	}
	return st, nil
}
