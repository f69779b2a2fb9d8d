package persist

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"legion/pkg/protocol"
)

// EventLog 回放日志。把每帧广播出去的事件按 JSONL 追加写进
// zstd 压缩文件，一行一条，离线工具可以顺序重放。
type EventLog struct {
	f   *os.File
	zw  *zstd.Encoder
	buf *bufio.Writer
	enc *json.Encoder
}

// OpenEventLog 打开回放日志文件（覆盖写）
func OpenEventLog(path string) (*EventLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("创建回放日志失败: %w", err)
	}

	zw, err := zstd.NewWriter(f)
	if err != nil {
		f.Close()
		return nil, err
	}

	buf := bufio.NewWriter(zw)
	return &EventLog{
		f:   f,
		zw:  zw,
		buf: buf,
		enc: json.NewEncoder(buf),
	}, nil
}

// Append 追加一条事件记录
func (l *EventLog) Append(msg protocol.EventMsg) error {
	return l.enc.Encode(msg)
}

// AppendBatch 追加一帧的事件批
func (l *EventLog) AppendBatch(batch *protocol.EventBatch) error {
	for _, msg := range batch.Events {
		if err := l.enc.Encode(msg); err != nil {
			return err
		}
	}
	return nil
}

// Close 刷盘并关闭
func (l *EventLog) Close() error {
	if err := l.buf.Flush(); err != nil {
		l.zw.Close()
		l.f.Close()
		return err
	}
	if err := l.zw.Close(); err != nil {
		l.f.Close()
		return err
	}
	return l.f.Close()
}

// ReadEventLog 读回整个回放日志（测试与离线工具用）
func ReadEventLog(path string) ([]protocol.EventMsg, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	zr, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	var out []protocol.EventMsg
	dec := json.NewDecoder(zr)
	for dec.More() {
		var msg protocol.EventMsg
		if err := dec.Decode(&msg); err != nil {
			return nil, fmt.Errorf("解码回放日志失败: %w", err)
		}
		out = append(out, msg)
	}
	return out, nil
}
