package persist

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Store 存档索引库。快照本体落在压缩文件里，
// 这里只记每次存档的槽位、tick 和文件路径，方便按槽取最新。
type Store struct {
	db *sql.DB
}

// OpenStore 打开（或创建）存档索引库
func OpenStore(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("存档库路径为空")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	schema := `CREATE TABLE IF NOT EXISTS saves (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		slot TEXT NOT NULL,
		tick INTEGER NOT NULL,
		path TEXT NOT NULL,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_saves_slot ON saves(slot, id);`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// SaveRecord 一条存档索引记录
type SaveRecord struct {
	ID        int64
	Slot      string
	Tick      int64
	Path      string
	CreatedAt time.Time
}

// RecordSave 登记一次成功写盘的存档
func (s *Store) RecordSave(slot string, tick int64, path string) error {
	_, err := s.db.Exec(
		`INSERT INTO saves (slot, tick, path, created_at) VALUES (?, ?, ?, ?)`,
		slot, tick, path, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("登记存档失败: %w", err)
	}
	return nil
}

// LatestSave 取某槽位最近一次存档；没有记录时返回 (nil, nil)
func (s *Store) LatestSave(slot string) (*SaveRecord, error) {
	row := s.db.QueryRow(
		`SELECT id, slot, tick, path, created_at FROM saves WHERE slot = ? ORDER BY id DESC LIMIT 1`,
		slot,
	)

	var rec SaveRecord
	var createdAt string
	err := row.Scan(&rec.ID, &rec.Slot, &rec.Tick, &rec.Path, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("查询存档失败: %w", err)
	}
	rec.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &rec, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
