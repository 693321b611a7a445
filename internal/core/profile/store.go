package profile

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"dining-ranker/internal/core/dining"
	"dining-ranker/internal/pkg/common"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// DefaultStorageKey 偏好設定的儲存鍵
const DefaultStorageKey = "bytebite-profile"

// Store 偏好設定持久化介面；讀不到或資料損壞時回傳 nil, nil
type Store interface {
	Load(ctx context.Context) (*dining.UserProfile, error)
	Save(ctx context.Context, p dining.UserProfile) error
	Clear(ctx context.Context) error
	Close() error
}

// SQLiteStore 以 SQLite key/value 表儲存單一偏好設定
type SQLiteStore struct {
	db  *sql.DB
	key string
	now func() time.Time
}

// NewSQLiteStore 開啟資料庫並建立資料表
func NewSQLiteStore(dbPath, key string) (*SQLiteStore, error) {
	if key == "" {
		key = DefaultStorageKey
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// 單一連線避免 SQLITE_BUSY
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db, key: key, now: time.Now}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS kv_store (
        key TEXT PRIMARY KEY,
        value TEXT NOT NULL,
        updated_at DATETIME NOT NULL
    );
    `
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Load 讀取偏好設定
func (s *SQLiteStore) Load(ctx context.Context) (*dining.UserProfile, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv_store WHERE key = ?`, s.key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}

	var p dining.UserProfile
	if err := common.ParseJSON(raw, &p); err != nil {
		common.LogWarn("已儲存的偏好設定無法解析，視為未設定", zap.String("key", s.key), zap.Error(err))
		return nil, nil
	}
	normalized := p.Normalize()
	return &normalized, nil
}

// Save 覆寫偏好設定
func (s *SQLiteStore) Save(ctx context.Context, p dining.UserProfile) error {
	data, err := json.Marshal(p.Normalize())
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}

	query := `
        INSERT INTO kv_store (key, value, updated_at)
        VALUES (?, ?, ?)
        ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
    `
	if _, err := s.db.ExecContext(ctx, query, s.key, string(data), s.now().UTC()); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

// Clear 刪除偏好設定
func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv_store WHERE key = ?`, s.key); err != nil {
		return fmt.Errorf("failed to clear profile: %w", err)
	}
	return nil
}

// Close 關閉資料庫
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
