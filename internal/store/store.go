// Package store 把管理员设置持久化到 SQLite：强制角色、角色开关和对局规则
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"mystery-train-be/internal/service/game"
	"mystery-train-be/internal/store/migrations"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const SETTINGS_KEY = "game"

var ErrNotConfigured = errors.New("存储未初始化")

type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("存储路径不能为空")
	}

	// modernc.org/sqlite 只识别 _pragma 形式的参数
	dsn := filepath.Clean(path) +
		"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_pragma=synchronous(NORMAL)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("打开数据库失败: %w", err)
	}

	// SQLite 只允许一个写者
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	if err := applyMigrations(context.Background(), db, migrations.FS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("执行迁移失败: %w", err)
	}

	zap.L().Info("存储已打开", zap.String("path", path))

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}

	return s.db.Close()
}

func (s *Store) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.db == nil {
		return ErrNotConfigured
	}

	return nil
}

func nowMillis() int64 {
	return time.Now().UTC().UnixMilli()
}

func (s *Store) SaveForcedRole(ctx context.Context, playerID, roleID string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if playerID == "" || roleID == "" {
		return errors.New("玩家和角色不能为空")
	}

	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO forced_roles (player_id, role_id, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(player_id) DO UPDATE SET role_id = excluded.role_id, updated_at = excluded.updated_at`,
		playerID,
		roleID,
		nowMillis(),
	)
	if err != nil {
		return fmt.Errorf("保存强制角色失败: %w", err)
	}

	return nil
}

func (s *Store) DeleteForcedRole(ctx context.Context, playerID string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM forced_roles WHERE player_id = ?`, playerID); err != nil {
		return fmt.Errorf("删除强制角色失败: %w", err)
	}

	return nil
}

func (s *Store) LoadForcedRoles(ctx context.Context) (map[string]string, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT player_id, role_id FROM forced_roles ORDER BY player_id`)
	if err != nil {
		return nil, fmt.Errorf("读取强制角色失败: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var playerID, roleID string
		if err := rows.Scan(&playerID, &roleID); err != nil {
			return nil, fmt.Errorf("读取强制角色失败: %w", err)
		}
		out[playerID] = roleID
	}

	return out, rows.Err()
}

func (s *Store) SaveRoleToggle(ctx context.Context, roleID string, enabled bool) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if roleID == "" {
		return errors.New("角色不能为空")
	}

	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO role_toggles (role_id, enabled, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(role_id) DO UPDATE SET enabled = excluded.enabled, updated_at = excluded.updated_at`,
		roleID,
		enabled,
		nowMillis(),
	)
	if err != nil {
		return fmt.Errorf("保存角色开关失败: %w", err)
	}

	return nil
}

func (s *Store) LoadRoleToggles(ctx context.Context) (map[string]bool, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT role_id, enabled FROM role_toggles ORDER BY role_id`)
	if err != nil {
		return nil, fmt.Errorf("读取角色开关失败: %w", err)
	}
	defer rows.Close()

	out := make(map[string]bool)
	for rows.Next() {
		var roleID string
		var enabled bool
		if err := rows.Scan(&roleID, &enabled); err != nil {
			return nil, fmt.Errorf("读取角色开关失败: %w", err)
		}
		out[roleID] = enabled
	}

	return out, rows.Err()
}

func (s *Store) SaveSettings(ctx context.Context, settings game.Settings) error {
	if err := s.ready(ctx); err != nil {
		return err
	}

	payload, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("序列化规则失败: %w", err)
	}

	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO settings (name, payload, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		SETTINGS_KEY,
		string(payload),
		nowMillis(),
	)
	if err != nil {
		return fmt.Errorf("保存规则失败: %w", err)
	}

	return nil
}

// LoadSettings 在没有保存过规则时返回 false
func (s *Store) LoadSettings(ctx context.Context) (game.Settings, bool, error) {
	if err := s.ready(ctx); err != nil {
		return game.Settings{}, false, err
	}

	var payload string

	err := s.db.QueryRowContext(ctx, `SELECT payload FROM settings WHERE name = ?`, SETTINGS_KEY).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return game.Settings{}, false, nil
	}
	if err != nil {
		return game.Settings{}, false, fmt.Errorf("读取规则失败: %w", err)
	}

	var settings game.Settings
	if err := json.Unmarshal([]byte(payload), &settings); err != nil {
		return game.Settings{}, false, fmt.Errorf("解析规则失败: %w", err)
	}

	return settings, true, nil
}
