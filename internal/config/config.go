package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// TargetingConfig 索敌系统参数
type TargetingConfig struct {
	UpdateHz        int     `yaml:"update_hz"`        // 索敌刷新频率，15~60
	VisibilityRange float64 `yaml:"visibility_range"` // 视野半径
}

// SaveConfig 存档参数
type SaveConfig struct {
	Dir        string `yaml:"dir"`         // 存档目录
	EveryTicks int64  `yaml:"every_ticks"` // 自动存档间隔（tick），0 关闭
	Slot       string `yaml:"slot"`        // 存档槽名
}

// Config 服务器配置
type Config struct {
	ListenAddr string `yaml:"listen_addr"` // 监听地址
	Proto      string `yaml:"proto"`       // tcp 或 kcp
	TickRateHz int    `yaml:"tick_rate_hz"`
	TreeDir    string `yaml:"tree_dir"` // 行为树 JSON 目录，空则只用内置模板

	Targeting TargetingConfig `yaml:"targeting"`
	Save      SaveConfig      `yaml:"save"`
}

// Default 默认配置
func Default() *Config {
	return &Config{
		ListenAddr: ":8080",
		Proto:      "tcp",
		TickRateHz: 30,
		TreeDir:    "",
		Targeting: TargetingConfig{
			UpdateHz:        30,
			VisibilityRange: 30,
		},
		Save: SaveConfig{
			Dir:        "saves",
			EveryTicks: 0,
			Slot:       "default",
		},
	}
}

// Load 读取配置文件并覆盖默认值。文件不存在时返回默认配置。
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("读取配置失败: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}
	cfg.clamp()
	return cfg, nil
}

// clamp 把越界值拉回合法区间
func (c *Config) clamp() {
	if c.Proto != "tcp" && c.Proto != "kcp" {
		c.Proto = "tcp"
	}
	if c.TickRateHz < 1 {
		c.TickRateHz = 1
	}
	if c.TickRateHz > 120 {
		c.TickRateHz = 120
	}
	if c.Targeting.UpdateHz < 15 {
		c.Targeting.UpdateHz = 15
	}
	if c.Targeting.UpdateHz > 60 {
		c.Targeting.UpdateHz = 60
	}
	if c.Targeting.VisibilityRange < 1 {
		c.Targeting.VisibilityRange = 1
	}
	if c.Targeting.VisibilityRange > 500 {
		c.Targeting.VisibilityRange = 500
	}
	if c.Save.EveryTicks < 0 {
		c.Save.EveryTicks = 0
	}
	if c.Save.Slot == "" {
		c.Save.Slot = "default"
	}
}
