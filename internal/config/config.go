package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// AppConfig 应用配置
type AppConfig struct {
	Server   ServerConfig        `toml:"server"`
	Data     DataConfig          `toml:"data"`
	Goals    GoalsConfig         `toml:"goals"`
	Analysis AnalysisConfig      `toml:"analysis"`
	Columns  ColumnsConfig       `toml:"columns"`
	Holidays map[string][]string `toml:"holidays"` // 年份 -> ["2006-01-02", ...]
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port        int  `toml:"port"`
	DevMode     bool `toml:"dev_mode"`
	MaxSessions int  `toml:"max_sessions"`
	MaxUploadMB int  `toml:"max_upload_mb"`
}

// DataConfig 数据配置
type DataConfig struct {
	DataDir string `toml:"data_dir"`
}

// GoalsConfig 目标配置
type GoalsConfig struct {
	Daily        float64 `toml:"daily"`
	Weekly       float64 `toml:"weekly"`
	WorkdayHours float64 `toml:"workday_hours"` // 加班小时换算目标时使用
}

// AnalysisConfig 分析阈值
type AnalysisConfig struct {
	TrendWindow           int     `toml:"trend_window"`
	TrendThreshold        float64 `toml:"trend_threshold"`
	ForecastWindow        int     `toml:"forecast_window"`
	DropWindow            int     `toml:"drop_window"`
	OscillationMinWeeks   int     `toml:"oscillation_min_weeks"`
	OscillationMinChanges int     `toml:"oscillation_min_changes"`
	LowSuccessRate        float64 `toml:"low_success_rate"`
	TopN                  int     `toml:"top_n"`
}

// ColumnsConfig 列识别关键词（匹配前统一去重音、转小写）
type ColumnsConfig struct {
	PreferredSheet string   `toml:"preferred_sheet"`
	Date           []string `toml:"date"`
	Supervisor     []string `toml:"supervisor"`
	Technician     []string `toml:"technician"`
	Score          []string `toml:"score"`
	Protocol       []string `toml:"protocol"`
	Neighborhood   []string `toml:"neighborhood"`
}

// LoadConfigInfo 配置加载元信息
type LoadConfigInfo struct {
	Path          string
	FromFile      bool
	PortSpecified bool
}

// DefaultConfig 默认配置
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:        20262,
			DevMode:     false,
			MaxSessions: 32,
			MaxUploadMB: 20,
		},
		Data: DataConfig{
			DataDir: "data",
		},
		Goals: GoalsConfig{
			Daily:        8,
			Weekly:       40,
			WorkdayHours: 8,
		},
		Analysis: AnalysisConfig{
			TrendWindow:           4,
			TrendThreshold:        0.5,
			ForecastWindow:        3,
			DropWindow:            3,
			OscillationMinWeeks:   4,
			OscillationMinChanges: 3,
			LowSuccessRate:        0.3,
			TopN:                  15,
		},
		Columns: ColumnsConfig{
			PreferredSheet: "1. analitico",
			Date:           []string{"data fechamento", "date", "data"},
			Supervisor:     []string{"supervisor", "coordenador", "lider"},
			Technician:     []string{"colaborador", "tecnico", "technician", "nome"},
			Score:          []string{"produtiv", "pontuacao", "score", "qtd"},
			Protocol:       []string{"protocolo", "protocol"},
			Neighborhood:   []string{"bairro", "neighborhood"},
		},
		Holidays: map[string][]string{
			"2024": {
				"2024-01-01", "2024-02-12", "2024-02-13", "2024-03-29",
				"2024-05-01", "2024-09-07", "2024-10-12", "2024-11-02",
				"2024-11-15", "2024-12-25",
			},
			"2025": {
				"2025-01-01", "2025-02-12", "2025-02-13", "2025-03-29",
				"2025-05-01", "2025-09-07", "2025-10-12", "2025-11-02",
				"2025-11-15", "2025-12-25",
			},
		},
	}
}

// HolidayDates 解析节假日列表（按日期升序）
func (c *AppConfig) HolidayDates() ([]time.Time, error) {
	var out []time.Time
	for year, dates := range c.Holidays {
		for _, d := range dates {
			t, err := time.Parse("2006-01-02", d)
			if err != nil {
				return nil, fmt.Errorf("invalid holiday %q for year %s: %w", d, year, err)
			}
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out, nil
}

// Validate 校验配置取值
func (c *AppConfig) Validate() error {
	if c.Goals.Daily < 0 || c.Goals.Weekly < 0 {
		return fmt.Errorf("goals must be non-negative")
	}
	if c.Analysis.TrendWindow < 2 {
		return fmt.Errorf("analysis.trend_window must be at least 2, got %d", c.Analysis.TrendWindow)
	}
	if c.Analysis.ForecastWindow < 1 {
		return fmt.Errorf("analysis.forecast_window must be at least 1, got %d", c.Analysis.ForecastWindow)
	}
	if c.Analysis.LowSuccessRate < 0 || c.Analysis.LowSuccessRate > 1 {
		return fmt.Errorf("analysis.low_success_rate must be within [0,1], got %v", c.Analysis.LowSuccessRate)
	}
	if _, err := c.HolidayDates(); err != nil {
		return err
	}
	return nil
}

func isPortSpecifiedInToml(data []byte) bool {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return false
	}

	serverAny, ok := raw["server"]
	if !ok {
		return false
	}

	serverMap, ok := serverAny.(map[string]any)
	if !ok {
		return false
	}

	_, ok = serverMap["port"]
	return ok
}

// GetExeDir 获取可执行文件所在目录
func GetExeDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Dir(exe), nil
}

// DefaultConfigPath 默认配置文件路径（可执行文件同目录下的 config.toml）
func DefaultConfigPath() string {
	exeDir, err := GetExeDir()
	if err != nil {
		exeDir = "."
	}
	return filepath.Join(exeDir, "config.toml")
}

// LoadConfigWithInfo 从 config.toml 加载配置并返回元信息
func LoadConfigWithInfo() (*AppConfig, LoadConfigInfo, error) {
	return LoadConfigFrom(DefaultConfigPath())
}

// LoadConfigFrom 从指定路径加载配置；文件不存在时使用默认配置
func LoadConfigFrom(configPath string) (*AppConfig, LoadConfigInfo, error) {
	info := LoadConfigInfo{Path: configPath}
	config := DefaultConfig()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnvOverrides(config, &info)
			return config, info, nil
		}
		return nil, info, fmt.Errorf("read config %s: %w", configPath, err)
	}

	info.FromFile = true
	info.PortSpecified = isPortSpecifiedInToml(data)

	if err := toml.Unmarshal(data, config); err != nil {
		return nil, info, fmt.Errorf("decode config %s: %w", configPath, err)
	}

	applyEnvOverrides(config, &info)

	if err := config.Validate(); err != nil {
		return nil, info, err
	}

	return config, info, nil
}

// 环境变量覆盖（用于容器 / 本地运行）
func applyEnvOverrides(config *AppConfig, info *LoadConfigInfo) {
	if v := os.Getenv("FIELDPULSE_DATA_DIR"); v != "" {
		config.Data.DataDir = v
	}
	if v := os.Getenv("FIELDPULSE_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 {
			config.Server.Port = port
			info.PortSpecified = true
		}
	}
}

// LoadConfig 从 config.toml 加载配置
func LoadConfig() (*AppConfig, error) {
	config, _, err := LoadConfigWithInfo()
	return config, err
}

// SaveConfig 保存配置到指定路径
func SaveConfig(config *AppConfig, configPath string) error {
	data, err := toml.Marshal(config)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	return os.WriteFile(configPath, data, 0644)
}

// resolveDataDir 数据目录：绝对路径原样使用，相对路径基于可执行文件目录
func resolveDataDir(config *AppConfig) string {
	if filepath.IsAbs(config.Data.DataDir) {
		return config.Data.DataDir
	}
	exeDir, err := GetExeDir()
	if err != nil {
		exeDir = "."
	}
	return filepath.Join(exeDir, config.Data.DataDir)
}

// EnsureDataDir 确保数据目录存在
func EnsureDataDir(config *AppConfig) (string, error) {
	dataDir := resolveDataDir(config)

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", err
	}

	subdirs := []string{"exports"}
	for _, subdir := range subdirs {
		path := filepath.Join(dataDir, subdir)
		if err := os.MkdirAll(path, 0755); err != nil {
			return "", err
		}
	}

	return dataDir, nil
}

// GetDataPath 获取数据文件路径
func GetDataPath(config *AppConfig, subdir, filename string) string {
	return filepath.Join(resolveDataDir(config), subdir, filename)
}
