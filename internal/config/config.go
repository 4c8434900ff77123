// Package config はプロセス起動時に一度だけ組み立てる設定オブジェクトを提供する
// ハンドラやスタックはこの設定を受け取り、環境変数を直接読まない
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix は設定を読み込む環境変数の接頭辞
const EnvPrefix = "VPCPEER"

// 応答モード
const (
	ResponseModeProvider = "provider" // CDK Provider フレームワーク経由
	ResponseModeDirect   = "direct"   // ResponseURL に直接応答
)

// Config はvpcpeer全体の設定
type Config struct {
	Region  string `mapstructure:"region"`
	Profile string `mapstructure:"profile"`
	Env     string `mapstructure:"env"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	ResponseMode string `mapstructure:"response_mode"`

	SessionNamePrefix  string        `mapstructure:"session_name_prefix"`
	AssumeRoleDuration time.Duration `mapstructure:"assume_role_duration"`
	ExternalId         string        `mapstructure:"external_id"`

	// ルートを書き込んだテーブル一覧の記録先（空なら記録しない）
	RouteStatePrefix string `mapstructure:"route_state_prefix"`

	EventBusName     string `mapstructure:"event_bus_name"`
	EventSource      string `mapstructure:"event_source"`
	MetricsNamespace string `mapstructure:"metrics_namespace"`
	ManagedByTag     string `mapstructure:"managed_by_tag"`
}

// Default はデフォルト値を設定した Config を返す
func Default() Config {
	return Config{
		Env:                "dev",
		LogLevel:           "info",
		LogFormat:          "json",
		ResponseMode:       ResponseModeProvider,
		SessionNamePrefix:  "vpcpeer",
		AssumeRoleDuration: time.Hour,
		RouteStatePrefix:   "/vpcpeer/route-state",
		EventSource:        "vpcpeer",
		ManagedByTag:       "vpcpeer",
	}
}

// NewViper はデフォルト値と環境変数の対応付けを済ませた viper インスタンスを返す
func NewViper() *viper.Viper {
	v := viper.New()
	d := Default()
	v.SetDefault("region", d.Region)
	v.SetDefault("profile", d.Profile)
	v.SetDefault("env", d.Env)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_format", d.LogFormat)
	v.SetDefault("response_mode", d.ResponseMode)
	v.SetDefault("session_name_prefix", d.SessionNamePrefix)
	v.SetDefault("assume_role_duration", d.AssumeRoleDuration)
	v.SetDefault("external_id", d.ExternalId)
	v.SetDefault("route_state_prefix", d.RouteStatePrefix)
	v.SetDefault("event_bus_name", d.EventBusName)
	v.SetDefault("event_source", d.EventSource)
	v.SetDefault("metrics_namespace", d.MetricsNamespace)
	v.SetDefault("managed_by_tag", d.ManagedByTag)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	return v
}

// Load は viper から設定を読み込み検証する
// configFile が空でなければ先にファイルを読み込む
func Load(v *viper.Viper, configFile string) (Config, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("設定ファイル %s の読み込みに失敗: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("設定の解析に失敗: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// FromEnv は環境変数だけから設定を読み込む（Lambdaの起動時用）
func FromEnv() (Config, error) {
	return Load(NewViper(), "")
}

// SessionName はロール引き受けに使うセッション名を組み立てる
func (c Config) SessionName(parts ...string) string {
	names := []string{c.SessionNamePrefix}
	for _, p := range parts {
		if p != "" {
			names = append(names, p)
		}
	}
	return strings.Join(names, "-")
}
