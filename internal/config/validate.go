package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	minAssumeRoleDuration = 15 * time.Minute
	// Lambda実行ロールからの引き受けはロールの連鎖になり、STSが1時間に制限する
	maxAssumeRoleDuration = time.Hour
)

// Validate は設定値の整合性を検証する
func (c Config) Validate() error {
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("無効なlog_level: %s", c.LogLevel)
	}

	switch c.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("無効なlog_format: %s (有効な値: json, text)", c.LogFormat)
	}

	switch c.ResponseMode {
	case ResponseModeProvider, ResponseModeDirect:
	default:
		return fmt.Errorf("無効なresponse_mode: %s (有効な値: %s, %s)", c.ResponseMode, ResponseModeProvider, ResponseModeDirect)
	}

	if c.AssumeRoleDuration != 0 &&
		(c.AssumeRoleDuration < minAssumeRoleDuration || c.AssumeRoleDuration > maxAssumeRoleDuration) {
		return fmt.Errorf("assume_role_duration は %s から %s の間で指定してください: %s",
			minAssumeRoleDuration, maxAssumeRoleDuration, c.AssumeRoleDuration)
	}

	if c.RouteStatePrefix != "" && !strings.HasPrefix(c.RouteStatePrefix, "/") {
		return fmt.Errorf("route_state_prefix は / で始まる必要があります: %s", c.RouteStatePrefix)
	}

	if c.SessionNamePrefix == "" {
		return fmt.Errorf("session_name_prefix が空です")
	}

	return nil
}
