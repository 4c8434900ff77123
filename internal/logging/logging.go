// Package logging はハンドラとサービスで共有する logrus ロガーを組み立てる
package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"vpcpeer/internal/config"
)

// ログのフィールド名
const (
	FieldConnectionID = "connection_id"
	FieldRouteTableID = "route_table_id"
	FieldRequestType  = "request_type"
	FieldOutcome      = "outcome"
	FieldKind         = "kind"
	FieldPhysicalID   = "physical_resource_id"
)

// New は設定に従ってロガーを作成する（出力先は標準エラー）
func New(cfg config.Config) *logrus.Logger {
	return NewWithWriter(cfg, os.Stderr)
}

// NewWithWriter は出力先を指定してロガーを作成する
func NewWithWriter(cfg config.Config, w io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(w)

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.LogFormat == "text" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return logger
}

// Discard は何も出力しないロガーを返す（テスト用）
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
