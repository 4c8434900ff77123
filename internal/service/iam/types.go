package iam

import (
	"time"

	awsx "vpcpeer/internal/aws"
)

// PreflightInput はピア側ロールの事前確認に使う入力
type PreflightInput struct {
	Role awsx.AssumeRoleInput
}

// PreflightResult はロールを引き受けられたことと、ロールの信頼関係の情報
type PreflightResult struct {
	RoleArn            string
	RoleName           string
	Region             string
	Expiration         time.Time
	MaxSessionDuration time.Duration
	TrustedPrincipals  []string
	LastUsed           *time.Time
	// ロール情報の取得に失敗した理由（引き受け自体は成功している）
	DescribeError error
}
