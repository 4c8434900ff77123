package peering

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/sirupsen/logrus"

	awsx "vpcpeer/internal/aws"
	"vpcpeer/internal/config"
	"vpcpeer/internal/logging"
	"vpcpeer/internal/service/notify"
)

// Deps はピアリング操作が使うAWSクライアント群
type Deps struct {
	EC2        awsx.EC2API     // ローカルアカウント側
	STS        awsx.STSAPI     // ピア側ロールの引き受けに使う
	SSM        awsx.SSMAPI     // nil なら接続IDのパラメータ公開を行わない
	PeerEC2    awsx.EC2Factory // 一時認証情報からピア側EC2クライアントを作る
	BaseConfig aws.Config
	Events     *notify.EventPublisher
}

// Service はピアリング接続の作成・承認・削除を行う
type Service struct {
	cfg  config.Config
	deps Deps
	log  logrus.FieldLogger
	now  func() time.Time
}

// NewService はピアリング操作のサービスを作成
func NewService(cfg config.Config, deps Deps, logger logrus.FieldLogger) *Service {
	if deps.PeerEC2 == nil {
		deps.PeerEC2 = awsx.NewEC2FromConfig
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Service{cfg: cfg, deps: deps, log: logger, now: time.Now}
}

// normalize は省略可能な項目を補完し、必須項目を検証する
func (s *Service) normalize(req Request) (Request, error) {
	missing := []struct{ name, value string }{
		{"LocalVpcId", req.LocalVpcId},
		{"PeerVpcId", req.PeerVpcId},
		{"PeerRegion", req.PeerRegion},
		{"PeerRoleArn", req.PeerRoleArn},
	}
	for _, m := range missing {
		if m.value == "" {
			return req, fmt.Errorf("%s が指定されていません", m.name)
		}
	}

	if req.PeerOwnerId == "" {
		req.PeerOwnerId = awsx.AccountIDFromRoleArn(req.PeerRoleArn)
		if req.PeerOwnerId == "" {
			return req, fmt.Errorf("PeerOwnerId が指定されておらず、ロールARN %s からも取得できません", req.PeerRoleArn)
		}
	}
	if req.EnvName == "" {
		req.EnvName = s.cfg.Env
	}
	if req.Name == "" {
		req.Name = fmt.Sprintf("%s-to-%s", req.LocalVpcId, req.PeerVpcId)
	}
	return req, nil
}

// assumePeer はピア側ロールを引き受け、ピアリージョン向けのEC2クライアントを返す
func (s *Service) assumePeer(ctx context.Context, roleArn, region, name string) (awsx.EC2API, error) {
	return awsx.AssumeEC2(ctx, s.deps.STS, s.deps.PeerEC2, s.deps.BaseConfig, awsx.AssumeRoleInput{
		RoleArn:     roleArn,
		SessionName: s.cfg.SessionName(s.cfg.Env, name),
		Region:      region,
		Duration:    s.cfg.AssumeRoleDuration,
		ExternalId:  s.cfg.ExternalId,
	})
}

func (s *Service) publish(ctx context.Context, detailType string, event notify.LifecycleEvent) {
	if !s.deps.Events.Enabled() {
		return
	}
	event.Time = s.now().UTC()
	if err := s.deps.Events.Publish(ctx, detailType, event); err != nil {
		s.log.WithError(err).WithField(logging.FieldConnectionID, event.ConnectionId).Warn("ライフサイクルイベントの送信に失敗しました")
	}
}
