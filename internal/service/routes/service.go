package routes

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/sirupsen/logrus"

	awsx "vpcpeer/internal/aws"
	"vpcpeer/internal/config"
	"vpcpeer/internal/logging"
	"vpcpeer/internal/service/common"
	"vpcpeer/internal/service/customresource"
	"vpcpeer/internal/service/notify"
)

// Deps はルート伝搬が使うAWSクライアント群
type Deps struct {
	EC2        awsx.EC2API // ローカルアカウント側（CIDRの参照のみ）
	STS        awsx.STSAPI
	PeerEC2    awsx.EC2Factory
	BaseConfig aws.Config
	State      *StateStore
	Events     *notify.EventPublisher
	Metrics    *notify.MetricsPublisher
}

// Service はピアVPCのルートテーブルへのルート追加・削除を行う
type Service struct {
	cfg  config.Config
	deps Deps
	log  logrus.FieldLogger
	now  func() time.Time
}

// NewService はルート伝搬のサービスを作成
func NewService(cfg config.Config, deps Deps, logger logrus.FieldLogger) *Service {
	if deps.PeerEC2 == nil {
		deps.PeerEC2 = awsx.NewEC2FromConfig
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Service{cfg: cfg, deps: deps, log: logger, now: time.Now}
}

// validatePeer はピア側の操作に必要な項目を検証する
func validatePeer(req Request) error {
	if !customresource.IsPeeringConnectionID(req.PeeringConnectionId) {
		return fmt.Errorf("PeeringConnectionId が不正です: %q", req.PeeringConnectionId)
	}
	missing := []struct{ name, value string }{
		{"PeerVpcId", req.PeerVpcId},
		{"PeerRegion", req.PeerRegion},
		{"PeerRoleArn", req.PeerRoleArn},
	}
	for _, m := range missing {
		if m.value == "" {
			return fmt.Errorf("%s が指定されていません", m.name)
		}
	}
	return nil
}

// resolveCidr は宛先CIDRを決める（未指定ならローカルVPCのCIDRを参照する）
func (s *Service) resolveCidr(ctx context.Context, req Request) (string, error) {
	cidr := req.DestinationCidr
	if cidr == "" {
		if req.LocalVpcId == "" {
			return "", fmt.Errorf("DestinationCidr と LocalVpcId のどちらかを指定してください")
		}
		if s.deps.EC2 == nil {
			return "", fmt.Errorf("VPC %s のCIDRを参照するクライアントがありません", req.LocalVpcId)
		}
		out, err := s.deps.EC2.DescribeVpcs(ctx, &ec2.DescribeVpcsInput{VpcIds: []string{req.LocalVpcId}})
		if err != nil {
			return "", fmt.Errorf(common.GetErrorFormat, common.ErrorIcon, "VPC "+req.LocalVpcId, err)
		}
		if len(out.Vpcs) == 0 || out.Vpcs[0].CidrBlock == nil {
			return "", fmt.Errorf("VPC %s のCIDRが見つかりません", req.LocalVpcId)
		}
		cidr = aws.ToString(out.Vpcs[0].CidrBlock)
	}

	_, network, err := net.ParseCIDR(cidr)
	if err != nil {
		return "", fmt.Errorf("宛先CIDRが不正です: %q", cidr)
	}
	// ルートは DestinationCidrBlock で作成するためIPv4のみ扱う
	if network.IP.To4() == nil {
		return "", fmt.Errorf("宛先CIDRはIPv4で指定してください: %q", cidr)
	}
	return network.String(), nil
}

func (s *Service) assumePeer(ctx context.Context, req Request) (awsx.EC2API, error) {
	return awsx.AssumeEC2(ctx, s.deps.STS, s.deps.PeerEC2, s.deps.BaseConfig, awsx.AssumeRoleInput{
		RoleArn:     req.PeerRoleArn,
		SessionName: s.cfg.SessionName(s.cfg.Env, "routes"),
		Region:      req.PeerRegion,
		Duration:    s.cfg.AssumeRoleDuration,
		ExternalId:  s.cfg.ExternalId,
	})
}

// listVpcRouteTables はVPCのルートテーブルをすべて取得する
func listVpcRouteTables(ctx context.Context, client awsx.EC2API, vpcID string) ([]types.RouteTable, error) {
	return describeRouteTables(ctx, client, []types.Filter{
		{Name: aws.String("vpc-id"), Values: []string{vpcID}},
	})
}

// listRecordedRouteTables は記録済みテーブルのうち現存するものを取得する
// IDで直接指定すると存在しないテーブルでエラーになるため、フィルタで絞り込む
func listRecordedRouteTables(ctx context.Context, client awsx.EC2API, vpcID string, tableIDs []string) ([]types.RouteTable, error) {
	return describeRouteTables(ctx, client, []types.Filter{
		{Name: aws.String("vpc-id"), Values: []string{vpcID}},
		{Name: aws.String("route-table-id"), Values: tableIDs},
	})
}

func describeRouteTables(ctx context.Context, client awsx.EC2API, filters []types.Filter) ([]types.RouteTable, error) {
	var tables []types.RouteTable
	paginator := ec2.NewDescribeRouteTablesPaginator(client, &ec2.DescribeRouteTablesInput{Filters: filters})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("ルートテーブル一覧の取得に失敗: %w", err)
		}
		tables = append(tables, page.RouteTables...)
	}
	return tables, nil
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

func (s *Service) putCounts(ctx context.Context, connectionID string, counts map[string]int) {
	if err := s.deps.Metrics.PutCounts(ctx, connectionID, counts); err != nil {
		s.log.WithError(err).WithField(logging.FieldConnectionID, connectionID).Warn("メトリクスの送信に失敗しました")
	}
}
