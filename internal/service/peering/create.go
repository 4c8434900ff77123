package peering

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/sirupsen/logrus"

	awsx "vpcpeer/internal/aws"
	"vpcpeer/internal/logging"
	"vpcpeer/internal/service/common"
	"vpcpeer/internal/service/notify"
)

// Create はローカル側でピアリング接続を作成し、ピア側ロールで承認する
// 接続作成後の失敗は PartialCreateError として接続IDとともに返す
func (s *Service) Create(ctx context.Context, req Request) (Connection, error) {
	req, err := s.normalize(req)
	if err != nil {
		return Connection{}, err
	}

	out, err := s.deps.EC2.CreateVpcPeeringConnection(ctx, &ec2.CreateVpcPeeringConnectionInput{
		VpcId:       aws.String(req.LocalVpcId),
		PeerVpcId:   aws.String(req.PeerVpcId),
		PeerOwnerId: aws.String(req.PeerOwnerId),
		PeerRegion:  aws.String(req.PeerRegion),
	})
	if err != nil {
		return Connection{}, fmt.Errorf(common.CreateErrorFormat, common.ErrorIcon, "ピアリング接続", err)
	}
	if out.VpcPeeringConnection == nil || out.VpcPeeringConnection.VpcPeeringConnectionId == nil {
		return Connection{}, fmt.Errorf("%s ピアリング接続の作成結果に接続IDが含まれていません", common.ErrorIcon)
	}
	id := aws.ToString(out.VpcPeeringConnection.VpcPeeringConnectionId)
	log := s.log.WithField(logging.FieldConnectionID, id)
	log.Info("ピアリング接続を作成しました")

	s.tag(ctx, log, id, req)

	peer, err := s.assumePeer(ctx, req.PeerRoleArn, req.PeerRegion, req.Name)
	if err != nil {
		return Connection{}, &PartialCreateError{ConnectionID: id, Step: StepAssume, Err: err}
	}

	accepted, err := peer.AcceptVpcPeeringConnection(ctx, &ec2.AcceptVpcPeeringConnectionInput{
		VpcPeeringConnectionId: aws.String(id),
	})
	if err != nil {
		return Connection{}, &PartialCreateError{ConnectionID: id, Step: StepAccept, Err: err}
	}
	conn := Connection{ConnectionId: id, StatusCode: statusCode(accepted.VpcPeeringConnection)}
	log.WithField(logging.FieldOutcome, conn.StatusCode).Info("ピア側でピアリング接続を承認しました")

	if req.AllowDnsResolution {
		if err := s.enableDNS(ctx, peer, id); err != nil {
			return conn, &PartialCreateError{ConnectionID: id, Step: StepDNS, Err: err}
		}
		log.Info("DNS解決オプションを有効化しました")
	}

	if req.ParameterName != "" {
		if err := s.putParameter(ctx, req.ParameterName, id); err != nil {
			log.WithError(err).Warn("接続IDのパラメータ登録に失敗しました")
		}
	}

	s.publish(ctx, notify.DetailTypePeeringCreated, notify.LifecycleEvent{
		ConnectionId: id,
		Name:         req.Name,
		Env:          req.EnvName,
		Status:       conn.StatusCode,
		RequestType:  "Create",
	})

	return conn, nil
}

// tag は接続に名前と管理用タグを付ける（失敗してもログのみ）
func (s *Service) tag(ctx context.Context, log logrus.FieldLogger, id string, req Request) {
	tags := []types.Tag{
		{Key: aws.String("Name"), Value: aws.String(req.Name)},
		{Key: aws.String("Env"), Value: aws.String(req.EnvName)},
		{Key: aws.String("LocalVpcId"), Value: aws.String(req.LocalVpcId)},
		{Key: aws.String("PeerVpcId"), Value: aws.String(req.PeerVpcId)},
	}
	if s.cfg.ManagedByTag != "" {
		tags = append(tags, types.Tag{Key: aws.String("ManagedBy"), Value: aws.String(s.cfg.ManagedByTag)})
	}

	_, err := s.deps.EC2.CreateTags(ctx, &ec2.CreateTagsInput{
		Resources: []string{id},
		Tags:      tags,
	})
	if err != nil {
		log.WithError(err).Warn("ピアリング接続へのタグ付けに失敗しました")
	}
}

// enableDNS は要求側と承認側の両方でリモートVPCのDNS解決を許可する
// 各オプションはそれぞれのアカウントの認証情報でしか変更できない
func (s *Service) enableDNS(ctx context.Context, peer awsx.EC2API, id string) error {
	_, err := s.deps.EC2.ModifyVpcPeeringConnectionOptions(ctx, &ec2.ModifyVpcPeeringConnectionOptionsInput{
		VpcPeeringConnectionId: aws.String(id),
		RequesterPeeringConnectionOptions: &types.PeeringConnectionOptionsRequest{
			AllowDnsResolutionFromRemoteVpc: aws.Bool(true),
		},
	})
	if err != nil {
		return fmt.Errorf("要求側のDNSオプション変更に失敗: %w", err)
	}

	_, err = peer.ModifyVpcPeeringConnectionOptions(ctx, &ec2.ModifyVpcPeeringConnectionOptionsInput{
		VpcPeeringConnectionId: aws.String(id),
		AccepterPeeringConnectionOptions: &types.PeeringConnectionOptionsRequest{
			AllowDnsResolutionFromRemoteVpc: aws.Bool(true),
		},
	})
	if err != nil {
		return fmt.Errorf("承認側のDNSオプション変更に失敗: %w", err)
	}
	return nil
}

func (s *Service) putParameter(ctx context.Context, name, id string) error {
	if s.deps.SSM == nil {
		return nil
	}
	_, err := s.deps.SSM.PutParameter(ctx, &ssm.PutParameterInput{
		Name:      aws.String(name),
		Value:     aws.String(id),
		Type:      ssmtypes.ParameterTypeString,
		Overwrite: aws.Bool(true),
	})
	return err
}

func statusCode(conn *types.VpcPeeringConnection) string {
	if conn == nil || conn.Status == nil {
		return ""
	}
	return string(conn.Status.Code)
}
