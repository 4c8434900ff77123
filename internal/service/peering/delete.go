package peering

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/aws-sdk-go-v2/service/ssm"

	awsx "vpcpeer/internal/aws"
	"vpcpeer/internal/logging"
	"vpcpeer/internal/service/common"
	"vpcpeer/internal/service/notify"
)

// 削除不要（既に存在しないものとして扱う）ステータス
var goneStatuses = map[types.VpcPeeringConnectionStateReasonCode]struct{}{
	types.VpcPeeringConnectionStateReasonCodeDeleting: {},
	types.VpcPeeringConnectionStateReasonCodeDeleted:  {},
	types.VpcPeeringConnectionStateReasonCodeRejected: {},
	types.VpcPeeringConnectionStateReasonCodeFailed:   {},
	types.VpcPeeringConnectionStateReasonCodeExpired:  {},
}

// Delete は指定IDのピアリング接続を削除する
// エラーは返さず、結果を CleanupResult で表す
func (s *Service) Delete(ctx context.Context, connectionID string) common.CleanupResult {
	resource := "ピアリング接続 " + connectionID

	out, err := s.deps.EC2.DescribeVpcPeeringConnections(ctx, &ec2.DescribeVpcPeeringConnectionsInput{
		VpcPeeringConnectionIds: []string{connectionID},
	})
	if err != nil {
		if awsx.HasErrorCode(err, awsx.CodePeeringNotFound, awsx.CodePeeringIdMalformed) {
			return common.AbsentResult(resource)
		}
		return common.FailedResult(resource, err)
	}
	if len(out.VpcPeeringConnections) == 0 {
		return common.AbsentResult(resource)
	}
	if conn := out.VpcPeeringConnections[0]; conn.Status != nil {
		if _, gone := goneStatuses[conn.Status.Code]; gone {
			return common.AbsentResult(resource)
		}
	}

	_, err = s.deps.EC2.DeleteVpcPeeringConnection(ctx, &ec2.DeleteVpcPeeringConnectionInput{
		VpcPeeringConnectionId: aws.String(connectionID),
	})
	if err != nil {
		if awsx.HasErrorCode(err, awsx.CodePeeringNotFound) {
			return common.AbsentResult(resource)
		}
		return common.FailedResult(resource, err)
	}
	return common.RemovedResult(resource)
}

// Remove は接続を削除し、付随するパラメータとイベントを後始末する
// 失敗はすべてログに記録するだけで呼び出し元には返さない
func (s *Service) Remove(ctx context.Context, connectionID, parameterName string) common.CleanupResult {
	log := s.log.WithField(logging.FieldConnectionID, connectionID)

	result := s.Delete(ctx, connectionID)
	entry := log.WithField(logging.FieldOutcome, result.Status.String())
	if result.Status == common.Failed {
		entry.WithError(result.Reason).Error("ピアリング接続の削除に失敗しました（削除は成功として扱います）")
	} else {
		entry.Info(result.String())
	}

	if parameterName != "" && s.deps.SSM != nil {
		_, err := s.deps.SSM.DeleteParameter(ctx, &ssm.DeleteParameterInput{Name: aws.String(parameterName)})
		if err != nil && !awsx.HasErrorCode(err, awsx.CodeParameterNotFound) {
			log.WithError(err).Warn("接続IDパラメータの削除に失敗しました")
		}
	}

	if result.Status == common.Removed {
		s.publish(ctx, notify.DetailTypePeeringDeleted, notify.LifecycleEvent{
			ConnectionId: connectionID,
			Env:          s.cfg.Env,
			Status:       string(types.VpcPeeringConnectionStateReasonCodeDeleted),
			RequestType:  "Delete",
		})
	}
	return result
}
