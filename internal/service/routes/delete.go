package routes

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/sirupsen/logrus"

	awsx "vpcpeer/internal/aws"
	"vpcpeer/internal/logging"
	"vpcpeer/internal/service/common"
	"vpcpeer/internal/service/notify"
)

// Remove は宛先CIDRからピアリング接続へのルートをピアVPCから削除する
// 対象は作成時に記録したテーブル集合で、記録がなければVPCのテーブルを列挙し直す
// 失敗はすべて結果に含めて返し、エラーにはしない
func (s *Service) Remove(ctx context.Context, req Request, connectionID, cidr string) []common.CleanupResult {
	req.PeeringConnectionId = connectionID
	log := s.log.WithFields(logrus.Fields{
		logging.FieldConnectionID: connectionID,
		"destination_cidr":        cidr,
	})

	if err := validatePeer(req); err != nil {
		log.WithError(err).Error("ピア側の情報が不足しているためルートを削除できません")
		return []common.CleanupResult{common.FailedResult("ルート "+cidr, err)}
	}

	peer, err := s.assumePeer(ctx, req)
	if err != nil {
		log.WithError(err).Error("ピア側ロールを引き受けられないためルートを削除できません")
		return []common.CleanupResult{common.FailedResult("ルート "+cidr, err)}
	}

	recorded, found, err := s.deps.State.Load(ctx, connectionID, cidr)
	if err != nil {
		log.WithError(err).Warn("ルート記録を読み込めないためテーブルを列挙し直します")
	}

	var tables []types.RouteTable
	var results []common.CleanupResult
	switch {
	case found && len(recorded) == 0:
	case found:
		tables, err = listRecordedRouteTables(ctx, peer, req.PeerVpcId, recorded)
	default:
		tables, err = listVpcRouteTables(ctx, peer, req.PeerVpcId)
	}
	if err != nil {
		log.WithError(err).Error("ルートテーブルを取得できないためルートを削除できません")
		return []common.CleanupResult{common.FailedResult("ルート "+cidr, err)}
	}
	if found {
		results = missingTables(recorded, tables)
	}

	for _, table := range tables {
		result := s.deleteRoute(ctx, peer, table, cidr, connectionID)
		results = append(results, result)

		entry := log.WithFields(logrus.Fields{
			logging.FieldRouteTableID: aws.ToString(table.RouteTableId),
			logging.FieldOutcome:      result.Status.String(),
		})
		if result.Status == common.Failed {
			entry.WithError(result.Reason).Error("ルートの削除に失敗しました（削除は成功として扱います）")
		} else {
			entry.Info(result.String())
		}
	}

	removed, failed := countCleanup(results)
	if failed == 0 {
		if err := s.deps.State.Delete(ctx, connectionID, cidr); err != nil {
			log.WithError(err).Warn("ルート記録の削除に失敗しました")
		}
	}

	s.putCounts(ctx, connectionID, map[string]int{notify.MetricRouteTablesRemoved: removed})
	s.publish(ctx, notify.DetailTypeRoutesRemoved, notify.LifecycleEvent{
		ConnectionId: connectionID,
		Env:          s.cfg.Env,
		RequestType:  "Delete",
		RouteTables:  removed,
		Failed:       failed,
	})
	return results
}

// deleteRoute はテーブルから、このピアリング接続を向いた宛先CIDRのルートだけを削除する
func (s *Service) deleteRoute(ctx context.Context, client awsx.EC2API, table types.RouteTable, cidr, connectionID string) common.CleanupResult {
	tableID := aws.ToString(table.RouteTableId)
	resource := fmt.Sprintf("%s のルート %s", tableID, cidr)

	if !hasPeeringRoute(table, cidr, connectionID) {
		return common.AbsentResult(resource)
	}

	_, err := client.DeleteRoute(ctx, &ec2.DeleteRouteInput{
		RouteTableId:         aws.String(tableID),
		DestinationCidrBlock: aws.String(cidr),
	})
	if err != nil {
		if awsx.HasErrorCode(err, awsx.CodeRouteNotFound, awsx.CodeRouteTableNotFound) {
			return common.AbsentResult(resource)
		}
		return common.FailedResult(resource, err)
	}
	return common.RemovedResult(resource)
}

// hasPeeringRoute はテーブルに宛先CIDRかつ接続を向いたルートがあるかを判定する
func hasPeeringRoute(table types.RouteTable, cidr, connectionID string) bool {
	for _, r := range table.Routes {
		if aws.ToString(r.DestinationCidrBlock) == cidr && aws.ToString(r.VpcPeeringConnectionId) == connectionID {
			return true
		}
	}
	return false
}

// missingTables は記録にあるが既に存在しないテーブルを AlreadyAbsent として返す
func missingTables(recorded []string, found []types.RouteTable) []common.CleanupResult {
	exists := make(map[string]struct{}, len(found))
	for _, t := range found {
		exists[aws.ToString(t.RouteTableId)] = struct{}{}
	}
	var results []common.CleanupResult
	for _, id := range recorded {
		if _, ok := exists[id]; !ok {
			results = append(results, common.AbsentResult(id))
		}
	}
	return results
}

func countCleanup(results []common.CleanupResult) (removed, failed int) {
	for _, r := range results {
		switch r.Status {
		case common.Removed:
			removed++
		case common.Failed:
			failed++
		}
	}
	return removed, failed
}
