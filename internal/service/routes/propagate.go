package routes

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/sirupsen/logrus"

	awsx "vpcpeer/internal/aws"
	"vpcpeer/internal/logging"
	"vpcpeer/internal/service/notify"
)

// Apply はピアVPCのすべてのルートテーブルに、宛先CIDRからピアリング接続へのルートを追加する
// テーブル単位の失敗は記録して処理を続け、ロール引き受けや一覧取得の失敗のみエラーを返す
func (s *Service) Apply(ctx context.Context, req Request, observer Observer) (Report, error) {
	if err := validatePeer(req); err != nil {
		return Report{}, err
	}
	cidr, err := s.resolveCidr(ctx, req)
	if err != nil {
		return Report{}, err
	}

	report := Report{ConnectionId: req.PeeringConnectionId, DestinationCidr: cidr}
	log := s.log.WithFields(logrus.Fields{
		logging.FieldConnectionID: req.PeeringConnectionId,
		"destination_cidr":        cidr,
	})

	peer, err := s.assumePeer(ctx, req)
	if err != nil {
		return report, err
	}

	tables, err := listVpcRouteTables(ctx, peer, req.PeerVpcId)
	if err != nil {
		return report, err
	}
	log.WithField("route_tables", len(tables)).Info("ピアVPCのルートテーブルにルートを追加します")

	for i, table := range tables {
		outcome := s.createRoute(ctx, peer, aws.ToString(table.RouteTableId), cidr, req.PeeringConnectionId)
		report.Outcomes = append(report.Outcomes, outcome)

		entry := log.WithFields(logrus.Fields{
			logging.FieldRouteTableID: outcome.RouteTableId,
			logging.FieldOutcome:      outcome.Outcome.String(),
		})
		if outcome.Outcome == Failed {
			entry.WithError(outcome.Reason).Error("ルートの追加に失敗しました")
		} else {
			entry.Debug("ルートを確認しました")
		}
		if observer != nil {
			observer(i+1, len(tables), outcome)
		}
	}

	if err := s.deps.State.Merge(ctx, req.PeeringConnectionId, cidr, report.SucceededTables()); err != nil {
		log.WithError(err).Warn("ルート記録の保存に失敗しました")
	}

	counts := map[string]int{notify.MetricRouteTablesUpdated: report.Succeeded()}
	if failed := report.Count(Failed); failed > 0 {
		counts[notify.MetricRouteTablesFailed] = failed
	}
	s.putCounts(ctx, req.PeeringConnectionId, counts)

	s.publish(ctx, notify.DetailTypeRoutesUpdated, notify.LifecycleEvent{
		ConnectionId: req.PeeringConnectionId,
		Env:          s.cfg.Env,
		RouteTables:  report.Succeeded(),
		Failed:       report.Count(Failed),
	})

	log.WithFields(logrus.Fields{
		"created":         report.Count(Created),
		"already_present": report.Count(AlreadyPresent),
		"failed":          report.Count(Failed),
	}).Info("ルート伝搬が完了しました")
	return report, nil
}

// createRoute は1つのテーブルにルートを追加する（既存なら成功扱い）
func (s *Service) createRoute(ctx context.Context, client awsx.EC2API, tableID, cidr, connectionID string) TableOutcome {
	_, err := client.CreateRoute(ctx, &ec2.CreateRouteInput{
		RouteTableId:           aws.String(tableID),
		DestinationCidrBlock:   aws.String(cidr),
		VpcPeeringConnectionId: aws.String(connectionID),
	})
	switch {
	case err == nil:
		return TableOutcome{RouteTableId: tableID, Outcome: Created}
	case awsx.HasErrorCode(err, awsx.CodeRouteAlreadyExists):
		return TableOutcome{RouteTableId: tableID, Outcome: AlreadyPresent}
	default:
		return TableOutcome{RouteTableId: tableID, Outcome: Failed, Reason: err}
	}
}
