package customresource

import (
	"context"
	"fmt"

	"github.com/aws/aws-lambda-go/cfn"
	"github.com/sirupsen/logrus"

	"vpcpeer/internal/logging"
)

// NewRequest はLambdaイベントからハンドラ向けの要求を組み立てる
func NewRequest(event cfn.Event) Request {
	return Request{
		Type:              event.RequestType,
		PhysicalID:        event.PhysicalResourceID,
		Properties:        event.ResourceProperties,
		OldProperties:     event.OldResourceProperties,
		RequestID:         event.RequestID,
		LogicalResourceID: event.LogicalResourceID,
		StackID:           event.StackID,
		ResourceType:      event.ResourceType,
	}
}

// Dispatch は要求種別に応じてハンドラの各処理を呼び出す
func Dispatch(ctx context.Context, h Handler, req Request, logger logrus.FieldLogger) (Response, error) {
	log := logger.WithFields(logrus.Fields{
		logging.FieldRequestType: string(req.Type),
		logging.FieldKind:        string(h.Kind()),
		logging.FieldPhysicalID:  req.PhysicalID,
	})

	switch req.Type {
	case cfn.RequestCreate:
		log.Info("作成要求を処理します")
		return h.Create(ctx, req)

	case cfn.RequestUpdate:
		id, err := ParseIdentity(h.Kind(), req.PhysicalID)
		if err != nil {
			return Response{}, fmt.Errorf("更新対象の識別子が不正です: %w", err)
		}
		req.Identity = id
		log.Info("更新要求を処理します")
		return h.Update(ctx, req)

	case cfn.RequestDelete:
		id, err := ParseIdentity(h.Kind(), req.PhysicalID)
		if err != nil {
			// 作成に失敗したリソースには実体がないため、何もせず成功とする
			log.WithError(err).Warn("識別子を解析できないため削除対象なしとして扱います")
			return Response{PhysicalResourceId: req.PhysicalID}, nil
		}
		req.Identity = id
		log.Info("削除要求を処理します")
		return h.Delete(ctx, req)

	default:
		return Response{}, fmt.Errorf("未知の要求種別です: %q", req.Type)
	}
}

// ProviderFunc はCDK Providerフレームワークから呼ばれるLambdaハンドラを返す
func ProviderFunc(h Handler, logger logrus.FieldLogger) func(context.Context, cfn.Event) (Response, error) {
	return func(ctx context.Context, event cfn.Event) (Response, error) {
		resp, err := Dispatch(ctx, h, NewRequest(event), logger)
		if err != nil {
			logger.WithError(err).WithField(logging.FieldRequestType, string(event.RequestType)).Error("カスタムリソースの処理に失敗しました")
			return Response{}, err
		}
		return resp, nil
	}
}

// DirectFunc はCloudFormationから直接呼ばれる場合のハンドラを返す
// cfn.LambdaWrap で包むと ResponseURL への応答送信まで行われる
func DirectFunc(h Handler, logger logrus.FieldLogger) cfn.CustomResourceFunction {
	return func(ctx context.Context, event cfn.Event) (string, map[string]interface{}, error) {
		resp, err := Dispatch(ctx, h, NewRequest(event), logger)
		if err != nil {
			logger.WithError(err).WithField(logging.FieldRequestType, string(event.RequestType)).Error("カスタムリソースの処理に失敗しました")
			return event.PhysicalResourceID, nil, err
		}
		return resp.PhysicalResourceId, resp.Data, nil
	}
}
