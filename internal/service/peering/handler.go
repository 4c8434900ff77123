package peering

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/sirupsen/logrus"

	"vpcpeer/internal/logging"
	"vpcpeer/internal/service/customresource"
)

// Handler は Custom::VpcPeering のカスタムリソースハンドラー
type Handler struct {
	svc *Service
	log logrus.FieldLogger
}

var _ customresource.Handler = (*Handler)(nil)

// NewHandler はサービスをカスタムリソースハンドラーとして包む
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc, log: svc.log}
}

func (h *Handler) Kind() customresource.Kind {
	return customresource.KindPeering
}

// Create は接続を作成・承認し、接続IDを物理リソースIDとして返す
func (h *Handler) Create(ctx context.Context, req customresource.Request) (customresource.Response, error) {
	var props Request
	if err := customresource.DecodeProperties(req.Properties, &props); err != nil {
		return customresource.Response{}, err
	}

	conn, err := h.svc.Create(ctx, props)
	if err != nil {
		return customresource.Response{}, err
	}

	return customresource.Response{
		PhysicalResourceId: customresource.PeeringIdentity(conn.ConnectionId).String(),
		Data:               connectionData(conn),
	}, nil
}

// Update は何も変更せず既存の識別子を返す
// 接続はVPCの組み合わせに固定されるため、プロパティの差分は記録するだけにとどめる
func (h *Handler) Update(ctx context.Context, req customresource.Request) (customresource.Response, error) {
	id := req.Identity.String()
	log := h.log.WithField(logging.FieldConnectionID, id)
	if changed := customresource.ChangedProperties(req.OldProperties, req.Properties); len(changed) > 0 {
		log.WithField("changed", changed).Warn("ピアリング接続のプロパティ変更は反映されません")
	}

	conn := Connection{ConnectionId: id}
	out, err := h.svc.deps.EC2.DescribeVpcPeeringConnections(ctx, &ec2.DescribeVpcPeeringConnectionsInput{
		VpcPeeringConnectionIds: []string{id},
	})
	if err != nil {
		log.WithError(err).Warn("ピアリング接続の状態取得に失敗しました")
	} else if len(out.VpcPeeringConnections) > 0 {
		conn.StatusCode = statusCode(&out.VpcPeeringConnections[0])
	}

	return customresource.Response{
		PhysicalResourceId: id,
		Data:               connectionData(conn),
	}, nil
}

// Delete は接続を削除する（失敗してもスタック削除を止めない）
func (h *Handler) Delete(ctx context.Context, req customresource.Request) (customresource.Response, error) {
	var props Request
	if err := customresource.DecodeProperties(req.Properties, &props); err != nil {
		h.log.WithError(err).Warn("プロパティを解析できないためパラメータの削除は行いません")
	}

	h.svc.Remove(ctx, req.Identity.String(), props.ParameterName)
	return customresource.Response{PhysicalResourceId: req.PhysicalID}, nil
}

func connectionData(conn Connection) map[string]interface{} {
	data := map[string]interface{}{
		"PeeringConnectionId": conn.ConnectionId,
	}
	if conn.StatusCode != "" {
		data["Status"] = conn.StatusCode
	}
	return data
}
