package routes

import (
	"context"

	"github.com/sirupsen/logrus"

	"vpcpeer/internal/logging"
	"vpcpeer/internal/service/customresource"
)

// Handler は Custom::VpcPeeringRoutes のカスタムリソースハンドラー
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
	return customresource.KindRoutes
}

func (h *Handler) Create(ctx context.Context, req customresource.Request) (customresource.Response, error) {
	return h.apply(ctx, req)
}

// Update は新しいプロパティでルートを追加し直す
// 接続IDかCIDRが変わると識別子も変わり、古い識別子には後から Delete が届く
func (h *Handler) Update(ctx context.Context, req customresource.Request) (customresource.Response, error) {
	return h.apply(ctx, req)
}

func (h *Handler) Delete(ctx context.Context, req customresource.Request) (customresource.Response, error) {
	connectionID, cidr, err := req.Identity.RouteKey()
	if err != nil {
		h.log.WithError(err).Warn("識別子を解析できないため削除対象なしとして扱います")
		return customresource.Response{PhysicalResourceId: req.PhysicalID}, nil
	}

	var props Request
	if err := customresource.DecodeProperties(req.Properties, &props); err != nil {
		h.log.WithError(err).WithField(logging.FieldConnectionID, connectionID).Error("プロパティを解析できないためルートを削除できません")
		return customresource.Response{PhysicalResourceId: req.PhysicalID}, nil
	}

	h.svc.Remove(ctx, props, connectionID, cidr)
	return customresource.Response{PhysicalResourceId: req.PhysicalID}, nil
}

func (h *Handler) apply(ctx context.Context, req customresource.Request) (customresource.Response, error) {
	var props Request
	if err := customresource.DecodeProperties(req.Properties, &props); err != nil {
		return customresource.Response{}, err
	}

	report, err := h.svc.Apply(ctx, props, nil)
	if err != nil {
		return customresource.Response{}, err
	}

	data := map[string]interface{}{
		"RouteTablesUpdated": report.Succeeded(),
	}
	if failed := report.Count(Failed); failed > 0 {
		data["RouteTablesFailed"] = failed
	}
	return customresource.Response{
		PhysicalResourceId: customresource.RoutesIdentity(report.ConnectionId, report.DestinationCidr).String(),
		Data:               data,
	}, nil
}
