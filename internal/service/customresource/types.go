package customresource

import (
	"context"

	"github.com/aws/aws-lambda-go/cfn"
)

// Kind はカスタムリソースの種類
type Kind string

const (
	// KindPeering はVPCピアリング接続（作成と承認）
	KindPeering Kind = "peering"
	// KindRoutes はピア側ルートテーブルへのルート伝搬
	KindRoutes Kind = "routes"
)

// CloudFormation上のリソースタイプ名
const (
	ResourceTypePeering = "Custom::VpcPeering"
	ResourceTypeRoutes  = "Custom::VpcPeeringRoutes"
)

// Identity は呼び出しをまたいで受け渡す唯一の状態（物理リソースID）を種類付きで表す
type Identity struct {
	Kind Kind
	ID   string
}

// Request はハンドラに渡すライフサイクル要求
type Request struct {
	Type              cfn.RequestType
	Identity          Identity // Update/Delete のみ
	PhysicalID        string   // 受け取った物理リソースIDそのもの
	Properties        map[string]interface{}
	OldProperties     map[string]interface{}
	RequestID         string
	LogicalResourceID string
	StackID           string
	ResourceType      string
}

// Response はハンドラが返す結果
// エラーを返した場合は失敗として扱われる
type Response struct {
	PhysicalResourceId string                 `json:"PhysicalResourceId"`
	Data               map[string]interface{} `json:"Data,omitempty"`
}

// Handler はカスタムリソースの各ライフサイクルを処理する
type Handler interface {
	Kind() Kind
	Create(ctx context.Context, req Request) (Response, error)
	Update(ctx context.Context, req Request) (Response, error)
	Delete(ctx context.Context, req Request) (Response, error)
}
