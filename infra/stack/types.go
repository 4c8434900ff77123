package stack

import (
	"github.com/aws/aws-cdk-go/awscdk/v2"

	"vpcpeer/internal/config"
	"vpcpeer/internal/service/matrix"
)

// VpcPeeringStackProps はVpcPeeringStackのプロパティ
type VpcPeeringStackProps struct {
	awscdk.StackProps
	// Config はLambdaの環境変数として渡す設定
	Config config.Config
	// Pairs は作成するピアリングの組（接続元はすべてこのスタックのVPC）
	Pairs []matrix.Pair
	// SourceDir はLambdaをビルドするGoモジュールのルート（デフォルト: ".."）
	SourceDir string
	// ParameterPrefix が空でなければ、組ごとに接続IDをSSMパラメータに書き込む
	ParameterPrefix string
}
