package cmd

import (
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"

	awsx "vpcpeer/internal/aws"
	"vpcpeer/internal/service/notify"
	"vpcpeer/internal/service/peering"
	"vpcpeer/internal/service/routes"
)

// resolveStackName はコマンドライン引数または環境変数からスタック名を決定し、グローバル変数 stackName にセットする
func resolveStackName() {
	if stackName != "" {
		fmt.Println("🔍 -Sオプションで指定されたスタック名 '" + stackName + "' を使用します")
		return
	}
	envStack := os.Getenv("AWS_STACK_NAME")
	if envStack != "" {
		fmt.Println("🔍 環境変数 AWS_STACK_NAME の値 '" + envStack + "' を使用します")
		stackName = envStack
	}
	// どちらもなければstackNameは空のまま
}

// withRegion はリージョンだけを差し替えたAWS設定を返す
func withRegion(cfg aws.Config, r string) aws.Config {
	cfg = cfg.Copy()
	if r != "" {
		cfg.Region = r
	}
	return cfg
}

// newPeeringService は指定設定のクライアントでピアリング操作のサービスを作る
func newPeeringService(cfg aws.Config) *peering.Service {
	clients := awsx.NewClientsFromConfig(cfg)
	return peering.NewService(appCfg, peering.Deps{
		EC2:        clients.Ec2(),
		STS:        clients.Sts(),
		SSM:        clients.Ssm(),
		BaseConfig: cfg,
		Events:     notify.NewEventPublisher(clients.Events(), appCfg.EventBusName, appCfg.EventSource),
	}, logger)
}

// newRoutesService は指定設定のクライアントでルート伝搬のサービスを作る
func newRoutesService(cfg aws.Config) *routes.Service {
	clients := awsx.NewClientsFromConfig(cfg)
	return routes.NewService(appCfg, routes.Deps{
		EC2:        clients.Ec2(),
		STS:        clients.Sts(),
		BaseConfig: cfg,
		State:      routes.NewStateStore(clients.Ssm(), appCfg.RouteStatePrefix),
		Events:     notify.NewEventPublisher(clients.Events(), appCfg.EventBusName, appCfg.EventSource),
		Metrics:    notify.NewMetricsPublisher(clients.CloudWatch(), appCfg.MetricsNamespace),
	}, logger)
}
