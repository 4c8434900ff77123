package main

import (
	"github.com/aws/aws-lambda-go/cfn"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/sirupsen/logrus"

	awsx "vpcpeer/internal/aws"
	"vpcpeer/internal/config"
	"vpcpeer/internal/logging"
	"vpcpeer/internal/service/customresource"
	"vpcpeer/internal/service/notify"
	"vpcpeer/internal/service/peering"
)

var (
	cfg     config.Config
	logger  *logrus.Logger
	handler *peering.Handler
)

func init() {
	var err error
	cfg, err = config.FromEnv()
	if err != nil {
		logrus.Fatalf("設定の読み込みに失敗: %v", err)
	}
	logger = logging.New(cfg)

	// Lambda実行ロールの認証情報が使われる。クライアントは関数の再利用時にも使い回す
	clients, err := awsx.NewAwsClients(awsx.Context{Region: cfg.Region})
	if err != nil {
		logger.WithError(err).Fatal("AWS設定の読み込みに失敗")
	}

	svc := peering.NewService(cfg, peering.Deps{
		EC2:        clients.Ec2(),
		STS:        clients.Sts(),
		SSM:        clients.Ssm(),
		BaseConfig: clients.Config(),
		Events:     notify.NewEventPublisher(clients.Events(), cfg.EventBusName, cfg.EventSource),
	}, logger)
	handler = peering.NewHandler(svc)
}

func main() {
	if cfg.ResponseMode == config.ResponseModeDirect {
		lambda.Start(cfn.LambdaWrap(customresource.DirectFunc(handler, logger)))
		return
	}
	lambda.Start(customresource.ProviderFunc(handler, logger))
}
