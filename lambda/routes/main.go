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
	"vpcpeer/internal/service/routes"
)

var (
	cfg     config.Config
	logger  *logrus.Logger
	handler *routes.Handler
)

func init() {
	var err error
	cfg, err = config.FromEnv()
	if err != nil {
		logrus.Fatalf("設定の読み込みに失敗: %v", err)
	}
	logger = logging.New(cfg)

	clients, err := awsx.NewAwsClients(awsx.Context{Region: cfg.Region})
	if err != nil {
		logger.WithError(err).Fatal("AWS設定の読み込みに失敗")
	}

	svc := routes.NewService(cfg, routes.Deps{
		EC2:        clients.Ec2(),
		STS:        clients.Sts(),
		BaseConfig: clients.Config(),
		State:      routes.NewStateStore(clients.Ssm(), cfg.RouteStatePrefix),
		Events:     notify.NewEventPublisher(clients.Events(), cfg.EventBusName, cfg.EventSource),
		Metrics:    notify.NewMetricsPublisher(clients.CloudWatch(), cfg.MetricsNamespace),
	}, logger)
	handler = routes.NewHandler(svc)
}

func main() {
	if cfg.ResponseMode == config.ResponseModeDirect {
		lambda.Start(cfn.LambdaWrap(customresource.DirectFunc(handler, logger)))
		return
	}
	lambda.Start(customresource.ProviderFunc(handler, logger))
}
