package main

import (
	"fmt"
	"os"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/jsii-runtime-go"
	"github.com/sirupsen/logrus"

	"vpcpeer/infra/stack"
	"vpcpeer/internal/config"
	"vpcpeer/internal/service/matrix"
)

func main() {
	defer jsii.Close()

	app := awscdk.NewApp(nil)

	cfg, err := config.FromEnv()
	if err != nil {
		logrus.Fatalf("設定の読み込みに失敗: %v", err)
	}

	// マトリクスファイルと接続元は -c matrix=... -c source=... または環境変数で指定する
	matrixFile := contextOrEnv(app, "matrix", "VPCPEER_MATRIX_FILE", "peering.yaml")
	source := contextOrEnv(app, "source", "VPCPEER_MATRIX_SOURCE", "")
	if source == "" {
		logrus.Fatal("接続元のピア名を -c source=<name> または VPCPEER_MATRIX_SOURCE で指定してください")
	}

	file, err := matrix.Load(matrixFile)
	if err != nil {
		logrus.Fatalf("マトリクスファイルの読み込みに失敗: %v", err)
	}
	pairs, err := file.Pairs(source)
	if err != nil {
		logrus.Fatalf("マトリクスファイルの検証に失敗: %v", err)
	}

	props := &stack.VpcPeeringStackProps{
		StackProps:      awscdk.StackProps{Env: env(pairs[0].Source.Region)},
		Config:          cfg,
		Pairs:           pairs,
		ParameterPrefix: os.Getenv("VPCPEER_PARAMETER_PREFIX"),
	}
	if err := props.Validate(); err != nil {
		logrus.Fatalf("スタックの設定が不正です: %v", err)
	}

	stack.NewVpcPeeringStack(app, fmt.Sprintf("VpcPeering-%s-%s", cfg.Env, source), props)

	app.Synth(nil)
}

// contextOrEnv はCDKコンテキスト、環境変数、デフォルト値の順に値を取得する
func contextOrEnv(app awscdk.App, key, envKey, def string) string {
	if v, ok := app.Node().TryGetContext(jsii.String(key)).(string); ok && v != "" {
		return v
	}
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	return def
}

func env(region string) *awscdk.Environment {
	// アカウントはCDK CLIの認証情報から決まる
	return &awscdk.Environment{
		Account: jsii.String(os.Getenv("CDK_DEFAULT_ACCOUNT")),
		Region:  jsii.String(region),
	}
}
