package stack

import (
	"fmt"
	"strings"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsec2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsiam"
	"github.com/aws/aws-cdk-go/awscdk/v2/awslambda"
	"github.com/aws/aws-cdk-go/awscdk/v2/awss3assets"
	"github.com/aws/aws-cdk-go/awscdk/v2/customresources"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"

	"vpcpeer/internal/service/customresource"
)

// NewVpcPeeringStack はピアリングの組ごとに接続とルート伝搬のカスタムリソースを持つスタックを作る
func NewVpcPeeringStack(scope constructs.Construct, id string, props *VpcPeeringStackProps) awscdk.Stack {
	if err := props.Validate(); err != nil {
		panic(err)
	}
	stack := awscdk.NewStack(scope, &id, &props.StackProps)

	env := lambdaEnvironment(props.Config)
	peeringHandler := newHandlerFunction(stack, "PeeringHandler", "./lambda/peering", props.sourceDir(), env)
	routesHandler := newHandlerFunction(stack, "RoutesHandler", "./lambda/routes", props.sourceDir(), env)

	grantPeering(stack, peeringHandler, props)
	grantRoutes(stack, routesHandler, props)

	peeringProvider := customresources.NewProvider(stack, jsii.String("PeeringProvider"), &customresources.ProviderProps{
		OnEventHandler: peeringHandler,
	})
	routesProvider := customresources.NewProvider(stack, jsii.String("RoutesProvider"), &customresources.ProviderProps{
		OnEventHandler: routesHandler,
	})

	for _, pair := range props.Pairs {
		name := logicalName(pair.Name())

		peering := awscdk.NewCustomResource(stack, jsii.String(name+"Peering"), &awscdk.CustomResourceProps{
			ServiceToken: peeringProvider.ServiceToken(),
			ResourceType: jsii.String(customresource.ResourceTypePeering),
			Properties:   toJsiiMap(peeringProperties(pair, props.Config.Env, props.ParameterPrefix)),
		})

		// 物理リソースIDが接続IDなので Ref で参照する
		connectionID := peering.Ref()
		routes := awscdk.NewCustomResource(stack, jsii.String(name+"Routes"), &awscdk.CustomResourceProps{
			ServiceToken: routesProvider.ServiceToken(),
			ResourceType: jsii.String(customresource.ResourceTypeRoutes),
			Properties:   toJsiiMap(routesProperties(pair, connectionID)),
		})
		routes.Node().AddDependency(peering)

		// ローカル側の戻りルート
		for i, tableID := range pair.Source.RouteTableIds {
			route := awsec2.NewCfnRoute(stack, jsii.String(fmt.Sprintf("%sLocalRoute%d", name, i+1)), &awsec2.CfnRouteProps{
				RouteTableId:           jsii.String(tableID),
				DestinationCidrBlock:   jsii.String(pair.Target.Cidr),
				VpcPeeringConnectionId: connectionID,
			})
			route.Node().AddDependency(peering)
		}

		awscdk.NewCfnOutput(stack, jsii.String(name+"ConnectionId"), &awscdk.CfnOutputProps{
			Value:       connectionID,
			Description: jsii.String(fmt.Sprintf("%s のピアリング接続ID", pair.Name())),
		})
	}

	return stack
}

// newHandlerFunction はモジュールルートから指定パッケージをビルドしたGoのLambda関数を作る
func newHandlerFunction(scope constructs.Construct, id, pkg, sourceDir string, env map[string]string) awslambda.Function {
	return awslambda.NewFunction(scope, jsii.String(id), &awslambda.FunctionProps{
		Code: awslambda.Code_FromAsset(jsii.String(sourceDir), &awss3assets.AssetOptions{
			Exclude: jsii.Strings("_examples", "cdk.out", "infra/cdk.out", ".git"),
			Bundling: &awscdk.BundlingOptions{
				Image: awscdk.DockerImage_FromRegistry(jsii.String("golang:1.24")),
				Command: &[]*string{
					jsii.String("bash"),
					jsii.String("-c"),
					jsii.String(buildCommand(pkg)),
				},
			},
		}),
		Runtime:      awslambda.Runtime_PROVIDED_AL2023(),
		Handler:      jsii.String("bootstrap"),
		Architecture: awslambda.Architecture_ARM_64(),
		// ロール引き受けとテーブル数に比例するAPI呼び出しがあるため長めにとる
		Timeout:     awscdk.Duration_Minutes(jsii.Number(5)),
		Environment: toJsiiStringMap(env),
	})
}

// buildCommand はバンドル用コンテナで pkg をARM64向けの bootstrap にビルドするコマンドを返す
// 環境変数は export しないと go build に渡らない
func buildCommand(pkg string) string {
	return strings.Join([]string{
		"export GOCACHE=/tmp/go-cache GOPATH=/tmp/go-path",
		"export CGO_ENABLED=0 GOOS=linux GOARCH=arm64",
		"go build -tags lambda.norpc -o /asset-output/bootstrap " + pkg,
	}, " && ")
}

func grantPeering(stack awscdk.Stack, fn awslambda.Function, props *VpcPeeringStackProps) {
	fn.AddToRolePolicy(awsiam.NewPolicyStatement(&awsiam.PolicyStatementProps{
		Actions: jsii.Strings(
			"ec2:CreateVpcPeeringConnection",
			"ec2:DeleteVpcPeeringConnection",
			"ec2:DescribeVpcPeeringConnections",
			"ec2:ModifyVpcPeeringConnectionOptions",
			"ec2:CreateTags",
		),
		Resources: jsii.Strings("*"),
	}))
	grantCommon(stack, fn, props)

	if props.ParameterPrefix != "" {
		fn.AddToRolePolicy(awsiam.NewPolicyStatement(&awsiam.PolicyStatementProps{
			Actions:   jsii.Strings("ssm:PutParameter", "ssm:DeleteParameter"),
			Resources: &[]*string{parameterArn(stack, props.ParameterPrefix)},
		}))
	}
}

func grantRoutes(stack awscdk.Stack, fn awslambda.Function, props *VpcPeeringStackProps) {
	fn.AddToRolePolicy(awsiam.NewPolicyStatement(&awsiam.PolicyStatementProps{
		Actions:   jsii.Strings("ec2:DescribeVpcs"),
		Resources: jsii.Strings("*"),
	}))
	grantCommon(stack, fn, props)

	if prefix := props.Config.RouteStatePrefix; prefix != "" {
		fn.AddToRolePolicy(awsiam.NewPolicyStatement(&awsiam.PolicyStatementProps{
			Actions:   jsii.Strings("ssm:GetParameter", "ssm:PutParameter", "ssm:DeleteParameter"),
			Resources: &[]*string{parameterArn(stack, prefix)},
		}))
	}
	if ns := props.Config.MetricsNamespace; ns != "" {
		fn.AddToRolePolicy(awsiam.NewPolicyStatement(&awsiam.PolicyStatementProps{
			Actions:   jsii.Strings("cloudwatch:PutMetricData"),
			Resources: jsii.Strings("*"),
			Conditions: &map[string]interface{}{
				"StringEquals": map[string]interface{}{"cloudwatch:namespace": ns},
			},
		}))
	}
}

// grantCommon は両方のハンドラに必要なピア側ロールの引き受けとイベント送信を許可する
func grantCommon(stack awscdk.Stack, fn awslambda.Function, props *VpcPeeringStackProps) {
	fn.AddToRolePolicy(awsiam.NewPolicyStatement(&awsiam.PolicyStatementProps{
		Actions:   jsii.Strings("sts:AssumeRole"),
		Resources: jsii.Strings(peerRoleArns(props.Pairs)...),
	}))

	if bus := props.Config.EventBusName; bus != "" {
		fn.AddToRolePolicy(awsiam.NewPolicyStatement(&awsiam.PolicyStatementProps{
			Actions: jsii.Strings("events:PutEvents"),
			Resources: &[]*string{awscdk.Arn_Format(&awscdk.ArnComponents{
				Service:      jsii.String("events"),
				Resource:     jsii.String("event-bus"),
				ResourceName: jsii.String(bus),
			}, stack)},
		}))
	}
}

// parameterArn は接頭辞以下のSSMパラメータすべてを表すARNを返す
func parameterArn(stack awscdk.Stack, prefix string) *string {
	return awscdk.Arn_Format(&awscdk.ArnComponents{
		Service:      jsii.String("ssm"),
		Resource:     jsii.String("parameter"),
		ResourceName: jsii.String(strings.Trim(prefix, "/") + "/*"),
	}, stack)
}

func toJsiiMap(m map[string]interface{}) *map[string]interface{} {
	return &m
}

func toJsiiStringMap(m map[string]string) *map[string]*string {
	out := make(map[string]*string, len(m))
	for k, v := range m {
		out[k] = jsii.String(v)
	}
	return &out
}
