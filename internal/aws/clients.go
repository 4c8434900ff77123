package aws

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// Clients はAWS設定と各サービスクライアントを管理
type Clients struct {
	cfg aws.Config

	// 遅延初期化されるクライアント群
	ec2        *ec2.Client
	sts        *sts.Client
	ssm        *ssm.Client
	cfn        *cloudformation.Client
	cloudwatch *cloudwatch.Client
	events     *eventbridge.Client
}

// NewAwsClients は認証情報からAWS設定を読み込んでクライアント管理構造体を作成
func NewAwsClients(ctx Context) (*Clients, error) {
	cfg, err := LoadAwsConfig(ctx)
	if err != nil {
		return nil, err
	}

	return &Clients{cfg: cfg}, nil
}

// NewClientsFromConfig は読み込み済みのAWS設定からクライアント管理構造体を作成
func NewClientsFromConfig(cfg aws.Config) *Clients {
	return &Clients{cfg: cfg}
}

// Config は元になったAWS設定を返す
func (c *Clients) Config() aws.Config {
	return c.cfg
}

// Ec2 は遅延初期化でEC2クライアントを取得
func (c *Clients) Ec2() *ec2.Client {
	if c.ec2 == nil {
		c.ec2 = ec2.NewFromConfig(c.cfg)
	}
	return c.ec2
}

// Sts は遅延初期化でSTSクライアントを取得
func (c *Clients) Sts() *sts.Client {
	if c.sts == nil {
		c.sts = sts.NewFromConfig(c.cfg)
	}
	return c.sts
}

// Ssm は遅延初期化でSSMクライアントを取得
func (c *Clients) Ssm() *ssm.Client {
	if c.ssm == nil {
		c.ssm = ssm.NewFromConfig(c.cfg)
	}
	return c.ssm
}

// Cfn は遅延初期化でCloudFormationクライアントを取得
func (c *Clients) Cfn() *cloudformation.Client {
	if c.cfn == nil {
		c.cfn = cloudformation.NewFromConfig(c.cfg)
	}
	return c.cfn
}

// CloudWatch は遅延初期化でCloudWatchクライアントを取得
func (c *Clients) CloudWatch() *cloudwatch.Client {
	if c.cloudwatch == nil {
		c.cloudwatch = cloudwatch.NewFromConfig(c.cfg)
	}
	return c.cloudwatch
}

// Events は遅延初期化でEventBridgeクライアントを取得
func (c *Clients) Events() *eventbridge.Client {
	if c.events == nil {
		c.events = eventbridge.NewFromConfig(c.cfg)
	}
	return c.events
}

// EC2Factory は認証情報とリージョンを束ねた設定からEC2クライアントを作る関数
// ピア側アカウントのクライアント生成に使う
type EC2Factory func(cfg aws.Config) EC2API

// NewEC2FromConfig は実際のEC2クライアントを返すEC2Factory
func NewEC2FromConfig(cfg aws.Config) EC2API {
	return ec2.NewFromConfig(cfg)
}

// IAMFactory は一時認証情報でIAMクライアントを作る関数
type IAMFactory func(cfg aws.Config) IAMAPI

// NewIAMFromConfig は実際のIAMクライアントを返すIAMFactory
func NewIAMFromConfig(cfg aws.Config) IAMAPI {
	return iam.NewFromConfig(cfg)
}
