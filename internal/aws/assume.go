package aws

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// ErrAssumptionDenied は信頼関係によりロール引き受けが拒否されたことを表す
// 運用者が信頼ポリシーを直さない限り再試行しても成功しない
var ErrAssumptionDenied = errors.New("ロールの引き受けが拒否されました")

const maxSessionNameLength = 64

var (
	roleArnAccountPattern = regexp.MustCompile(`^arn:aws[a-zA-Z-]*:iam::(\d{12}):role/`)
	sessionNameInvalid    = regexp.MustCompile(`[^\w+=,.@-]`)
)

// AssumeRole は指定ロールを引き受けて一時認証情報を取得する
func AssumeRole(ctx context.Context, client STSAPI, in AssumeRoleInput) (AssumedCredential, error) {
	if in.RoleArn == "" {
		return AssumedCredential{}, fmt.Errorf("ロールARNが指定されていません")
	}

	input := &sts.AssumeRoleInput{
		RoleArn:         aws.String(in.RoleArn),
		RoleSessionName: aws.String(SessionName(in.SessionName)),
	}
	if in.Duration > 0 {
		input.DurationSeconds = aws.Int32(int32(in.Duration / time.Second))
	}
	if in.ExternalId != "" {
		input.ExternalId = aws.String(in.ExternalId)
	}

	out, err := client.AssumeRole(ctx, input)
	if err != nil {
		if HasErrorCode(err, CodeAccessDenied) {
			return AssumedCredential{}, fmt.Errorf("%w: %s: %v", ErrAssumptionDenied, in.RoleArn, err)
		}
		return AssumedCredential{}, fmt.Errorf("ロール %s の引き受けに失敗: %w", in.RoleArn, err)
	}
	if out.Credentials == nil {
		return AssumedCredential{}, fmt.Errorf("ロール %s の引き受け結果に認証情報が含まれていません", in.RoleArn)
	}

	return AssumedCredential{
		AccessKeyId:     aws.ToString(out.Credentials.AccessKeyId),
		SecretAccessKey: aws.ToString(out.Credentials.SecretAccessKey),
		SessionToken:    aws.ToString(out.Credentials.SessionToken),
		Expiration:      aws.ToTime(out.Credentials.Expiration),
		RoleArn:         in.RoleArn,
		Region:          in.Region,
	}, nil
}

// Config は元の設定をコピーし、一時認証情報と対象リージョンを設定して返す
func (c AssumedCredential) Config(base aws.Config) aws.Config {
	cfg := base.Copy()
	cfg.Credentials = credentials.StaticCredentialsProvider{
		Value: aws.Credentials{
			AccessKeyID:     c.AccessKeyId,
			SecretAccessKey: c.SecretAccessKey,
			SessionToken:    c.SessionToken,
			Source:          "AssumeRole",
			CanExpire:       !c.Expiration.IsZero(),
			Expires:         c.Expiration,
		},
	}
	if c.Region != "" {
		cfg.Region = c.Region
	}
	return cfg
}

// SessionName はSTSが受け付ける文字だけに整形したセッション名を返す
func SessionName(name string) string {
	name = sessionNameInvalid.ReplaceAllString(strings.TrimSpace(name), "-")
	if name == "" {
		name = "vpcpeer"
	}
	if len(name) > maxSessionNameLength {
		name = name[:maxSessionNameLength]
	}
	if len(name) < 2 {
		name += "-session"
	}
	return name
}

// AccountIDFromRoleArn はロールARNからAWSアカウントIDを取り出す（取れなければ空文字）
func AccountIDFromRoleArn(roleArn string) string {
	matches := roleArnAccountPattern.FindStringSubmatch(roleArn)
	if len(matches) == 2 {
		return matches[1]
	}
	return ""
}

// AssumeEC2 はロールを引き受け、その一時認証情報で対象リージョンのEC2クライアントを作る
func AssumeEC2(ctx context.Context, client STSAPI, factory EC2Factory, base aws.Config, in AssumeRoleInput) (EC2API, error) {
	cred, err := AssumeRole(ctx, client, in)
	if err != nil {
		return nil, err
	}
	if factory == nil {
		factory = NewEC2FromConfig
	}
	return factory(cred.Config(base)), nil
}
