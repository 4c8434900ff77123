package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
)

// LoadAwsConfig はプロファイルとリージョンからSDK設定を読み込む
// 空の項目はSDKの既定の探索（環境変数・実行ロール）に任せる
func LoadAwsConfig(c Context, optFns ...func(*config.LoadOptions) error) (aws.Config, error) {
	var opts []func(*config.LoadOptions) error
	if c.Profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(c.Profile))
	}
	if c.Region != "" {
		opts = append(opts, config.WithRegion(c.Region))
	}
	opts = append(opts, optFns...)

	cfg, err := config.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		if c.Profile != "" {
			return aws.Config{}, fmt.Errorf("プロファイル %s の読み込みに失敗: %w", c.Profile, err)
		}
		return aws.Config{}, fmt.Errorf("AWS設定の読み込みに失敗: %w", err)
	}
	return cfg, nil
}
