package aws

import "time"

// Context はSDK設定の読み込みに使うプロファイルとリージョン
// Lambdaではどちらも空にして実行ロールと AWS_REGION を使う
type Context struct {
	Profile string
	Region  string
}

// AssumeRoleInput はロール引き受けのパラメータを格納する構造体
type AssumeRoleInput struct {
	RoleArn     string
	SessionName string
	Region      string        // 一時認証情報を使う先のリージョン
	Duration    time.Duration // 0の場合はSTSのデフォルト（1時間）
	ExternalId  string
}

// AssumedCredential はロール引き受けで得た一時認証情報
// 呼び出し単位で所有され、永続化しない
type AssumedCredential struct {
	AccessKeyId     string
	SecretAccessKey string
	SessionToken    string
	Expiration      time.Time
	RoleArn         string
	Region          string
}
