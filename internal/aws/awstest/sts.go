package awstest

import (
	"context"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/aws/aws-sdk-go-v2/service/sts/types"
)

// FakeSTS は固定の一時認証情報、または指定エラーを返すSTS
type FakeSTS struct {
	mu    sync.Mutex
	Err   error
	Roles []string
}

func (f *FakeSTS) AssumeRole(_ context.Context, params *sts.AssumeRoleInput, _ ...func(*sts.Options)) (*sts.AssumeRoleOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Roles = append(f.Roles, aws.ToString(params.RoleArn))
	if f.Err != nil {
		return nil, f.Err
	}
	return &sts.AssumeRoleOutput{
		Credentials: &types.Credentials{
			AccessKeyId:     aws.String("ASIAFAKE"),
			SecretAccessKey: aws.String("fake-secret"),
			SessionToken:    aws.String("fake-token"),
			Expiration:      aws.Time(time.Now().Add(time.Hour)),
		},
	}, nil
}
