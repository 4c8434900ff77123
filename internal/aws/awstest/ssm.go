package awstest

import (
	"context"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
)

// FakeSSM はパラメータをメモリ上に保持するSSM
type FakeSSM struct {
	mu     sync.Mutex
	Params map[string]string
	Err    error
}

// NewFakeSSM は空のFakeSSMを作成する
func NewFakeSSM() *FakeSSM {
	return &FakeSSM{Params: map[string]string{}}
}

func (f *FakeSSM) GetParameter(_ context.Context, params *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	v, ok := f.Params[aws.ToString(params.Name)]
	if !ok {
		return nil, &types.ParameterNotFound{Message: aws.String("parameter not found")}
	}
	return &ssm.GetParameterOutput{Parameter: &types.Parameter{Name: params.Name, Value: aws.String(v)}}, nil
}

func (f *FakeSSM) PutParameter(_ context.Context, params *ssm.PutParameterInput, _ ...func(*ssm.Options)) (*ssm.PutParameterOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	f.Params[aws.ToString(params.Name)] = aws.ToString(params.Value)
	return &ssm.PutParameterOutput{}, nil
}

func (f *FakeSSM) DeleteParameter(_ context.Context, params *ssm.DeleteParameterInput, _ ...func(*ssm.Options)) (*ssm.DeleteParameterOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	name := aws.ToString(params.Name)
	if _, ok := f.Params[name]; !ok {
		return nil, &types.ParameterNotFound{Message: aws.String("parameter not found")}
	}
	delete(f.Params, name)
	return &ssm.DeleteParameterOutput{}, nil
}
