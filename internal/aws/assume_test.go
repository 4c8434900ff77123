package aws

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	ststypes "github.com/aws/aws-sdk-go-v2/service/sts/types"
	"github.com/aws/smithy-go"
	"github.com/google/go-cmp/cmp"
)

type fakeSTS struct {
	input *sts.AssumeRoleInput
	out   *sts.AssumeRoleOutput
	err   error
}

func (f *fakeSTS) AssumeRole(_ context.Context, params *sts.AssumeRoleInput, _ ...func(*sts.Options)) (*sts.AssumeRoleOutput, error) {
	f.input = params
	return f.out, f.err
}

func TestAssumeRole(t *testing.T) {
	exp := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	client := &fakeSTS{out: &sts.AssumeRoleOutput{
		Credentials: &ststypes.Credentials{
			AccessKeyId:     aws.String("AKIA"),
			SecretAccessKey: aws.String("secret"),
			SessionToken:    aws.String("token"),
			Expiration:      aws.Time(exp),
		},
	}}

	got, err := AssumeRole(context.Background(), client, AssumeRoleInput{
		RoleArn:     "arn:aws:iam::210987654321:role/peer",
		SessionName: "vpcpeer prod/app",
		Region:      "us-west-2",
		Duration:    30 * time.Minute,
		ExternalId:  "ext",
	})
	if err != nil {
		t.Fatalf("AssumeRole() error = %v", err)
	}

	want := AssumedCredential{
		AccessKeyId:     "AKIA",
		SecretAccessKey: "secret",
		SessionToken:    "token",
		Expiration:      exp,
		RoleArn:         "arn:aws:iam::210987654321:role/peer",
		Region:          "us-west-2",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("AssumeRole() mismatch (-want +got):\n%s", diff)
	}
	if s := aws.ToString(client.input.RoleSessionName); s != "vpcpeer-prod-app" {
		t.Errorf("session name = %q", s)
	}
	if d := aws.ToInt32(client.input.DurationSeconds); d != 1800 {
		t.Errorf("duration = %d", d)
	}
	if e := aws.ToString(client.input.ExternalId); e != "ext" {
		t.Errorf("external id = %q", e)
	}
}

func TestAssumeRoleDenied(t *testing.T) {
	client := &fakeSTS{err: &smithy.GenericAPIError{Code: CodeAccessDenied, Message: "not authorized"}}

	_, err := AssumeRole(context.Background(), client, AssumeRoleInput{RoleArn: "arn:aws:iam::210987654321:role/peer"})
	if !errors.Is(err, ErrAssumptionDenied) {
		t.Fatalf("AssumeRole() error = %v, want ErrAssumptionDenied", err)
	}
	if !strings.Contains(err.Error(), "arn:aws:iam::210987654321:role/peer") {
		t.Errorf("error does not mention the role: %v", err)
	}
}

func TestAssumeRoleOtherError(t *testing.T) {
	client := &fakeSTS{err: &smithy.GenericAPIError{Code: "Throttling"}}

	_, err := AssumeRole(context.Background(), client, AssumeRoleInput{RoleArn: "arn:aws:iam::210987654321:role/peer"})
	if err == nil || errors.Is(err, ErrAssumptionDenied) {
		t.Fatalf("AssumeRole() error = %v, want non-denied error", err)
	}
	if ErrorCode(err) != "Throttling" {
		t.Errorf("ErrorCode() = %q", ErrorCode(err))
	}
}

func TestAssumedCredentialConfig(t *testing.T) {
	base := aws.Config{Region: "ap-northeast-1"}
	cred := AssumedCredential{AccessKeyId: "AKIA", SecretAccessKey: "s", SessionToken: "t", Region: "eu-west-1"}

	cfg := cred.Config(base)
	if cfg.Region != "eu-west-1" {
		t.Errorf("Region = %q", cfg.Region)
	}
	if base.Region != "ap-northeast-1" {
		t.Errorf("base config was modified")
	}
	v, err := cfg.Credentials.Retrieve(context.Background())
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if v.AccessKeyID != "AKIA" || v.SessionToken != "t" {
		t.Errorf("credentials = %+v", v)
	}
}

func TestAccountIDFromRoleArn(t *testing.T) {
	tests := []struct {
		arn  string
		want string
	}{
		{"arn:aws:iam::123456789012:role/MyRole", "123456789012"},
		{"arn:aws-cn:iam::123456789012:role/path/MyRole", "123456789012"},
		{"arn:aws:iam::role/MyRole", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := AccountIDFromRoleArn(tt.arn); got != tt.want {
			t.Errorf("AccountIDFromRoleArn(%q) = %q, want %q", tt.arn, got, tt.want)
		}
	}
}

func TestSessionName(t *testing.T) {
	if got := SessionName(""); got != "vpcpeer" {
		t.Errorf("SessionName(\"\") = %q", got)
	}
	if got := SessionName(strings.Repeat("a", 80)); len(got) != 64 {
		t.Errorf("len = %d", len(got))
	}
	if got := SessionName("x"); got != "x-session" {
		t.Errorf("SessionName(\"x\") = %q", got)
	}
}

func TestAssumeEC2(t *testing.T) {
	client := &fakeSTS{out: &sts.AssumeRoleOutput{
		Credentials: &ststypes.Credentials{
			AccessKeyId:     aws.String("AKIA"),
			SecretAccessKey: aws.String("secret"),
			SessionToken:    aws.String("token"),
		},
	}}

	var got aws.Config
	factory := func(cfg aws.Config) EC2API {
		got = cfg
		return nil
	}
	_, err := AssumeEC2(context.Background(), client, factory, aws.Config{Region: "ap-northeast-1"}, AssumeRoleInput{
		RoleArn: "arn:aws:iam::210987654321:role/peer",
		Region:  "eu-west-1",
	})
	if err != nil {
		t.Fatalf("AssumeEC2() error = %v", err)
	}
	if got.Region != "eu-west-1" {
		t.Errorf("Region = %q", got.Region)
	}
	creds, err := got.Credentials.Retrieve(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if creds.AccessKeyID != "AKIA" || creds.SessionToken != "token" {
		t.Errorf("credentials = %+v", creds)
	}
}

func TestAssumeEC2Denied(t *testing.T) {
	client := &fakeSTS{err: &smithy.GenericAPIError{Code: CodeAccessDenied}}
	called := false
	factory := func(aws.Config) EC2API {
		called = true
		return nil
	}
	_, err := AssumeEC2(context.Background(), client, factory, aws.Config{}, AssumeRoleInput{RoleArn: "arn:aws:iam::210987654321:role/peer"})
	if !errors.Is(err, ErrAssumptionDenied) {
		t.Errorf("error = %v", err)
	}
	if called {
		t.Error("factory called after denied assumption")
	}
}
