package iam

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	sdkiam "github.com/aws/aws-sdk-go-v2/service/iam"

	awsx "vpcpeer/internal/aws"
)

// Preflight はピア側ロールを実際に引き受け、そのロールの信頼ポリシーを読み取る
// 引き受けに失敗した場合のみエラーを返す
func Preflight(ctx context.Context, stsClient awsx.STSAPI, factory awsx.IAMFactory, base aws.Config, in PreflightInput) (PreflightResult, error) {
	cred, err := awsx.AssumeRole(ctx, stsClient, in.Role)
	if err != nil {
		return PreflightResult{}, err
	}

	result := PreflightResult{
		RoleArn:    in.Role.RoleArn,
		RoleName:   RoleNameFromArn(in.Role.RoleArn),
		Region:     in.Role.Region,
		Expiration: cred.Expiration,
	}
	if factory == nil {
		factory = awsx.NewIAMFromConfig
	}

	out, err := factory(cred.Config(base)).GetRole(ctx, &sdkiam.GetRoleInput{
		RoleName: aws.String(result.RoleName),
	})
	if err != nil {
		result.DescribeError = fmt.Errorf("ロール %s の取得に失敗: %w", result.RoleName, err)
		return result, nil
	}
	if out.Role == nil {
		return result, nil
	}

	if out.Role.MaxSessionDuration != nil {
		result.MaxSessionDuration = time.Duration(*out.Role.MaxSessionDuration) * time.Second
	}
	if out.Role.RoleLastUsed != nil {
		result.LastUsed = out.Role.RoleLastUsed.LastUsedDate
	}
	principals, err := TrustedPrincipals(aws.ToString(out.Role.AssumeRolePolicyDocument))
	if err != nil {
		result.DescribeError = err
		return result, nil
	}
	result.TrustedPrincipals = principals
	return result, nil
}

// RoleNameFromArn はロールARNの末尾（パスを除いたロール名）を返す
func RoleNameFromArn(roleArn string) string {
	idx := strings.LastIndex(roleArn, "/")
	if idx < 0 {
		return roleArn
	}
	return roleArn[idx+1:]
}

type policyDocument struct {
	Statement json.RawMessage `json:"Statement"`
}

type policyStatement struct {
	Effect    string          `json:"Effect"`
	Principal json.RawMessage `json:"Principal"`
}

// TrustedPrincipals はURLエンコードされた信頼ポリシーから、Allow されているプリンシパルを
// "種類:値" の形式で返す
func TrustedPrincipals(document string) ([]string, error) {
	if document == "" {
		return nil, nil
	}
	decoded, err := url.QueryUnescape(document)
	if err != nil {
		return nil, fmt.Errorf("信頼ポリシーのデコードに失敗: %w", err)
	}

	var doc policyDocument
	if err := json.Unmarshal([]byte(decoded), &doc); err != nil {
		return nil, fmt.Errorf("信頼ポリシーの解析に失敗: %w", err)
	}

	statements, err := statementList(doc.Statement)
	if err != nil {
		return nil, fmt.Errorf("信頼ポリシーの Statement の形式が不正です: %w", err)
	}

	var principals []string
	for _, st := range statements {
		if st.Effect != "Allow" || len(st.Principal) == 0 {
			continue
		}

		var wildcard string
		if err := json.Unmarshal(st.Principal, &wildcard); err == nil {
			principals = append(principals, "*:"+wildcard)
			continue
		}

		var byType map[string]json.RawMessage
		if err := json.Unmarshal(st.Principal, &byType); err != nil {
			return nil, fmt.Errorf("Principal の形式が不正です: %w", err)
		}
		for kind, raw := range byType {
			values, err := stringOrList(raw)
			if err != nil {
				return nil, fmt.Errorf("Principal.%s の形式が不正です: %w", kind, err)
			}
			for _, v := range values {
				principals = append(principals, kind+":"+v)
			}
		}
	}
	sort.Strings(principals)
	return principals, nil
}

// statementList は単一オブジェクトと配列のどちらで書かれた Statement も配列として返す
func statementList(raw json.RawMessage) ([]policyStatement, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var single policyStatement
	if err := json.Unmarshal(raw, &single); err == nil {
		return []policyStatement{single}, nil
	}
	var list []policyStatement
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func stringOrList(raw json.RawMessage) ([]string, error) {
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return []string{single}, nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, err
	}
	return list, nil
}
