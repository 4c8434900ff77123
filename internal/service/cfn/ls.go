package cfn

import (
	"context"
	"fmt"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation/types"

	awsx "vpcpeer/internal/aws"
	"vpcpeer/internal/service/common"
)

var activeStackStatuses = []types.StackStatus{
	types.StackStatusCreateComplete,
	types.StackStatusUpdateComplete,
	types.StackStatusUpdateRollbackComplete,
	types.StackStatusRollbackComplete,
	types.StackStatusImportComplete,
}

// ListCfnStacks はCloudFormationスタック一覧を返す
// activeOnly が true の場合はアクティブなスタックのみ、filter に一致する名前のスタックのみを取得する
func ListCfnStacks(ctx context.Context, cfnClient awsx.CfnAPI, activeOnly bool, filter string) ([]Stack, error) {
	input := &cloudformation.ListStacksInput{}
	if activeOnly {
		input.StackStatusFilter = activeStackStatuses
	}

	var stacks []Stack
	paginator := cloudformation.NewListStacksPaginator(cfnClient, input)
	for paginator.HasMorePages() {
		resp, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("スタック一覧取得エラー: %w", err)
		}

		for _, summary := range resp.StackSummaries {
			name := awssdk.ToString(summary.StackName)
			if !common.MatchesFilter(name, filter) {
				continue
			}
			stacks = append(stacks, Stack{
				Name:   name,
				Status: string(summary.StackStatus),
			})
		}
	}

	return stacks, nil
}

// StacksToTableData はスタック一覧を表形式に変換する
func StacksToTableData(stacks []Stack) ([]common.TableColumn, [][]string) {
	columns := []common.TableColumn{
		{Header: "スタック名"},
		{Header: "ステータス"},
	}
	data := make([][]string, len(stacks))
	for i, s := range stacks {
		data[i] = []string{s.Name, s.Status}
	}
	return columns, data
}
