package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	awsx "vpcpeer/internal/aws"
	"vpcpeer/internal/service/cfn"
	"vpcpeer/internal/service/common"
)

var (
	stackFilter string
	stackAll    bool
)

// StackCmd represents the stack command
var StackCmd = &cobra.Command{
	Use:   "stack",
	Short: "ピアリングを含むCloudFormationスタックを確認するコマンド",
	Long:  `CloudFormationスタックと、その中のピアリング関連カスタムリソースを表示するコマンド群です。`,
}

var stackLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "スタック一覧、またはスタック内のピアリングリソースを表示するコマンド",
	Long: `スタック名を指定しない場合はスタック一覧を表示します。
-S オプションか AWS_STACK_NAME 環境変数でスタックを指定すると、
そのスタックのピアリング接続とルート伝搬のカスタムリソースを表示します。

例:
  ` + AppName + ` stack ls
  ` + AppName + ` stack ls -f "vpcpeer-*"
  ` + AppName + ` stack ls -S vpcpeer-dev`,
	RunE: func(cmd *cobra.Command, args []string) error {
		resolveStackName()
		cfnClient := awsx.NewClientsFromConfig(awsCfg).Cfn()

		if stackName == "" {
			stacks, err := cfn.ListCfnStacks(cmd.Context(), cfnClient, !stackAll, stackFilter)
			if err != nil {
				return common.FormatListError("CloudFormationスタック", err)
			}
			var filters []string
			if stackFilter != "" {
				filters = append(filters, fmt.Sprintf("フィルター '%s' に一致する", stackFilter))
			}
			return common.DisplayList(stacks, "CloudFormationスタック", cfn.StacksToTableData, &common.DisplayOptions{
				ShowCount:      true,
				EmptyMessage:   "スタックが見つかりませんでした",
				FilterMessages: filters,
			})
		}

		resources, err := cfn.GetPeeringResourcesFromStack(cmd.Context(), cfnClient, stackName)
		if err != nil {
			return common.FormatListError("ピアリングリソース", err)
		}
		return common.DisplayList(resources, fmt.Sprintf("スタック %s のピアリングリソース", stackName), cfn.PeeringResourcesToTableData, &common.DisplayOptions{
			ShowCount:    true,
			EmptyMessage: "ピアリング関連のカスタムリソースが見つかりませんでした",
		})
	},
	SilenceUsage: true,
}

func init() {
	RootCmd.AddCommand(StackCmd)
	StackCmd.AddCommand(stackLsCmd)

	stackLsCmd.Flags().StringVarP(&stackName, "stack", "S", "", "CloudFormationスタック名")
	stackLsCmd.Flags().StringVarP(&stackFilter, "filter", "f", "", "スタック名のフィルター（glob形式可）")
	stackLsCmd.Flags().BoolVarP(&stackAll, "all", "a", false, "削除済みなどアクティブでないスタックも表示する")
}
