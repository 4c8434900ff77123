package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	awsx "vpcpeer/internal/aws"
	"vpcpeer/internal/service/common"
	"vpcpeer/internal/service/iam"
)

var (
	preflightRole   string
	preflightRegion string
)

var preflightCmd = &cobra.Command{
	Use:   "preflight",
	Short: "ピア側ロールを引き受けられるか事前に確認するコマンド",
	Long: `ピアリングの承認やルート追加に使うピア側ロールを実際に引き受け、
ロールの信頼ポリシーと最大セッション時間を表示します。

例:
  ` + AppName + ` preflight --role arn:aws:iam::222222222222:role/peering-accepter --peer-region us-west-2`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("%s ロール %s の引き受けを確認します...\n", common.ProcessIcon, preflightRole)

		clients := awsx.NewClientsFromConfig(awsCfg)
		result, err := iam.Preflight(cmd.Context(), clients.Sts(), awsx.NewIAMFromConfig, awsCfg, iam.PreflightInput{
			Role: awsx.AssumeRoleInput{
				RoleArn:     preflightRole,
				SessionName: appCfg.SessionName(appCfg.Env, "preflight"),
				Region:      preflightRegion,
				Duration:    appCfg.AssumeRoleDuration,
				ExternalId:  appCfg.ExternalId,
			},
		})
		if err != nil {
			return fmt.Errorf("❌ ロール引き受けエラー: %w", err)
		}

		fmt.Printf("✅ ロール %s を引き受けました（有効期限: %s）\n", result.RoleName, result.Expiration.Local().Format(time.RFC3339))
		if result.DescribeError != nil {
			fmt.Printf("%s ロール情報は取得できませんでした: %v\n", common.WarningIcon, result.DescribeError)
			return nil
		}

		if result.MaxSessionDuration > 0 {
			fmt.Printf("   最大セッション時間: %s\n", result.MaxSessionDuration)
		}
		if result.LastUsed != nil {
			fmt.Printf("   最終使用日時: %s\n", result.LastUsed.Local().Format(time.RFC3339))
		}
		if len(result.TrustedPrincipals) > 0 {
			fmt.Printf("   信頼されたプリンシパル:\n     %s\n", strings.Join(result.TrustedPrincipals, "\n     "))
		}
		return nil
	},
	SilenceUsage: true,
}

func init() {
	RootCmd.AddCommand(preflightCmd)
	preflightCmd.Flags().StringVar(&preflightRole, "role", "", "引き受けるピア側ロールARN")
	preflightCmd.Flags().StringVar(&preflightRegion, "peer-region", "", "ピア側リージョン")
	_ = preflightCmd.MarkFlagRequired("role")
}
