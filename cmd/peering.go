package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	awsx "vpcpeer/internal/aws"
	"vpcpeer/internal/service/common"
	"vpcpeer/internal/service/peering"
)

var (
	peeringReq    peering.Request
	peeringId     string
	peeringFilter string
	peeringExact  bool
	peeringAll    bool
)

// PeeringCmd represents the peering command
var PeeringCmd = &cobra.Command{
	Use:   "peering",
	Short: "VPCピアリング接続操作コマンド",
	Long:  `VPCピアリング接続を作成・削除・一覧表示するためのコマンド群です。`,
}

var peeringCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "ピアリング接続を作成してピア側で承認するコマンド",
	Long: `ローカルアカウントでピアリング接続を作成し、ピア側アカウントのロールを引き受けて承認します。

例:
  ` + AppName + ` peering create --local-vpc vpc-aaa --peer-vpc vpc-bbb --peer-region us-west-2 \
    --peer-role arn:aws:iam::222222222222:role/peering-accepter --name app-to-shared --dns`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if peeringReq.EnvName == "" {
			peeringReq.EnvName = appCfg.Env
		}

		fmt.Printf("%s ピアリング接続 (%s → %s) を作成します...\n", common.LinkIcon, peeringReq.LocalVpcId, peeringReq.PeerVpcId)
		conn, err := newPeeringService(awsCfg).Create(cmd.Context(), peeringReq)
		if err != nil {
			var partial *peering.PartialCreateError
			if !errors.As(err, &partial) {
				// 接続の作成前に失敗しているため残っているリソースはない
				return err
			}
			fmt.Printf("%s 接続 %s は作成済みです。不要であれば '%s peering delete -i %s' で削除してください\n",
				common.WarningIcon, partial.ConnectionID, AppName, partial.ConnectionID)
			if partial.Step == peering.StepAccept {
				return fmt.Errorf(common.AcceptErrorFormat, common.ErrorIcon, "ピアリング接続 "+partial.ConnectionID, partial.Err)
			}
			return fmt.Errorf("%s %w", common.ErrorIcon, err)
		}

		fmt.Printf(common.CreateSuccessFormat+"\n", common.SuccessIcon, "ピアリング接続 "+conn.ConnectionId)
		fmt.Printf(common.AcceptSuccessFormat+"（状態: %s）\n", common.SuccessIcon, "ピアリング接続 "+conn.ConnectionId, conn.StatusCode)
		return nil
	},
	SilenceUsage: true,
}

var peeringDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "ピアリング接続を削除するコマンド",
	Long: `ピアリング接続を削除します。既に削除済みの接続は何もしません。

例:
  ` + AppName + ` peering delete -i pcx-0123456789abcdef0`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if peeringId == "" {
			return fmt.Errorf("❌ エラー: 接続ID (-i) を指定してください")
		}

		fmt.Printf("%s ピアリング接続 (%s) を削除します...\n", common.DeleteIcon, peeringId)
		result := newPeeringService(awsCfg).Remove(cmd.Context(), peeringId, peeringReq.ParameterName)
		switch result.Status {
		case common.Failed:
			return fmt.Errorf(common.DeleteErrorFormat, common.ErrorIcon, result.Resource, result.Reason)
		case common.Removed:
			fmt.Printf(common.DeleteSuccessFormat+"\n", common.SuccessIcon, result.Resource)
		default:
			fmt.Printf("%s %s\n", result.Icon(), result)
		}
		return nil
	},
	SilenceUsage: true,
}

var peeringLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "ピアリング接続一覧を表示するコマンド",
	Long: `現在のリージョンのピアリング接続一覧を表示します。
既定では有効・承認待ちの接続のみを表示します。

例:
  ` + AppName + ` peering ls
  ` + AppName + ` peering ls --filter "prd-*" --all`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf(common.SearchingFormat+"\n", common.SearchIcon, "ピアリング接続")
		conns, err := peering.ListConnections(cmd.Context(), awsx.NewClientsFromConfig(awsCfg).Ec2(), peering.ListOptions{
			Filter: peeringFilter,
			Exact:  peeringExact,
			All:    peeringAll,
		})
		if err != nil {
			return common.FormatListError("ピアリング接続", err)
		}

		var filters []string
		if peeringFilter != "" {
			filters = append(filters, fmt.Sprintf("フィルター '%s' に一致する", peeringFilter))
		}
		return common.DisplayList(conns, "ピアリング接続", peering.ConnectionsToTableData, &common.DisplayOptions{
			ShowCount:      true,
			EmptyMessage:   "ピアリング接続が見つかりませんでした",
			FilterMessages: filters,
		})
	},
	SilenceUsage: true,
}

func init() {
	RootCmd.AddCommand(PeeringCmd)
	PeeringCmd.AddCommand(peeringCreateCmd)
	PeeringCmd.AddCommand(peeringDeleteCmd)
	PeeringCmd.AddCommand(peeringLsCmd)

	f := peeringCreateCmd.Flags()
	f.StringVar(&peeringReq.LocalVpcId, "local-vpc", "", "ローカル側VPC ID")
	f.StringVar(&peeringReq.PeerVpcId, "peer-vpc", "", "ピア側VPC ID")
	f.StringVar(&peeringReq.PeerOwnerId, "peer-owner", "", "ピア側アカウントID（省略時はロールARNから取得）")
	f.StringVar(&peeringReq.PeerRegion, "peer-region", "", "ピア側リージョン")
	f.StringVar(&peeringReq.PeerRoleArn, "peer-role", "", "ピア側で承認に使うロールARN")
	f.StringVar(&peeringReq.Name, "name", "", "接続の名前（Nameタグ）")
	f.BoolVar(&peeringReq.AllowDnsResolution, "dns", false, "両側でリモートVPCのDNS解決を許可する")
	f.StringVar(&peeringReq.ParameterName, "param", "", "接続IDを書き込むSSMパラメータ名")
	for _, name := range []string{"local-vpc", "peer-vpc", "peer-region", "peer-role"} {
		_ = peeringCreateCmd.MarkFlagRequired(name)
	}

	peeringDeleteCmd.Flags().StringVarP(&peeringId, "id", "i", "", "削除する接続ID")
	peeringDeleteCmd.Flags().StringVar(&peeringReq.ParameterName, "param", "", "あわせて削除するSSMパラメータ名")

	peeringLsCmd.Flags().StringVarP(&peeringFilter, "filter", "f", "", "名前または接続IDのフィルター（glob形式可）")
	peeringLsCmd.Flags().BoolVar(&peeringExact, "exact", false, "フィルターを完全一致で判定する")
	peeringLsCmd.Flags().BoolVarP(&peeringAll, "all", "a", false, "削除済み・拒否済みの接続も表示する")
}
