package cmd

import (
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"vpcpeer/internal/service/common"
	"vpcpeer/internal/service/customresource"
	"vpcpeer/internal/service/routes"
)

var routesReq routes.Request

// RoutesCmd represents the routes command
var RoutesCmd = &cobra.Command{
	Use:   "routes",
	Short: "ピア側ルートテーブルへのルート伝搬コマンド",
	Long:  `ピアVPCのすべてのルートテーブルに、ピアリング接続を向いたルートを追加・削除するコマンド群です。`,
}

var routesApplyCmd = &cobra.Command{
	Use:   "apply",
	Short: "ピアVPCのルートテーブルにルートを追加するコマンド",
	Long: `ピア側ロールを引き受け、ピアVPCのすべてのルートテーブルに宛先CIDRのルートを追加します。
既に同じ宛先のルートがあるテーブルは成功として扱います。

例:
  ` + AppName + ` routes apply -c pcx-0123456789abcdef0 --peer-vpc vpc-bbb --peer-region us-west-2 \
    --peer-role arn:aws:iam::222222222222:role/peering-accepter --cidr 10.0.0.0/16`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf(common.ProcessingFormat+"\n", common.ProcessIcon, "ピア側ルートテーブルへのルート追加")

		var bar *progressbar.ProgressBar
		observer := func(done, total int, outcome routes.TableOutcome) {
			if bar == nil {
				bar = newTableProgressBar(total, "ルート追加中...")
			}
			_ = bar.Add(1)
			if outcome.Outcome == routes.Failed {
				bar.Describe(fmt.Sprintf("❌ %s", outcome.RouteTableId))
			}
		}

		report, err := newRoutesService(awsCfg).Apply(cmd.Context(), routesReq, observer)
		if bar != nil {
			_ = bar.Finish()
			fmt.Println()
		}
		if err != nil {
			return fmt.Errorf("❌ ルート追加エラー: %w", err)
		}

		for _, o := range report.Outcomes {
			if o.Outcome == routes.Failed {
				fmt.Printf("❌ %s: %v\n", o.RouteTableId, o.Reason)
			}
		}
		fmt.Printf("✅ ルート追加完了: 追加 %d個, 既存 %d個, 失敗 %d個\n",
			report.Count(routes.Created), report.Count(routes.AlreadyPresent), report.Count(routes.Failed))
		fmt.Printf("%s 識別子: %s\n", common.InfoIcon, customresource.RoutesIdentity(report.ConnectionId, report.DestinationCidr))
		return nil
	},
	SilenceUsage: true,
}

var routesRemoveCmd = &cobra.Command{
	Use:   "remove",
	Short: "ピアVPCのルートテーブルからルートを削除するコマンド",
	Long: `ピアリング接続を向いた宛先CIDRのルートをピアVPCから削除します。
追加時に記録したルートテーブルがあればそれだけを対象にします。

例:
  ` + AppName + ` routes remove -c pcx-0123456789abcdef0 --peer-vpc vpc-bbb --peer-region us-west-2 \
    --peer-role arn:aws:iam::222222222222:role/peering-accepter --cidr 10.0.0.0/16`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if routesReq.DestinationCidr == "" {
			return fmt.Errorf("❌ エラー: 宛先CIDR (--cidr) を指定してください")
		}

		fmt.Printf("%s ピア側ルートテーブルからルートを削除します...\n", common.DeleteIcon)
		results := newRoutesService(awsCfg).Remove(cmd.Context(), routesReq, routesReq.PeeringConnectionId, routesReq.DestinationCidr)

		failed := 0
		for _, r := range results {
			fmt.Printf("%s %s\n", r.Icon(), r)
			if r.Status == common.Failed {
				failed++
			}
		}
		if failed > 0 {
			return fmt.Errorf("❌ %d件のルート削除に失敗しました", failed)
		}
		fmt.Println("✅ ルート削除完了")
		return nil
	},
	SilenceUsage: true,
}

// newTableProgressBar はテーブル単位の進捗バーを作る
func newTableProgressBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowBytes(false),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
	)
}

func init() {
	RootCmd.AddCommand(RoutesCmd)
	RoutesCmd.AddCommand(routesApplyCmd)
	RoutesCmd.AddCommand(routesRemoveCmd)

	for _, c := range []*cobra.Command{routesApplyCmd, routesRemoveCmd} {
		f := c.Flags()
		f.StringVarP(&routesReq.PeeringConnectionId, "connection", "c", "", "ピアリング接続ID")
		f.StringVar(&routesReq.PeerVpcId, "peer-vpc", "", "ピア側VPC ID")
		f.StringVar(&routesReq.PeerRegion, "peer-region", "", "ピア側リージョン")
		f.StringVar(&routesReq.PeerRoleArn, "peer-role", "", "ピア側のロールARN")
		f.StringVar(&routesReq.DestinationCidr, "cidr", "", "宛先CIDR（ローカルVPCのCIDR）")
		for _, name := range []string{"connection", "peer-vpc", "peer-region", "peer-role"} {
			_ = c.MarkFlagRequired(name)
		}
	}
	routesApplyCmd.Flags().StringVar(&routesReq.LocalVpcId, "local-vpc", "", "宛先CIDRを参照するローカルVPC ID（--cidr 省略時）")
}
