package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"vpcpeer/internal/service/common"
	"vpcpeer/internal/service/matrix"
)

var (
	matrixFile    string
	matrixSource  string
	matrixWorkers int
)

// MatrixCmd represents the matrix command
var MatrixCmd = &cobra.Command{
	Use:   "matrix",
	Short: "ピアリングマトリクスファイルを扱うコマンド",
	Long: `peers と peering_matrix を定義したYAMLファイルから、
接続の組を確認したり、まとめて作成したりするコマンド群です。`,
}

var matrixPlanCmd = &cobra.Command{
	Use:   "plan",
	Short: "マトリクスファイルから作成される接続の組を表示するコマンド",
	Long: `マトリクスファイルを検証し、作成される接続の組を表示します。AWSへの変更は行いません。

例:
  ` + AppName + ` matrix plan -f peering.yaml
  ` + AppName + ` matrix plan -f peering.yaml --source app`,
	RunE: func(cmd *cobra.Command, args []string) error {
		pairs, err := loadPairs()
		if err != nil {
			return err
		}
		return common.DisplayList(pairs, "ピアリングの組", pairsToTableData, &common.DisplayOptions{
			ShowCount:    true,
			EmptyMessage: "作成する組がありません",
		})
	},
	SilenceUsage: true,
}

var matrixApplyCmd = &cobra.Command{
	Use:   "apply",
	Short: "マトリクスファイルの組をまとめて作成するコマンド",
	Long: `マトリクスファイルの各組について、接続の作成・承認とピア側へのルート追加を行います。
組どうしは並列に処理します。

例:
  ` + AppName + ` matrix apply -f peering.yaml --source app --workers 4`,
	RunE: func(cmd *cobra.Command, args []string) error {
		pairs, err := loadPairs()
		if err != nil {
			return err
		}
		if len(pairs) == 0 {
			fmt.Println("作成する組がありません")
			return nil
		}

		fmt.Printf("%s %d組のピアリングを作成します...\n", common.ProcessIcon, len(pairs))
		factory := func(source matrix.Peer) (matrix.Services, error) {
			cfg := withRegion(awsCfg, source.Region)
			return matrix.Services{
				Peering: newPeeringService(cfg),
				Routes:  newRoutesService(cfg),
			}, nil
		}

		results := matrix.Apply(cmd.Context(), pairs, factory, matrix.ApplyOptions{
			Env:     appCfg.Env,
			Workers: matrixWorkers,
			OnDone: func(r matrix.PairResult) {
				if r.Err != nil {
					fmt.Printf("❌ %s: %v\n", r.Pair.Name(), r.Err)
					return
				}
				fmt.Printf("✅ %s: %s (ルートテーブル %d個)\n", r.Pair.Name(), r.ConnectionId, r.Routes.Succeeded())
			},
		})

		processResults := make([]common.ProcessResult, len(results))
		for i, r := range results {
			processResults[i] = r.ProcessResult()
		}
		successCount, failCount := common.CollectResults(processResults)
		fmt.Printf("\n%s 完了: 成功 %d組, 失敗 %d組\n", common.InfoIcon, successCount, failCount)
		if failCount > 0 {
			return fmt.Errorf("❌ %d組のピアリング作成に失敗しました", failCount)
		}
		fmt.Printf("%s すべての組のピアリングを作成しました\n", common.PartyIcon)
		return nil
	},
	SilenceUsage: true,
}

func loadPairs() ([]matrix.Pair, error) {
	if matrixFile == "" {
		return nil, fmt.Errorf("❌ エラー: マトリクスファイル (-f) を指定してください")
	}
	file, err := matrix.Load(matrixFile)
	if err != nil {
		return nil, fmt.Errorf("❌ マトリクスファイルエラー: %w", err)
	}
	pairs, err := file.Pairs(matrixSource)
	if err != nil {
		return nil, fmt.Errorf("❌ マトリクスファイルエラー: %w", err)
	}
	return pairs, nil
}

func pairsToTableData(pairs []matrix.Pair) ([]common.TableColumn, [][]string) {
	columns := []common.TableColumn{
		{Header: "名前"},
		{Header: "接続元VPC"},
		{Header: "接続先VPC"},
		{Header: "接続先リージョン"},
		{Header: "DNS解決"},
		{Header: "戻りルート"},
	}
	data := make([][]string, len(pairs))
	for i, p := range pairs {
		dns := "-"
		if p.Target.DNSResolution {
			dns = "有効"
		}
		data[i] = []string{
			p.Name(),
			p.Source.VpcId,
			p.Target.VpcId,
			p.Target.Region,
			dns,
			strings.Join(p.Source.RouteTableIds, ","),
		}
	}
	return columns, data
}

func init() {
	RootCmd.AddCommand(MatrixCmd)
	MatrixCmd.AddCommand(matrixPlanCmd)
	MatrixCmd.AddCommand(matrixApplyCmd)

	for _, c := range []*cobra.Command{matrixPlanCmd, matrixApplyCmd} {
		c.Flags().StringVarP(&matrixFile, "file", "f", "", "マトリクスファイル（YAML）")
		c.Flags().StringVar(&matrixSource, "source", "", "接続元のピア名（省略時はすべて）")
	}
	matrixApplyCmd.Flags().IntVarP(&matrixWorkers, "workers", "w", 4, "並列に処理する組の数")
}
