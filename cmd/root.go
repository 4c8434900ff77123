package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	awsx "vpcpeer/internal/aws"
	"vpcpeer/internal/config"
	"vpcpeer/internal/logging"
)

// AppName はコマンド名
const AppName = "vpcpeer"

var (
	region     string
	profile    string
	stackName  string
	configFile string
	envName    string

	v      = config.NewViper()
	appCfg config.Config
	awsCfg aws.Config
	logger *logrus.Logger
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   AppName,
	Short: "アカウントをまたぐVPCピアリングの管理ツール",
	Long: `アカウントをまたぐVPCピアリング接続の作成・承認と、
ピア側ルートテーブルへのルート伝搬を行うCLIツールです。

CloudFormationカスタムリソースとして動くハンドラーと同じ処理を、
手元から直接実行・確認できます。`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := RootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&region, "region", "R", "ap-northeast-1", "AWSリージョン")
	RootCmd.PersistentFlags().StringVarP(&profile, "profile", "P", "", "AWSプロファイル")
	RootCmd.PersistentFlags().StringVarP(&envName, "env", "E", "", "環境名（タグとセッション名に使用）")
	RootCmd.PersistentFlags().StringVar(&configFile, "config", "", "設定ファイル（YAML）")

	_ = v.BindPFlag("region", RootCmd.PersistentFlags().Lookup("region"))
	_ = v.BindPFlag("env", RootCmd.PersistentFlags().Lookup("env"))
	// CLIでは人が読むためテキスト形式を既定にする
	v.SetDefault("log_format", "text")

	// コマンド実行前に共通でプロファイルチェックと設定読み込みを行う
	RootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		// ヘルプ・バージョン表示の場合はスキップ
		if cmd.Name() == "help" || cmd.Name() == "version" {
			return nil
		}
		if err := checkAndSetProfile(cmd); err != nil {
			return err
		}
		return loadConfig()
	}
}

// checkAndSetProfile はプロファイルの確認と設定を行うプライベート関数
func checkAndSetProfile(cmd *cobra.Command) error {
	// プロファイルがすでに指定されている場合は何もしない
	if profile != "" {
		return nil
	}
	// 環境変数からプロファイル取得を試みる
	envProfile := os.Getenv("AWS_PROFILE")
	if envProfile == "" {
		return errors.New("❌ エラー: プロファイルが指定されていません。-Pオプションまたは AWS_PROFILE 環境変数を指定してください")
	}
	// 環境変数からプロファイルを設定
	profile = envProfile
	cmd.Println("🔍 環境変数 AWS_PROFILE の値 '" + profile + "' を使用します")
	return nil
}

// loadConfig は設定とAWS認証情報を読み込み、ロガーを初期化する
func loadConfig() error {
	cfg, err := config.Load(v, configFile)
	if err != nil {
		return fmt.Errorf("❌ 設定エラー: %w", err)
	}
	cfg.Profile = profile
	appCfg = cfg
	logger = logging.New(appCfg)

	awsCfg, err = awsx.LoadAwsConfig(awsx.Context{Profile: appCfg.Profile, Region: appCfg.Region})
	if err != nil {
		return fmt.Errorf("❌ AWS設定の読み込みエラー: %w", err)
	}
	return nil
}
