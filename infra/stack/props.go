package stack

import (
	"fmt"
	"strings"
	"unicode"

	"vpcpeer/internal/config"
	"vpcpeer/internal/service/common"
	"vpcpeer/internal/service/matrix"
)

// Validate はスタックを組み立てる前にプロパティを検証する
func (p *VpcPeeringStackProps) Validate() error {
	if err := p.Config.Validate(); err != nil {
		return err
	}
	if len(p.Pairs) == 0 {
		return fmt.Errorf("ピアリングの組がありません")
	}

	source := p.Pairs[0].Source
	names := make(map[string]string)
	for _, pair := range p.Pairs {
		if pair.Source.VpcId != source.VpcId || pair.Source.Region != source.Region {
			return fmt.Errorf("1つのスタックで扱える接続元は1つです: %s と %s", source.Name, pair.Source.Name)
		}
		if pair.Target.RoleArn == "" {
			return fmt.Errorf("%s の role_arn が指定されていません", pair.Target.Name)
		}
		if len(pair.Source.RouteTableIds) > 0 && pair.Target.Cidr == "" {
			return fmt.Errorf("%s の戻りルートを作るには %s の cidr が必要です", pair.Name(), pair.Target.Name)
		}
		id := logicalName(pair.Name())
		if other, ok := names[id]; ok {
			return fmt.Errorf("%s と %s の論理IDが重複します: %s", other, pair.Name(), id)
		}
		names[id] = pair.Name()
	}
	return nil
}

// sourceDir はLambdaのビルド元ディレクトリを返す
func (p *VpcPeeringStackProps) sourceDir() string {
	if p.SourceDir == "" {
		return ".."
	}
	return p.SourceDir
}

// logicalName は "app-to-shared" を "AppToShared" のような論理ID向けの名前にする
func logicalName(name string) string {
	words := strings.FieldsFunc(name, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	var b strings.Builder
	for _, w := range words {
		runes := []rune(w)
		b.WriteRune(unicode.ToUpper(runes[0]))
		b.WriteString(string(runes[1:]))
	}
	return b.String()
}

// lambdaEnvironment はハンドラが config.FromEnv で読み込む環境変数を組み立てる
func lambdaEnvironment(cfg config.Config) map[string]string {
	env := map[string]string{
		"VPCPEER_ENV":                 cfg.Env,
		"VPCPEER_LOG_LEVEL":           cfg.LogLevel,
		"VPCPEER_LOG_FORMAT":          "json",
		"VPCPEER_RESPONSE_MODE":       config.ResponseModeProvider,
		"VPCPEER_SESSION_NAME_PREFIX": cfg.SessionNamePrefix,
		"VPCPEER_ROUTE_STATE_PREFIX":  cfg.RouteStatePrefix,
		"VPCPEER_EVENT_SOURCE":        cfg.EventSource,
		"VPCPEER_MANAGED_BY_TAG":      cfg.ManagedByTag,
	}
	if cfg.AssumeRoleDuration > 0 {
		env["VPCPEER_ASSUME_ROLE_DURATION"] = cfg.AssumeRoleDuration.String()
	}
	if cfg.ExternalId != "" {
		env["VPCPEER_EXTERNAL_ID"] = cfg.ExternalId
	}
	if cfg.EventBusName != "" {
		env["VPCPEER_EVENT_BUS_NAME"] = cfg.EventBusName
	}
	if cfg.MetricsNamespace != "" {
		env["VPCPEER_METRICS_NAMESPACE"] = cfg.MetricsNamespace
	}
	return env
}

// peeringProperties は Custom::VpcPeering に渡すプロパティを組み立てる
func peeringProperties(pair matrix.Pair, env, parameterPrefix string) map[string]interface{} {
	req := pair.PeeringRequest(env)
	props := map[string]interface{}{
		"LocalVpcId":         req.LocalVpcId,
		"PeerVpcId":          req.PeerVpcId,
		"PeerRegion":         req.PeerRegion,
		"PeerRoleArn":        req.PeerRoleArn,
		"Name":               req.Name,
		"EnvName":            req.EnvName,
		"AllowDnsResolution": fmt.Sprintf("%t", req.AllowDnsResolution),
	}
	if parameterPrefix != "" {
		props["ParameterName"] = strings.TrimRight(parameterPrefix, "/") + "/" + pair.Name()
	}
	return props
}

// routesProperties は Custom::VpcPeeringRoutes に渡すプロパティを組み立てる
// connectionID にはピアリングリソースの参照を渡す
func routesProperties(pair matrix.Pair, connectionID interface{}) map[string]interface{} {
	req := pair.RoutesRequest("")
	props := map[string]interface{}{
		"PeeringConnectionId": connectionID,
		"PeerVpcId":           req.PeerVpcId,
		"PeerRegion":          req.PeerRegion,
		"PeerRoleArn":         req.PeerRoleArn,
	}
	if req.DestinationCidr != "" {
		props["DestinationCidr"] = req.DestinationCidr
	} else {
		props["LocalVpcId"] = req.LocalVpcId
	}
	return props
}

// peerRoleArns は引き受け対象のロールARNを重複なく返す
func peerRoleArns(pairs []matrix.Pair) []string {
	arns := make([]string, len(pairs))
	for i, p := range pairs {
		arns[i] = p.Target.RoleArn
	}
	return common.RemoveDuplicates(arns)
}
