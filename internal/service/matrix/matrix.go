// Package matrix はピアリングマトリクス（YAML）を読み込み、接続する組に展開する
package matrix

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v2"

	"vpcpeer/internal/service/peering"
	"vpcpeer/internal/service/routes"
)

// Load はマトリクスファイルを読み込む
func Load(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("マトリクスファイル %s の読み込みに失敗: %w", path, err)
	}
	f, err := Parse(data)
	if err != nil {
		return File{}, fmt.Errorf("マトリクスファイル %s: %w", path, err)
	}
	return f, nil
}

// Parse はYAMLを解析し、各ピアに名前を設定する
func Parse(data []byte) (File, error) {
	var f File
	if err := yaml.UnmarshalStrict(data, &f); err != nil {
		return File{}, fmt.Errorf("YAMLの解析に失敗: %w", err)
	}
	for name, p := range f.Peers {
		p.Name = name
		f.Peers[name] = p
	}
	return f, nil
}

// Pairs はマトリクスを接続する組の一覧に展開する
// source を指定するとその接続元だけを対象にする。結果は名前順に並ぶ
func (f File) Pairs(source string) ([]Pair, error) {
	if source != "" {
		if _, ok := f.PeeringMatrix[source]; !ok {
			return nil, fmt.Errorf("接続元 %q はピアリングマトリクスにありません", source)
		}
	}

	sources := make([]string, 0, len(f.PeeringMatrix))
	for name := range f.PeeringMatrix {
		if source == "" || name == source {
			sources = append(sources, name)
		}
	}
	sort.Strings(sources)

	var pairs []Pair
	seen := make(map[string]struct{})
	for _, s := range sources {
		src, err := f.peer(s)
		if err != nil {
			return nil, err
		}

		targets := append([]string(nil), f.PeeringMatrix[s]...)
		sort.Strings(targets)
		for _, t := range targets {
			if t == s {
				return nil, fmt.Errorf("%s を自分自身とピアリングすることはできません", s)
			}
			key := pairKey(s, t)
			if _, dup := seen[key]; dup {
				return nil, fmt.Errorf("%s と %s の組が重複しています", s, t)
			}
			seen[key] = struct{}{}

			dst, err := f.peer(t)
			if err != nil {
				return nil, err
			}
			if dst.RoleArn == "" {
				return nil, fmt.Errorf("接続先 %s の role_arn が指定されていません", t)
			}
			pairs = append(pairs, Pair{Source: src, Target: dst})
		}
	}
	return pairs, nil
}

func (f File) peer(name string) (Peer, error) {
	p, ok := f.Peers[name]
	if !ok {
		return Peer{}, fmt.Errorf("ピア %q の定義がありません", name)
	}
	if p.VpcId == "" || p.Region == "" {
		return Peer{}, fmt.Errorf("ピア %q には vpc_id と region が必要です", name)
	}
	return p, nil
}

// pairKey は向きに関係なく同じ組を同じキーにする
func pairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "\x00" + b
}

// Name は組の表示名を返す
func (p Pair) Name() string {
	return fmt.Sprintf("%s-to-%s", p.Source.Name, p.Target.Name)
}

// PeeringRequest は組からピアリング接続の作成要求を作る
func (p Pair) PeeringRequest(env string) peering.Request {
	return peering.Request{
		LocalVpcId:         p.Source.VpcId,
		PeerVpcId:          p.Target.VpcId,
		PeerRegion:         p.Target.Region,
		PeerRoleArn:        p.Target.RoleArn,
		Name:               p.Name(),
		EnvName:            env,
		AllowDnsResolution: p.Target.DNSResolution,
	}
}

// RoutesRequest は組と作成済み接続IDからピア側のルート伝搬要求を作る
// 接続元の cidr が空なら接続元VPCから参照する
func (p Pair) RoutesRequest(connectionID string) routes.Request {
	return routes.Request{
		PeeringConnectionId: connectionID,
		PeerVpcId:           p.Target.VpcId,
		PeerRegion:          p.Target.Region,
		PeerRoleArn:         p.Target.RoleArn,
		DestinationCidr:     p.Source.Cidr,
		LocalVpcId:          p.Source.VpcId,
	}
}
