package customresource

import (
	"fmt"
	"net"
	"regexp"
	"strings"
)

// routesSeparator はルート伝搬IDの接続IDとCIDRの区切り文字
const routesSeparator = "|"

var peeringIDPattern = regexp.MustCompile(`^pcx-[0-9a-f]{8,17}$`)

// PeeringIdentity はピアリング接続の識別子を作る
func PeeringIdentity(connectionID string) Identity {
	return Identity{Kind: KindPeering, ID: connectionID}
}

// RoutesIdentity はルート伝搬の識別子を作る
func RoutesIdentity(connectionID, cidr string) Identity {
	return Identity{Kind: KindRoutes, ID: connectionID + routesSeparator + cidr}
}

// String は物理リソースIDとして使う文字列を返す
func (i Identity) String() string {
	return i.ID
}

// RouteKey はルート伝搬IDから接続IDとCIDRを取り出す
func (i Identity) RouteKey() (connectionID, cidr string, err error) {
	if i.Kind != KindRoutes {
		return "", "", fmt.Errorf("%s の識別子はルート伝搬ではありません", i.Kind)
	}
	parts := strings.SplitN(i.ID, routesSeparator, 2)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("ルート伝搬IDの形式が不正です: %s", i.ID)
	}
	return parts[0], parts[1], nil
}

// ParseIdentity は物理リソースIDを指定種類の識別子として解析する
// 別の種類向けに発行されたIDや、作成失敗時に付与されたIDはエラーになる
func ParseIdentity(kind Kind, physicalID string) (Identity, error) {
	switch kind {
	case KindPeering:
		if !IsPeeringConnectionID(physicalID) {
			return Identity{}, fmt.Errorf("ピアリング接続IDではありません: %q", physicalID)
		}
		return PeeringIdentity(physicalID), nil
	case KindRoutes:
		parts := strings.SplitN(physicalID, routesSeparator, 2)
		if len(parts) != 2 || !IsPeeringConnectionID(parts[0]) {
			return Identity{}, fmt.Errorf("ルート伝搬IDではありません: %q", physicalID)
		}
		if _, _, err := net.ParseCIDR(parts[1]); err != nil {
			return Identity{}, fmt.Errorf("ルート伝搬IDのCIDRが不正です: %q", physicalID)
		}
		return RoutesIdentity(parts[0], parts[1]), nil
	default:
		return Identity{}, fmt.Errorf("未知のリソース種類: %s", kind)
	}
}

// IsPeeringConnectionID はピアリング接続IDの形式かを判定する
func IsPeeringConnectionID(id string) bool {
	return peeringIDPattern.MatchString(id)
}
