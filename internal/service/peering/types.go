package peering

import (
	"fmt"
)

// Request はピアリング接続の作成要求（カスタムリソースのプロパティ）
type Request struct {
	LocalVpcId  string `cfn:"LocalVpcId"`
	PeerVpcId   string `cfn:"PeerVpcId"`
	PeerOwnerId string `cfn:"PeerOwnerId"`
	PeerRegion  string `cfn:"PeerRegion"`
	PeerRoleArn string `cfn:"PeerRoleArn"`
	Name        string `cfn:"Name"`
	EnvName     string `cfn:"EnvName"`

	AllowDnsResolution bool   `cfn:"AllowDnsResolution"`
	ParameterName      string `cfn:"ParameterName"`
}

// Connection は作成済みピアリング接続の識別情報
type Connection struct {
	ConnectionId string
	StatusCode   string
}

// String は接続の表示用文字列を返す
func (c Connection) String() string {
	if c.StatusCode == "" {
		return c.ConnectionId
	}
	return fmt.Sprintf("%s (%s)", c.ConnectionId, c.StatusCode)
}

// ConnectionInfo は一覧表示用のピアリング接続情報
type ConnectionInfo struct {
	ConnectionId    string
	Name            string
	Status          string
	RequesterVpcId  string
	RequesterCidr   string
	RequesterOwner  string
	RequesterRegion string
	AccepterVpcId   string
	AccepterCidr    string
	AccepterOwner   string
	AccepterRegion  string
}

// ListOptions はピアリング接続一覧のオプション
type ListOptions struct {
	Filter string
	Exact  bool
	All    bool // 削除済み・拒否済みも含める
}

// 作成手順の名前（PartialCreateError に入る）
const (
	StepAssume = "assume-role"
	StepAccept = "accept"
	StepDNS    = "dns-options"
)

// PartialCreateError は接続作成後の手順で失敗したことを表す
// 接続は残っているため、メッセージには必ず接続IDを含める
type PartialCreateError struct {
	ConnectionID string
	Step         string
	Err          error
}

func (e *PartialCreateError) Error() string {
	return fmt.Sprintf("ピアリング接続 %s は作成済みですが %s の手順で失敗しました（接続は残っています）: %v", e.ConnectionID, e.Step, e.Err)
}

func (e *PartialCreateError) Unwrap() error {
	return e.Err
}
