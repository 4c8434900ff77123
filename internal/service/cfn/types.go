package cfn

// Stack はCloudFormationスタックの名前とステータスを表す構造体
type Stack struct {
	Name   string
	Status string
}

// PeeringResource はスタック内のピアリング関連カスタムリソース
type PeeringResource struct {
	LogicalId  string
	Type       string
	PhysicalId string
	Status     string
	// 物理IDから読み取った接続IDと宛先CIDR（ルート伝搬のみCIDRを持つ）
	ConnectionId    string
	DestinationCidr string
}
