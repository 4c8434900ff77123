package matrix

// Peer はマトリクスファイル上のVPC定義
type Peer struct {
	Name          string   `yaml:"-"`
	VpcId         string   `yaml:"vpc_id"`
	Region        string   `yaml:"region"`
	RoleArn       string   `yaml:"role_arn"`
	Cidr          string   `yaml:"cidr"`
	DNSResolution bool     `yaml:"dns_resolution"`
	RouteTableIds []string `yaml:"route_table_ids"` // ローカル側に戻りルートを追加するテーブル
}

// File はピアリングマトリクスファイル全体
type File struct {
	Peers         map[string]Peer     `yaml:"peers"`
	PeeringMatrix map[string][]string `yaml:"peering_matrix"`
}

// Pair は接続元（ローカル）と接続先（ピア）の組
type Pair struct {
	Source Peer
	Target Peer
}
