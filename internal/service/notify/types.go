package notify

import "time"

// イベントの詳細種別
const (
	DetailTypePeeringCreated = "VPC Peering Connection Created"
	DetailTypePeeringDeleted = "VPC Peering Connection Deleted"
	DetailTypeRoutesUpdated  = "VPC Peering Routes Updated"
	DetailTypeRoutesRemoved  = "VPC Peering Routes Removed"
)

// メトリクス名
const (
	MetricRouteTablesUpdated = "RouteTablesUpdated"
	MetricRouteTablesFailed  = "RouteTablesFailed"
	MetricRouteTablesRemoved = "RouteTablesRemoved"
)

// LifecycleEvent はEventBridgeに送るライフサイクルイベントの詳細
type LifecycleEvent struct {
	ConnectionId string    `json:"connectionId"`
	Name         string    `json:"name,omitempty"`
	Env          string    `json:"env,omitempty"`
	Status       string    `json:"status,omitempty"`
	RequestType  string    `json:"requestType"`
	RouteTables  int       `json:"routeTables,omitempty"`
	Failed       int       `json:"failed,omitempty"`
	Time         time.Time `json:"time"`
}
