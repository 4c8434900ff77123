package cfn

import (
	"context"
	"sort"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"

	awsx "vpcpeer/internal/aws"
	"vpcpeer/internal/service/common"
	"vpcpeer/internal/service/customresource"
)

var peeringResourceKinds = map[string]customresource.Kind{
	customresource.ResourceTypePeering: customresource.KindPeering,
	customresource.ResourceTypeRoutes:  customresource.KindRoutes,
}

// GetPeeringResourcesFromStack はスタックからピアリング接続とルート伝搬のカスタムリソースを取得します
func GetPeeringResourcesFromStack(ctx context.Context, cfnClient awsx.CfnAPI, stackName string) ([]PeeringResource, error) {
	stackResources, err := GetStackResources(ctx, cfnClient, stackName)
	if err != nil {
		return nil, err
	}

	var resources []PeeringResource
	for _, resource := range stackResources {
		resourceType := awssdk.ToString(resource.ResourceType)
		kind, ok := peeringResourceKinds[resourceType]
		if !ok {
			continue
		}

		r := PeeringResource{
			LogicalId:  awssdk.ToString(resource.LogicalResourceId),
			Type:       resourceType,
			PhysicalId: awssdk.ToString(resource.PhysicalResourceId),
			Status:     string(resource.ResourceStatus),
		}
		// 作成失敗などで物理IDが接続を指していない場合は空のまま表示する
		if id, err := customresource.ParseIdentity(kind, r.PhysicalId); err == nil {
			switch kind {
			case customresource.KindPeering:
				r.ConnectionId = id.ID
			case customresource.KindRoutes:
				r.ConnectionId, r.DestinationCidr, _ = id.RouteKey()
			}
		}
		resources = append(resources, r)
	}

	sort.Slice(resources, func(i, j int) bool {
		return resources[i].LogicalId < resources[j].LogicalId
	})
	return resources, nil
}

// PeeringResourcesToTableData はカスタムリソース一覧を表形式に変換する
func PeeringResourcesToTableData(resources []PeeringResource) ([]common.TableColumn, [][]string) {
	columns := []common.TableColumn{
		{Header: "論理ID"},
		{Header: "種類"},
		{Header: "接続ID"},
		{Header: "宛先CIDR"},
		{Header: "状態"},
	}
	data := make([][]string, len(resources))
	for i, r := range resources {
		connectionID := r.ConnectionId
		if connectionID == "" {
			connectionID = "-"
		}
		data[i] = []string{r.LogicalId, r.Type, connectionID, r.DestinationCidr, r.Status}
	}
	return columns, data
}
