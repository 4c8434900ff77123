package peering

import (
	"context"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"vpcpeer/internal/service/common"
)

// 既定の一覧で表示する（まだ生きている）ステータス
var liveStatuses = []string{
	string(types.VpcPeeringConnectionStateReasonCodeInitiatingRequest),
	string(types.VpcPeeringConnectionStateReasonCodePendingAcceptance),
	string(types.VpcPeeringConnectionStateReasonCodeProvisioning),
	string(types.VpcPeeringConnectionStateReasonCodeActive),
}

// ListConnections は現在のリージョンのピアリング接続一覧を取得する
func ListConnections(ctx context.Context, client ec2.DescribeVpcPeeringConnectionsAPIClient, opts ListOptions) ([]ConnectionInfo, error) {
	input := &ec2.DescribeVpcPeeringConnectionsInput{}
	if !opts.All {
		input.Filters = []types.Filter{
			{Name: aws.String("status-code"), Values: liveStatuses},
		}
	}

	var conns []ConnectionInfo
	paginator := ec2.NewDescribeVpcPeeringConnectionsPaginator(client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf(common.ListErrorFormat, common.ErrorIcon, "ピアリング接続", err)
		}
		for _, c := range page.VpcPeeringConnections {
			info := toConnectionInfo(c)
			if !common.MatchesFilter(info.Name, opts.Filter, opts.Exact) &&
				!common.MatchesFilter(info.ConnectionId, opts.Filter, opts.Exact) {
				continue
			}
			conns = append(conns, info)
		}
	}

	sort.Slice(conns, func(i, j int) bool {
		if conns[i].Name != conns[j].Name {
			return conns[i].Name < conns[j].Name
		}
		return conns[i].ConnectionId < conns[j].ConnectionId
	})
	return conns, nil
}

func toConnectionInfo(c types.VpcPeeringConnection) ConnectionInfo {
	info := ConnectionInfo{
		ConnectionId: aws.ToString(c.VpcPeeringConnectionId),
		Name:         "（名前なし）",
		Status:       statusCode(&c),
	}
	for _, tag := range c.Tags {
		if aws.ToString(tag.Key) == "Name" && tag.Value != nil {
			info.Name = aws.ToString(tag.Value)
			break
		}
	}
	if r := c.RequesterVpcInfo; r != nil {
		info.RequesterVpcId = aws.ToString(r.VpcId)
		info.RequesterCidr = aws.ToString(r.CidrBlock)
		info.RequesterOwner = aws.ToString(r.OwnerId)
		info.RequesterRegion = aws.ToString(r.Region)
	}
	if a := c.AccepterVpcInfo; a != nil {
		info.AccepterVpcId = aws.ToString(a.VpcId)
		info.AccepterCidr = aws.ToString(a.CidrBlock)
		info.AccepterOwner = aws.ToString(a.OwnerId)
		info.AccepterRegion = aws.ToString(a.Region)
	}
	return info
}

// ConnectionsToTableData はピアリング接続一覧を表形式に変換する
func ConnectionsToTableData(conns []ConnectionInfo) ([]common.TableColumn, [][]string) {
	columns := []common.TableColumn{
		{Header: "接続ID"},
		{Header: "名前"},
		{Header: "状態"},
		{Header: "要求側VPC"},
		{Header: "承認側VPC"},
		{Header: "承認側アカウント"},
		{Header: "承認側リージョン"},
	}
	data := make([][]string, len(conns))
	for i, c := range conns {
		data[i] = []string{
			c.ConnectionId,
			c.Name,
			c.Status,
			vpcLabel(c.RequesterVpcId, c.RequesterCidr),
			vpcLabel(c.AccepterVpcId, c.AccepterCidr),
			c.AccepterOwner,
			c.AccepterRegion,
		}
	}
	return columns, data
}

func vpcLabel(id, cidr string) string {
	if cidr == "" {
		return id
	}
	return fmt.Sprintf("%s (%s)", id, cidr)
}
