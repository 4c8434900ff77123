// Package awstest はテスト用にAWS APIをメモリ上で模倣する実装を提供する
package awstest

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/smithy-go"
)

// APIError は指定コードのAPIエラーを作る
func APIError(code string) error {
	return &smithy.GenericAPIError{Code: code, Message: code}
}

// FakeEC2 はピアリング接続とルートテーブルを保持するインメモリのEC2
// 要求側と承認側で同じインスタンスを共有すれば、両アカウントから見える1つの世界になる
type FakeEC2 struct {
	mu sync.Mutex

	Connections map[string]*types.VpcPeeringConnection
	RouteTables map[string]*types.RouteTable
	VpcCidrs    map[string]string

	// メソッド名ごとに返すエラー
	Errors map[string]error
	// ルートテーブルごとに CreateRoute / DeleteRoute で返すエラー
	RouteErrors map[string]error

	// DescribeRouteTables の1ページあたりの件数（0なら全件）
	PageSize int

	// 承認時に設定するステータス（空なら active）
	AcceptStatus types.VpcPeeringConnectionStateReasonCode

	Calls []string
	Tags  map[string]map[string]string

	nextID int
}

// NewFakeEC2 は空のFakeEC2を作成する
func NewFakeEC2() *FakeEC2 {
	return &FakeEC2{
		Connections: map[string]*types.VpcPeeringConnection{},
		RouteTables: map[string]*types.RouteTable{},
		VpcCidrs:    map[string]string{},
		Errors:      map[string]error{},
		RouteErrors: map[string]error{},
		Tags:        map[string]map[string]string{},
	}
}

// AddRouteTable はVPCにルートテーブルを追加する
func (f *FakeEC2) AddRouteTable(vpcID, tableID string, routes ...types.Route) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.RouteTables[tableID] = &types.RouteTable{
		RouteTableId: aws.String(tableID),
		VpcId:        aws.String(vpcID),
		Routes:       routes,
	}
}

// AddConnection は指定ステータスのピアリング接続を追加する
func (f *FakeEC2) AddConnection(id string, status types.VpcPeeringConnectionStateReasonCode) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Connections[id] = &types.VpcPeeringConnection{
		VpcPeeringConnectionId: aws.String(id),
		Status:                 &types.VpcPeeringConnectionStateReason{Code: status},
	}
}

// RoutesTo は指定テーブルで宛先CIDRに一致するルートの数を返す
func (f *FakeEC2) RoutesTo(tableID, cidr string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	table, ok := f.RouteTables[tableID]
	if !ok {
		return 0
	}
	n := 0
	for _, r := range table.Routes {
		if aws.ToString(r.DestinationCidrBlock) == cidr {
			n++
		}
	}
	return n
}

// Called は指定メソッドが呼ばれた回数を返す
func (f *FakeEC2) Called(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.Calls {
		if c == method {
			n++
		}
	}
	return n
}

func (f *FakeEC2) record(method string) error {
	f.Calls = append(f.Calls, method)
	return f.Errors[method]
}

func (f *FakeEC2) CreateVpcPeeringConnection(_ context.Context, params *ec2.CreateVpcPeeringConnectionInput, _ ...func(*ec2.Options)) (*ec2.CreateVpcPeeringConnectionOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("CreateVpcPeeringConnection"); err != nil {
		return nil, err
	}
	f.nextID++
	id := fmt.Sprintf("pcx-%017x", f.nextID)
	conn := &types.VpcPeeringConnection{
		VpcPeeringConnectionId: aws.String(id),
		Status:                 &types.VpcPeeringConnectionStateReason{Code: types.VpcPeeringConnectionStateReasonCodePendingAcceptance},
		RequesterVpcInfo:       &types.VpcPeeringConnectionVpcInfo{VpcId: params.VpcId},
		AccepterVpcInfo: &types.VpcPeeringConnectionVpcInfo{
			VpcId:   params.PeerVpcId,
			OwnerId: params.PeerOwnerId,
			Region:  params.PeerRegion,
		},
	}
	f.Connections[id] = conn
	return &ec2.CreateVpcPeeringConnectionOutput{VpcPeeringConnection: conn}, nil
}

func (f *FakeEC2) AcceptVpcPeeringConnection(_ context.Context, params *ec2.AcceptVpcPeeringConnectionInput, _ ...func(*ec2.Options)) (*ec2.AcceptVpcPeeringConnectionOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("AcceptVpcPeeringConnection"); err != nil {
		return nil, err
	}
	conn, ok := f.Connections[aws.ToString(params.VpcPeeringConnectionId)]
	if !ok {
		return nil, APIError("InvalidVpcPeeringConnectionID.NotFound")
	}
	status := f.AcceptStatus
	if status == "" {
		status = types.VpcPeeringConnectionStateReasonCodeActive
	}
	conn.Status = &types.VpcPeeringConnectionStateReason{Code: status}
	return &ec2.AcceptVpcPeeringConnectionOutput{VpcPeeringConnection: conn}, nil
}

func (f *FakeEC2) DeleteVpcPeeringConnection(_ context.Context, params *ec2.DeleteVpcPeeringConnectionInput, _ ...func(*ec2.Options)) (*ec2.DeleteVpcPeeringConnectionOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("DeleteVpcPeeringConnection"); err != nil {
		return nil, err
	}
	conn, ok := f.Connections[aws.ToString(params.VpcPeeringConnectionId)]
	if !ok {
		return nil, APIError("InvalidVpcPeeringConnectionID.NotFound")
	}
	conn.Status = &types.VpcPeeringConnectionStateReason{Code: types.VpcPeeringConnectionStateReasonCodeDeleted}
	return &ec2.DeleteVpcPeeringConnectionOutput{Return: aws.Bool(true)}, nil
}

func (f *FakeEC2) DescribeVpcPeeringConnections(_ context.Context, params *ec2.DescribeVpcPeeringConnectionsInput, _ ...func(*ec2.Options)) (*ec2.DescribeVpcPeeringConnectionsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("DescribeVpcPeeringConnections"); err != nil {
		return nil, err
	}

	var ids []string
	if len(params.VpcPeeringConnectionIds) > 0 {
		for _, id := range params.VpcPeeringConnectionIds {
			if _, ok := f.Connections[id]; !ok {
				return nil, APIError("InvalidVpcPeeringConnectionID.NotFound")
			}
			ids = append(ids, id)
		}
	} else {
		for id := range f.Connections {
			ids = append(ids, id)
		}
		sort.Strings(ids)
	}

	statuses := filterValues(params.Filters, "status-code")
	out := &ec2.DescribeVpcPeeringConnectionsOutput{}
	for _, id := range ids {
		conn := f.Connections[id]
		if statuses != nil {
			if _, ok := statuses[string(conn.Status.Code)]; !ok {
				continue
			}
		}
		out.VpcPeeringConnections = append(out.VpcPeeringConnections, *conn)
	}
	return out, nil
}

func (f *FakeEC2) ModifyVpcPeeringConnectionOptions(_ context.Context, params *ec2.ModifyVpcPeeringConnectionOptionsInput, _ ...func(*ec2.Options)) (*ec2.ModifyVpcPeeringConnectionOptionsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("ModifyVpcPeeringConnectionOptions"); err != nil {
		return nil, err
	}
	if _, ok := f.Connections[aws.ToString(params.VpcPeeringConnectionId)]; !ok {
		return nil, APIError("InvalidVpcPeeringConnectionID.NotFound")
	}
	return &ec2.ModifyVpcPeeringConnectionOptionsOutput{}, nil
}

func (f *FakeEC2) CreateTags(_ context.Context, params *ec2.CreateTagsInput, _ ...func(*ec2.Options)) (*ec2.CreateTagsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("CreateTags"); err != nil {
		return nil, err
	}
	for _, res := range params.Resources {
		if f.Tags[res] == nil {
			f.Tags[res] = map[string]string{}
		}
		for _, tag := range params.Tags {
			f.Tags[res][aws.ToString(tag.Key)] = aws.ToString(tag.Value)
		}
		if conn, ok := f.Connections[res]; ok {
			conn.Tags = append(conn.Tags, params.Tags...)
		}
	}
	return &ec2.CreateTagsOutput{}, nil
}

func (f *FakeEC2) DescribeRouteTables(_ context.Context, params *ec2.DescribeRouteTablesInput, _ ...func(*ec2.Options)) (*ec2.DescribeRouteTablesOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("DescribeRouteTables"); err != nil {
		return nil, err
	}

	vpcs := filterValues(params.Filters, "vpc-id")
	tables := filterValues(params.Filters, "route-table-id")
	var ids []string
	for id, table := range f.RouteTables {
		if vpcs != nil {
			if _, ok := vpcs[aws.ToString(table.VpcId)]; !ok {
				continue
			}
		}
		if tables != nil {
			if _, ok := tables[id]; !ok {
				continue
			}
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)

	start := 0
	if params.NextToken != nil {
		start, _ = strconv.Atoi(aws.ToString(params.NextToken))
	}
	end := len(ids)
	if f.PageSize > 0 && start+f.PageSize < end {
		end = start + f.PageSize
	}

	out := &ec2.DescribeRouteTablesOutput{}
	for _, id := range ids[start:end] {
		table := *f.RouteTables[id]
		table.Routes = append([]types.Route(nil), table.Routes...)
		out.RouteTables = append(out.RouteTables, table)
	}
	if end < len(ids) {
		out.NextToken = aws.String(strconv.Itoa(end))
	}
	return out, nil
}

func (f *FakeEC2) CreateRoute(_ context.Context, params *ec2.CreateRouteInput, _ ...func(*ec2.Options)) (*ec2.CreateRouteOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("CreateRoute"); err != nil {
		return nil, err
	}
	tableID := aws.ToString(params.RouteTableId)
	if err := f.RouteErrors[tableID]; err != nil {
		return nil, err
	}
	table, ok := f.RouteTables[tableID]
	if !ok {
		return nil, APIError("InvalidRouteTableID.NotFound")
	}
	cidr := aws.ToString(params.DestinationCidrBlock)
	for _, r := range table.Routes {
		if aws.ToString(r.DestinationCidrBlock) == cidr {
			return nil, APIError("RouteAlreadyExists")
		}
	}
	table.Routes = append(table.Routes, types.Route{
		DestinationCidrBlock:   aws.String(cidr),
		VpcPeeringConnectionId: params.VpcPeeringConnectionId,
	})
	return &ec2.CreateRouteOutput{Return: aws.Bool(true)}, nil
}

func (f *FakeEC2) DeleteRoute(_ context.Context, params *ec2.DeleteRouteInput, _ ...func(*ec2.Options)) (*ec2.DeleteRouteOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("DeleteRoute"); err != nil {
		return nil, err
	}
	tableID := aws.ToString(params.RouteTableId)
	if err := f.RouteErrors[tableID]; err != nil {
		return nil, err
	}
	table, ok := f.RouteTables[tableID]
	if !ok {
		return nil, APIError("InvalidRouteTableID.NotFound")
	}
	cidr := aws.ToString(params.DestinationCidrBlock)
	for i, r := range table.Routes {
		if aws.ToString(r.DestinationCidrBlock) == cidr {
			table.Routes = append(table.Routes[:i], table.Routes[i+1:]...)
			return &ec2.DeleteRouteOutput{}, nil
		}
	}
	return nil, APIError("InvalidRoute.NotFound")
}

func (f *FakeEC2) DescribeVpcs(_ context.Context, params *ec2.DescribeVpcsInput, _ ...func(*ec2.Options)) (*ec2.DescribeVpcsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("DescribeVpcs"); err != nil {
		return nil, err
	}
	out := &ec2.DescribeVpcsOutput{}
	for _, id := range params.VpcIds {
		cidr, ok := f.VpcCidrs[id]
		if !ok {
			return nil, APIError("InvalidVpcID.NotFound")
		}
		out.Vpcs = append(out.Vpcs, types.Vpc{VpcId: aws.String(id), CidrBlock: aws.String(cidr)})
	}
	return out, nil
}

// filterValues は指定名のフィルタ値を集合で返す（フィルタがなければnil）
func filterValues(filters []types.Filter, name string) map[string]struct{} {
	var values map[string]struct{}
	for _, f := range filters {
		if aws.ToString(f.Name) != name {
			continue
		}
		if values == nil {
			values = map[string]struct{}{}
		}
		for _, v := range f.Values {
			values[v] = struct{}{}
		}
	}
	return values
}
