package cfn

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation/types"
	"github.com/google/go-cmp/cmp"
)

type fakeCfn struct {
	resources []types.StackResource
	pages     [][]types.StackSummary
	filters   [][]types.StackStatus
}

func (f *fakeCfn) DescribeStackResources(_ context.Context, _ *cloudformation.DescribeStackResourcesInput, _ ...func(*cloudformation.Options)) (*cloudformation.DescribeStackResourcesOutput, error) {
	return &cloudformation.DescribeStackResourcesOutput{StackResources: f.resources}, nil
}

func (f *fakeCfn) ListStacks(_ context.Context, params *cloudformation.ListStacksInput, _ ...func(*cloudformation.Options)) (*cloudformation.ListStacksOutput, error) {
	f.filters = append(f.filters, params.StackStatusFilter)
	page := 0
	if params.NextToken != nil {
		page = 1
	}
	out := &cloudformation.ListStacksOutput{StackSummaries: f.pages[page]}
	if page+1 < len(f.pages) {
		out.NextToken = aws.String("next")
	}
	return out, nil
}

func resource(logicalID, resourceType, physicalID string) types.StackResource {
	return types.StackResource{
		LogicalResourceId:  aws.String(logicalID),
		ResourceType:       aws.String(resourceType),
		PhysicalResourceId: aws.String(physicalID),
		ResourceStatus:     types.ResourceStatusCreateComplete,
	}
}

func TestGetPeeringResourcesFromStack(t *testing.T) {
	client := &fakeCfn{resources: []types.StackResource{
		resource("SharedRoutes", "Custom::VpcPeeringRoutes", "pcx-0123456789abcdef0|10.0.0.0/16"),
		resource("SharedPeering", "Custom::VpcPeering", "pcx-0123456789abcdef0"),
		resource("Provider", "AWS::Lambda::Function", "vpcpeer-provider"),
		resource("BrokenPeering", "Custom::VpcPeering", "2026/01/01/[$LATEST]abc"),
	}}

	got, err := GetPeeringResourcesFromStack(context.Background(), client, "network")
	if err != nil {
		t.Fatal(err)
	}

	want := []PeeringResource{
		{LogicalId: "BrokenPeering", Type: "Custom::VpcPeering", PhysicalId: "2026/01/01/[$LATEST]abc", Status: "CREATE_COMPLETE"},
		{LogicalId: "SharedPeering", Type: "Custom::VpcPeering", PhysicalId: "pcx-0123456789abcdef0", Status: "CREATE_COMPLETE", ConnectionId: "pcx-0123456789abcdef0"},
		{LogicalId: "SharedRoutes", Type: "Custom::VpcPeeringRoutes", PhysicalId: "pcx-0123456789abcdef0|10.0.0.0/16", Status: "CREATE_COMPLETE", ConnectionId: "pcx-0123456789abcdef0", DestinationCidr: "10.0.0.0/16"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("resources mismatch (-want +got):\n%s", diff)
	}
}

func TestGetStackResourcesEmpty(t *testing.T) {
	if _, err := GetStackResources(context.Background(), &fakeCfn{}, "empty"); err == nil {
		t.Error("error expected for a stack without resources")
	}
}

func TestListCfnStacks(t *testing.T) {
	client := &fakeCfn{pages: [][]types.StackSummary{
		{{StackName: aws.String("network-peering"), StackStatus: types.StackStatusCreateComplete}},
		{{StackName: aws.String("app"), StackStatus: types.StackStatusUpdateComplete}},
	}}

	got, err := ListCfnStacks(context.Background(), client, true, "*peering*")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]Stack{{Name: "network-peering", Status: "CREATE_COMPLETE"}}, got); diff != "" {
		t.Errorf("stacks mismatch (-want +got):\n%s", diff)
	}
	if len(client.filters) != 2 || len(client.filters[0]) != len(activeStackStatuses) {
		t.Errorf("status filters = %v", client.filters)
	}
}
