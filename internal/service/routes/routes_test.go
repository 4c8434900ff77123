package routes

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/cfn"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/google/go-cmp/cmp"

	awsx "vpcpeer/internal/aws"
	"vpcpeer/internal/aws/awstest"
	"vpcpeer/internal/config"
	"vpcpeer/internal/logging"
	"vpcpeer/internal/service/common"
	"vpcpeer/internal/service/customresource"
	"vpcpeer/internal/service/notify"
)

const (
	connectionID = "pcx-0123456789abcdef0"
	otherPcx     = "pcx-0fedcba9876543210"
	localCidr    = "10.0.0.0/16"
	peerVpc      = "vpc-peer"
	peerRoleArn  = "arn:aws:iam::222222222222:role/peering-accepter"
)

type fakeMetrics struct {
	counts map[string]float64
}

func (f *fakeMetrics) PutMetricData(_ context.Context, params *cloudwatch.PutMetricDataInput, _ ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	if f.counts == nil {
		f.counts = map[string]float64{}
	}
	for _, d := range params.MetricData {
		f.counts[aws.ToString(d.MetricName)] += aws.ToFloat64(d.Value)
	}
	return &cloudwatch.PutMetricDataOutput{}, nil
}

type fixture struct {
	ec2     *awstest.FakeEC2
	sts     *awstest.FakeSTS
	ssm     *awstest.FakeSSM
	metrics *fakeMetrics
	svc     *Service
	handler *Handler
}

func newFixture(recordState bool) *fixture {
	f := &fixture{
		ec2:     awstest.NewFakeEC2(),
		sts:     &awstest.FakeSTS{},
		ssm:     awstest.NewFakeSSM(),
		metrics: &fakeMetrics{},
	}
	cfg := config.Default()
	prefix := ""
	if recordState {
		prefix = cfg.RouteStatePrefix
	}
	f.svc = NewService(cfg, Deps{
		EC2:        f.ec2,
		STS:        f.sts,
		PeerEC2:    func(aws.Config) awsx.EC2API { return f.ec2 },
		BaseConfig: aws.Config{Region: "ap-northeast-1"},
		State:      NewStateStore(f.ssm, prefix),
		Metrics:    notify.NewMetricsPublisher(f.metrics, "VpcPeer"),
	}, logging.Discard())
	f.svc.now = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }
	f.handler = NewHandler(f.svc)
	return f
}

// threeTables はピアVPCに3つのテーブルを用意し、rtb-b だけ既にルートを持たせる
func (f *fixture) threeTables() {
	f.ec2.AddRouteTable(peerVpc, "rtb-a")
	f.ec2.AddRouteTable(peerVpc, "rtb-b", types.Route{
		DestinationCidrBlock:   aws.String(localCidr),
		VpcPeeringConnectionId: aws.String(connectionID),
	})
	f.ec2.AddRouteTable(peerVpc, "rtb-c")
	f.ec2.AddRouteTable("vpc-unrelated", "rtb-other")
}

func properties() map[string]interface{} {
	return map[string]interface{}{
		"ServiceToken":        "arn:aws:lambda:ap-northeast-1:111111111111:function:provider",
		"PeeringConnectionId": connectionID,
		"PeerVpcId":           peerVpc,
		"PeerRegion":          "us-west-2",
		"PeerRoleArn":         peerRoleArn,
		"DestinationCidr":     localCidr,
	}
}

func routesID() string {
	return customresource.RoutesIdentity(connectionID, localCidr).String()
}

func TestCreateCountsExistingRoutesAsSuccess(t *testing.T) {
	f := newFixture(true)
	f.threeTables()

	resp, err := customresource.Dispatch(context.Background(), f.handler, customresource.Request{
		Type:       cfn.RequestCreate,
		Properties: properties(),
	}, logging.Discard())
	if err != nil {
		t.Fatalf("Create error = %v", err)
	}

	want := customresource.Response{
		PhysicalResourceId: routesID(),
		Data:               map[string]interface{}{"RouteTablesUpdated": 3},
	}
	if diff := cmp.Diff(want, resp); diff != "" {
		t.Errorf("response mismatch (-want +got):\n%s", diff)
	}
	for _, table := range []string{"rtb-a", "rtb-b", "rtb-c"} {
		if n := f.ec2.RoutesTo(table, localCidr); n != 1 {
			t.Errorf("%s has %d routes to %s", table, n, localCidr)
		}
	}
	if n := f.ec2.RoutesTo("rtb-other", localCidr); n != 0 {
		t.Errorf("route added outside the peer VPC")
	}
	if diff := cmp.Diff([]string{peerRoleArn}, f.sts.Roles); diff != "" {
		t.Errorf("assumed roles mismatch (-want +got):\n%s", diff)
	}

	key := f.svc.deps.State.Key(connectionID, localCidr)
	if got := f.ssm.Params[key]; got != "rtb-a,rtb-b,rtb-c" {
		t.Errorf("recorded tables = %q", got)
	}
	if got := f.metrics.counts[notify.MetricRouteTablesUpdated]; got != 3 {
		t.Errorf("RouteTablesUpdated metric = %v", got)
	}
}

func TestApplyIsIdempotent(t *testing.T) {
	f := newFixture(true)
	f.threeTables()
	req := Request{
		PeeringConnectionId: connectionID,
		PeerVpcId:           peerVpc,
		PeerRegion:          "us-west-2",
		PeerRoleArn:         peerRoleArn,
		DestinationCidr:     localCidr,
	}

	first, err := f.svc.Apply(context.Background(), req, nil)
	if err != nil {
		t.Fatal(err)
	}
	second, err := f.svc.Apply(context.Background(), req, nil)
	if err != nil {
		t.Fatal(err)
	}

	if first.Succeeded() != 3 || second.Succeeded() != 3 {
		t.Errorf("succeeded = %d, %d", first.Succeeded(), second.Succeeded())
	}
	if n := second.Count(AlreadyPresent); n != 3 {
		t.Errorf("second run already present = %d", n)
	}
	for _, table := range []string{"rtb-a", "rtb-b", "rtb-c"} {
		if n := f.ec2.RoutesTo(table, localCidr); n != 1 {
			t.Errorf("%s has %d routes after two runs", table, n)
		}
	}
}

func TestApplyContinuesAfterTableFailure(t *testing.T) {
	f := newFixture(true)
	f.threeTables()
	f.ec2.RouteErrors["rtb-a"] = awstest.APIError("UnauthorizedOperation")

	var progress []int
	report, err := f.svc.Apply(context.Background(), Request{
		PeeringConnectionId: connectionID,
		PeerVpcId:           peerVpc,
		PeerRegion:          "us-west-2",
		PeerRoleArn:         peerRoleArn,
		DestinationCidr:     localCidr,
	}, func(done, total int, _ TableOutcome) {
		if total != 3 {
			t.Errorf("total = %d", total)
		}
		progress = append(progress, done)
	})
	if err != nil {
		t.Fatal(err)
	}

	var got []Outcome
	for _, o := range report.Outcomes {
		got = append(got, o.Outcome)
	}
	if diff := cmp.Diff([]Outcome{Failed, AlreadyPresent, Created}, got); diff != "" {
		t.Errorf("outcomes mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{1, 2, 3}, progress); diff != "" {
		t.Errorf("progress mismatch (-want +got):\n%s", diff)
	}
	if f.metrics.counts[notify.MetricRouteTablesFailed] != 1 {
		t.Errorf("failed metric = %v", f.metrics.counts[notify.MetricRouteTablesFailed])
	}
	if got := f.ssm.Params[f.svc.deps.State.Key(connectionID, localCidr)]; got != "rtb-b,rtb-c" {
		t.Errorf("recorded tables = %q, failed table must not be recorded", got)
	}
}

func TestCreateReportsFailedTables(t *testing.T) {
	f := newFixture(false)
	f.threeTables()
	f.ec2.RouteErrors["rtb-c"] = awstest.APIError("UnauthorizedOperation")

	resp, err := f.handler.Create(context.Background(), customresource.Request{
		Type:       cfn.RequestCreate,
		Properties: properties(),
	})
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]interface{}{"RouteTablesUpdated": 2, "RouteTablesFailed": 1}
	if diff := cmp.Diff(want, resp.Data); diff != "" {
		t.Errorf("data mismatch (-want +got):\n%s", diff)
	}
}

func TestApplyDeniedAssumption(t *testing.T) {
	f := newFixture(true)
	f.threeTables()
	f.sts.Err = awstest.APIError(awsx.CodeAccessDenied)

	_, err := f.handler.Create(context.Background(), customresource.Request{
		Type:       cfn.RequestCreate,
		Properties: properties(),
	})
	if !errors.Is(err, awsx.ErrAssumptionDenied) {
		t.Fatalf("error = %v, want ErrAssumptionDenied", err)
	}
	if n := f.ec2.Called("CreateRoute"); n != 0 {
		t.Errorf("CreateRoute called %d times", n)
	}
	if len(f.ssm.Params) != 0 {
		t.Errorf("state recorded: %v", f.ssm.Params)
	}
}

func TestApplyResolvesLocalCidr(t *testing.T) {
	f := newFixture(false)
	f.threeTables()
	f.ec2.VpcCidrs["vpc-local"] = localCidr

	props := properties()
	delete(props, "DestinationCidr")
	props["LocalVpcId"] = "vpc-local"

	resp, err := f.handler.Create(context.Background(), customresource.Request{Type: cfn.RequestCreate, Properties: props})
	if err != nil {
		t.Fatal(err)
	}
	if resp.PhysicalResourceId != routesID() {
		t.Errorf("PhysicalResourceId = %q", resp.PhysicalResourceId)
	}
}

func TestApplyLocalVpcLookupFailure(t *testing.T) {
	f := newFixture(false)
	f.threeTables()

	props := properties()
	delete(props, "DestinationCidr")
	props["LocalVpcId"] = "vpc-missing"

	_, err := f.handler.Create(context.Background(), customresource.Request{Type: cfn.RequestCreate, Properties: props})
	if err == nil || !strings.Contains(err.Error(), "VPC vpc-missing の取得に失敗") {
		t.Fatalf("error = %v, want lookup failure for vpc-missing", err)
	}
	if !awsx.HasErrorCode(err, awsx.CodeVpcNotFound) {
		t.Errorf("error code = %q", awsx.ErrorCode(err))
	}
	if len(f.sts.Roles) != 0 {
		t.Error("role assumed after a failed lookup")
	}
}

func TestApplyValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(map[string]interface{})
	}{
		{name: "invalid connection id", mutate: func(p map[string]interface{}) { p["PeeringConnectionId"] = "vpc-123" }},
		{name: "missing role", mutate: func(p map[string]interface{}) { delete(p, "PeerRoleArn") }},
		{name: "invalid cidr", mutate: func(p map[string]interface{}) { p["DestinationCidr"] = "10.0.0.0/99" }},
		{name: "ipv6 cidr", mutate: func(p map[string]interface{}) { p["DestinationCidr"] = "2001:db8::/56" }},
		{name: "no cidr source", mutate: func(p map[string]interface{}) { delete(p, "DestinationCidr") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(false)
			f.threeTables()
			props := properties()
			tt.mutate(props)

			if _, err := f.handler.Create(context.Background(), customresource.Request{Type: cfn.RequestCreate, Properties: props}); err == nil {
				t.Fatal("error expected")
			}
			if len(f.sts.Roles) != 0 {
				t.Errorf("role assumed for invalid request")
			}
		})
	}
}

func TestApplyPaginatesRouteTables(t *testing.T) {
	f := newFixture(false)
	f.threeTables()
	f.ec2.PageSize = 1

	report, err := f.svc.Apply(context.Background(), Request{
		PeeringConnectionId: connectionID,
		PeerVpcId:           peerVpc,
		PeerRegion:          "us-west-2",
		PeerRoleArn:         peerRoleArn,
		DestinationCidr:     localCidr,
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Outcomes) != 3 {
		t.Errorf("outcomes = %d, want 3", len(report.Outcomes))
	}
	if n := f.ec2.Called("DescribeRouteTables"); n != 3 {
		t.Errorf("DescribeRouteTables called %d times", n)
	}
}

func TestUpdateWithNewCidrChangesIdentity(t *testing.T) {
	f := newFixture(true)
	f.threeTables()

	props := properties()
	props["DestinationCidr"] = "10.1.0.0/16"
	resp, err := customresource.Dispatch(context.Background(), f.handler, customresource.Request{
		Type:          cfn.RequestUpdate,
		PhysicalID:    routesID(),
		Properties:    props,
		OldProperties: properties(),
	}, logging.Discard())
	if err != nil {
		t.Fatal(err)
	}
	if want := customresource.RoutesIdentity(connectionID, "10.1.0.0/16").String(); resp.PhysicalResourceId != want {
		t.Errorf("PhysicalResourceId = %q, want %q", resp.PhysicalResourceId, want)
	}
}

func deleteRequest() customresource.Request {
	return customresource.Request{
		Type:       cfn.RequestDelete,
		PhysicalID: routesID(),
		Properties: properties(),
	}
}

func TestDeleteUsesRecordedTables(t *testing.T) {
	f := newFixture(true)
	f.threeTables()
	if _, err := f.handler.Create(context.Background(), customresource.Request{Type: cfn.RequestCreate, Properties: properties()}); err != nil {
		t.Fatal(err)
	}

	// 作成後に追加されたテーブルは記録にないため触らない
	f.ec2.AddRouteTable(peerVpc, "rtb-late", types.Route{
		DestinationCidrBlock:   aws.String(localCidr),
		VpcPeeringConnectionId: aws.String(connectionID),
	})

	resp, err := customresource.Dispatch(context.Background(), f.handler, deleteRequest(), logging.Discard())
	if err != nil {
		t.Fatalf("Delete error = %v", err)
	}
	if resp.PhysicalResourceId != routesID() {
		t.Errorf("PhysicalResourceId = %q", resp.PhysicalResourceId)
	}
	for _, table := range []string{"rtb-a", "rtb-b", "rtb-c"} {
		if n := f.ec2.RoutesTo(table, localCidr); n != 0 {
			t.Errorf("%s still has route", table)
		}
	}
	if n := f.ec2.RoutesTo("rtb-late", localCidr); n != 1 {
		t.Errorf("unrecorded table modified")
	}
	if _, ok := f.ssm.Params[f.svc.deps.State.Key(connectionID, localCidr)]; ok {
		t.Error("record not deleted")
	}
	if got := f.metrics.counts[notify.MetricRouteTablesRemoved]; got != 3 {
		t.Errorf("RouteTablesRemoved metric = %v", got)
	}
}

func TestRemoveResults(t *testing.T) {
	f := newFixture(true)
	f.threeTables()
	// rtb-c の同じ宛先は別の接続を向いているので削除しない
	f.ec2.RouteTables["rtb-c"].Routes = []types.Route{{
		DestinationCidrBlock:   aws.String(localCidr),
		VpcPeeringConnectionId: aws.String(otherPcx),
	}}
	if err := f.svc.deps.State.Save(context.Background(), connectionID, localCidr, []string{"rtb-b", "rtb-c", "rtb-gone"}); err != nil {
		t.Fatal(err)
	}

	results := f.svc.Remove(context.Background(), Request{
		PeerVpcId:   peerVpc,
		PeerRegion:  "us-west-2",
		PeerRoleArn: peerRoleArn,
	}, connectionID, localCidr)

	got := map[string]common.CleanupStatus{}
	for _, r := range results {
		got[r.Resource] = r.Status
	}
	want := map[string]common.CleanupStatus{
		"rtb-gone":               common.AlreadyAbsent,
		"rtb-b のルート 10.0.0.0/16": common.Removed,
		"rtb-c のルート 10.0.0.0/16": common.AlreadyAbsent,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("results mismatch (-want +got):\n%s", diff)
	}
	if n := f.ec2.RoutesTo("rtb-c", localCidr); n != 1 {
		t.Error("route owned by another connection was removed")
	}
}

func TestDeleteFallsBackToEnumeration(t *testing.T) {
	f := newFixture(false)
	f.threeTables()
	if _, err := f.svc.Apply(context.Background(), Request{
		PeeringConnectionId: connectionID,
		PeerVpcId:           peerVpc,
		PeerRegion:          "us-west-2",
		PeerRoleArn:         peerRoleArn,
		DestinationCidr:     localCidr,
	}, nil); err != nil {
		t.Fatal(err)
	}

	if _, err := f.handler.Delete(context.Background(), customresource.Request{
		Type:       cfn.RequestDelete,
		Identity:   customresource.RoutesIdentity(connectionID, localCidr),
		PhysicalID: routesID(),
		Properties: properties(),
	}); err != nil {
		t.Fatal(err)
	}
	for _, table := range []string{"rtb-a", "rtb-b", "rtb-c"} {
		if n := f.ec2.RoutesTo(table, localCidr); n != 0 {
			t.Errorf("%s still has route", table)
		}
	}
}

func TestDeleteSwallowsFailures(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*fixture)
	}{
		{name: "denied assumption", setup: func(f *fixture) { f.sts.Err = awstest.APIError(awsx.CodeAccessDenied) }},
		{name: "describe failure", setup: func(f *fixture) {
			f.ec2.Errors["DescribeRouteTables"] = awstest.APIError("UnauthorizedOperation")
		}},
		{name: "delete failure", setup: func(f *fixture) {
			f.ec2.RouteErrors["rtb-b"] = awstest.APIError("UnauthorizedOperation")
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(true)
			f.threeTables()
			tt.setup(f)

			resp, err := customresource.Dispatch(context.Background(), f.handler, deleteRequest(), logging.Discard())
			if err != nil {
				t.Fatalf("Delete must not fail, got %v", err)
			}
			if resp.PhysicalResourceId != routesID() {
				t.Errorf("PhysicalResourceId = %q", resp.PhysicalResourceId)
			}
		})
	}
}

func TestDeleteKeepsRecordOnFailure(t *testing.T) {
	f := newFixture(true)
	f.threeTables()
	if _, err := f.handler.Create(context.Background(), customresource.Request{Type: cfn.RequestCreate, Properties: properties()}); err != nil {
		t.Fatal(err)
	}
	f.ec2.RouteErrors["rtb-b"] = awstest.APIError("UnauthorizedOperation")

	results := f.svc.Remove(context.Background(), Request{
		PeerVpcId:   peerVpc,
		PeerRegion:  "us-west-2",
		PeerRoleArn: peerRoleArn,
	}, connectionID, localCidr)

	removed, failed := countCleanup(results)
	if removed != 2 || failed != 1 {
		t.Errorf("removed=%d failed=%d", removed, failed)
	}
	if _, ok := f.ssm.Params[f.svc.deps.State.Key(connectionID, localCidr)]; !ok {
		t.Error("record must be kept while a route could not be removed")
	}
}

func TestStateStore(t *testing.T) {
	ctx := context.Background()
	client := awstest.NewFakeSSM()
	store := NewStateStore(client, "/vpcpeer/route-state/")

	if got, want := store.Key(connectionID, localCidr), "/vpcpeer/route-state/"+connectionID+"/10-0-0-0-16"; got != want {
		t.Errorf("Key() = %q, want %q", got, want)
	}

	if _, found, err := store.Load(ctx, connectionID, localCidr); err != nil || found {
		t.Fatalf("Load() found=%v err=%v", found, err)
	}
	if err := store.Save(ctx, connectionID, localCidr, []string{"rtb-b", "rtb-a", "rtb-b"}); err != nil {
		t.Fatal(err)
	}
	if err := store.Merge(ctx, connectionID, localCidr, []string{"rtb-c", "rtb-a"}); err != nil {
		t.Fatal(err)
	}
	tables, found, err := store.Load(ctx, connectionID, localCidr)
	if err != nil || !found {
		t.Fatalf("Load() found=%v err=%v", found, err)
	}
	if diff := cmp.Diff([]string{"rtb-a", "rtb-b", "rtb-c"}, tables); diff != "" {
		t.Errorf("tables mismatch (-want +got):\n%s", diff)
	}

	if err := store.Save(ctx, connectionID, localCidr, nil); err != nil {
		t.Fatal(err)
	}
	if len(client.Params) != 0 {
		t.Errorf("empty save must delete the record: %v", client.Params)
	}
	if err := store.Delete(ctx, connectionID, localCidr); err != nil {
		t.Errorf("deleting a missing record: %v", err)
	}

	var disabled *StateStore
	if err := disabled.Merge(ctx, connectionID, localCidr, []string{"rtb-a"}); err != nil {
		t.Errorf("disabled store: %v", err)
	}
}
