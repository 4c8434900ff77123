package notify

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"github.com/google/go-cmp/cmp"
)

type fakeEvents struct {
	inputs []*eventbridge.PutEventsInput
	failed bool
}

func (f *fakeEvents) PutEvents(_ context.Context, params *eventbridge.PutEventsInput, _ ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error) {
	f.inputs = append(f.inputs, params)
	if f.failed {
		return &eventbridge.PutEventsOutput{
			FailedEntryCount: 1,
			Entries:          []types.PutEventsResultEntry{{ErrorMessage: aws.String("bus not found")}},
		}, nil
	}
	return &eventbridge.PutEventsOutput{}, nil
}

type fakeMetrics struct {
	inputs []*cloudwatch.PutMetricDataInput
}

func (f *fakeMetrics) PutMetricData(_ context.Context, params *cloudwatch.PutMetricDataInput, _ ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	f.inputs = append(f.inputs, params)
	return &cloudwatch.PutMetricDataOutput{}, nil
}

func TestEventPublisher(t *testing.T) {
	client := &fakeEvents{}
	p := NewEventPublisher(client, "peering-bus", "vpcpeer")

	event := LifecycleEvent{
		ConnectionId: "pcx-1",
		Status:       "active",
		RequestType:  "Create",
		Time:         time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := p.Publish(context.Background(), DetailTypePeeringCreated, event); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if len(client.inputs) != 1 {
		t.Fatalf("PutEvents calls = %d", len(client.inputs))
	}
	entry := client.inputs[0].Entries[0]
	if aws.ToString(entry.EventBusName) != "peering-bus" || aws.ToString(entry.DetailType) != DetailTypePeeringCreated {
		t.Errorf("entry = %+v", entry)
	}
	var got LifecycleEvent
	if err := json.Unmarshal([]byte(aws.ToString(entry.Detail)), &got); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(event, got); diff != "" {
		t.Errorf("detail mismatch (-want +got):\n%s", diff)
	}
}

func TestEventPublisherRejected(t *testing.T) {
	p := NewEventPublisher(&fakeEvents{failed: true}, "peering-bus", "vpcpeer")
	if err := p.Publish(context.Background(), DetailTypePeeringDeleted, LifecycleEvent{ConnectionId: "pcx-1"}); err == nil {
		t.Error("error expected")
	}
}

func TestPublishersDisabled(t *testing.T) {
	events := &fakeEvents{}
	metrics := &fakeMetrics{}

	if err := NewEventPublisher(events, "", "vpcpeer").Publish(context.Background(), DetailTypePeeringCreated, LifecycleEvent{}); err != nil {
		t.Fatal(err)
	}
	if err := NewMetricsPublisher(metrics, "").PutCounts(context.Background(), "pcx-1", map[string]int{MetricRouteTablesUpdated: 1}); err != nil {
		t.Fatal(err)
	}
	var nilPublisher *EventPublisher
	if err := nilPublisher.Publish(context.Background(), DetailTypePeeringCreated, LifecycleEvent{}); err != nil {
		t.Fatal(err)
	}
	if len(events.inputs) != 0 || len(metrics.inputs) != 0 {
		t.Error("disabled publishers must not call AWS")
	}
}

func TestMetricsPublisher(t *testing.T) {
	client := &fakeMetrics{}
	p := NewMetricsPublisher(client, "VpcPeer")

	err := p.PutCounts(context.Background(), "pcx-1", map[string]int{
		MetricRouteTablesUpdated: 3,
		MetricRouteTablesFailed:  1,
	})
	if err != nil {
		t.Fatalf("PutCounts() error = %v", err)
	}

	data := client.inputs[0].MetricData
	var names []string
	for _, d := range data {
		names = append(names, aws.ToString(d.MetricName))
	}
	if diff := cmp.Diff([]string{MetricRouteTablesFailed, MetricRouteTablesUpdated}, names); diff != "" {
		t.Errorf("metric names mismatch (-want +got):\n%s", diff)
	}
	if v := aws.ToFloat64(data[1].Value); v != 3 {
		t.Errorf("RouteTablesUpdated = %v", v)
	}
}
