package notify

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	awsx "vpcpeer/internal/aws"
)

// MetricsPublisher はルート伝搬の集計をCloudWatchメトリクスとして送る
// 名前空間が空の場合は何もしない
type MetricsPublisher struct {
	client    awsx.MetricsAPI
	namespace string
}

// NewMetricsPublisher はMetricsPublisherを作成する
func NewMetricsPublisher(client awsx.MetricsAPI, namespace string) *MetricsPublisher {
	return &MetricsPublisher{client: client, namespace: namespace}
}

// Enabled は送信先が設定されているかを返す
func (p *MetricsPublisher) Enabled() bool {
	return p != nil && p.client != nil && p.namespace != ""
}

// PutCounts は接続IDをディメンションにした件数メトリクスをまとめて送る
func (p *MetricsPublisher) PutCounts(ctx context.Context, connectionID string, counts map[string]int) error {
	if !p.Enabled() || len(counts) == 0 {
		return nil
	}

	dimensions := []types.Dimension{
		{Name: aws.String("PeeringConnectionId"), Value: aws.String(connectionID)},
	}
	data := make([]types.MetricDatum, 0, len(counts))
	for _, name := range sortedKeys(counts) {
		data = append(data, types.MetricDatum{
			MetricName: aws.String(name),
			Value:      aws.Float64(float64(counts[name])),
			Unit:       types.StandardUnitCount,
			Dimensions: dimensions,
		})
	}

	_, err := p.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace:  aws.String(p.namespace),
		MetricData: data,
	})
	if err != nil {
		return fmt.Errorf("メトリクス送信に失敗: %w", err)
	}
	return nil
}
