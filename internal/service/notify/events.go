package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"

	awsx "vpcpeer/internal/aws"
)

// EventPublisher はライフサイクルイベントをEventBridgeへ送る
// バス名が空の場合は何もしない
type EventPublisher struct {
	client  awsx.EventsAPI
	busName string
	source  string
}

// NewEventPublisher はEventPublisherを作成する
func NewEventPublisher(client awsx.EventsAPI, busName, source string) *EventPublisher {
	return &EventPublisher{client: client, busName: busName, source: source}
}

// Enabled は送信先が設定されているかを返す
func (p *EventPublisher) Enabled() bool {
	return p != nil && p.client != nil && p.busName != ""
}

// Publish はイベントを1件送信する
func (p *EventPublisher) Publish(ctx context.Context, detailType string, event LifecycleEvent) error {
	if !p.Enabled() {
		return nil
	}

	detail, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("イベント詳細のシリアライズに失敗: %w", err)
	}

	out, err := p.client.PutEvents(ctx, &eventbridge.PutEventsInput{
		Entries: []types.PutEventsRequestEntry{
			{
				EventBusName: aws.String(p.busName),
				Source:       aws.String(p.source),
				DetailType:   aws.String(detailType),
				Detail:       aws.String(string(detail)),
				Resources:    []string{event.ConnectionId},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("イベント送信に失敗: %w", err)
	}
	if out.FailedEntryCount > 0 {
		msg := "不明なエラー"
		if len(out.Entries) > 0 && out.Entries[0].ErrorMessage != nil {
			msg = aws.ToString(out.Entries[0].ErrorMessage)
		}
		return fmt.Errorf("イベント送信が拒否されました: %s", msg)
	}
	return nil
}
