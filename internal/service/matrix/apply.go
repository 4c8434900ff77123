package matrix

import (
	"context"
	"fmt"
	"sync"

	"vpcpeer/internal/service/common"
	"vpcpeer/internal/service/peering"
	"vpcpeer/internal/service/routes"
)

// PeeringCreator はピアリング接続を作成する
type PeeringCreator interface {
	Create(ctx context.Context, req peering.Request) (peering.Connection, error)
}

// RoutesApplier はピア側のルートを追加する
type RoutesApplier interface {
	Apply(ctx context.Context, req routes.Request, observer routes.Observer) (routes.Report, error)
}

// Services は接続元1つ分の操作をまとめたもの
type Services struct {
	Peering PeeringCreator
	Routes  RoutesApplier
}

// ServicesFactory は接続元のリージョンに合わせた Services を作る
type ServicesFactory func(source Peer) (Services, error)

// PairResult は組ごとの実行結果
type PairResult struct {
	Pair         Pair
	ConnectionId string
	Routes       routes.Report
	Err          error
}

// ProcessResult は共通の集計形式に変換する
func (r PairResult) ProcessResult() common.ProcessResult {
	return common.ProcessResult{Item: r.Pair.Name(), Success: r.Err == nil, Error: r.Err}
}

// ApplyOptions はマトリクス適用のオプション
type ApplyOptions struct {
	Env     string
	Workers int
	// OnDone は組の処理が終わるたびに呼ばれる（並列に呼ばれる）
	OnDone func(PairResult)
}

// Apply はすべての組について、接続の作成・承認とピア側へのルート追加を行う
// 組どうしは並列に処理し、各組の手順は順番に実行する
func Apply(ctx context.Context, pairs []Pair, factory ServicesFactory, opts ApplyOptions) []PairResult {
	results := make([]PairResult, len(pairs))
	executor := common.NewParallelExecutor(opts.Workers)
	var mu sync.Mutex

	for i, pair := range pairs {
		idx := i
		p := pair
		executor.Execute(func() {
			result := applyPair(ctx, p, factory, opts.Env)
			results[idx] = result
			if opts.OnDone != nil {
				mu.Lock()
				opts.OnDone(result)
				mu.Unlock()
			}
		})
	}
	executor.Wait()

	return results
}

func applyPair(ctx context.Context, pair Pair, factory ServicesFactory, env string) PairResult {
	result := PairResult{Pair: pair}

	svc, err := factory(pair.Source)
	if err != nil {
		result.Err = fmt.Errorf("%s のクライアント作成に失敗: %w", pair.Source.Name, err)
		return result
	}

	conn, err := svc.Peering.Create(ctx, pair.PeeringRequest(env))
	if err != nil {
		result.Err = err
		return result
	}
	result.ConnectionId = conn.ConnectionId

	report, err := svc.Routes.Apply(ctx, pair.RoutesRequest(conn.ConnectionId), nil)
	result.Routes = report
	if err != nil {
		result.Err = fmt.Errorf("接続 %s のルート追加に失敗: %w", conn.ConnectionId, err)
		return result
	}
	if failed := report.Count(routes.Failed); failed > 0 {
		result.Err = fmt.Errorf("接続 %s: %d個のルートテーブルでルート追加に失敗", conn.ConnectionId, failed)
	}
	return result
}
