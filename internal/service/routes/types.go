package routes

import "fmt"

// Request はルート伝搬のカスタムリソースのプロパティ
type Request struct {
	PeeringConnectionId string `cfn:"PeeringConnectionId"`
	PeerVpcId           string `cfn:"PeerVpcId"`
	PeerRegion          string `cfn:"PeerRegion"`
	PeerRoleArn         string `cfn:"PeerRoleArn"`
	DestinationCidr     string `cfn:"DestinationCidr"`
	// DestinationCidr が空のとき、このVPCのCIDRを宛先に使う
	LocalVpcId string `cfn:"LocalVpcId"`
}

// Outcome はルートテーブル1つ分の結果
type Outcome int

const (
	Created Outcome = iota
	AlreadyPresent
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Created:
		return "created"
	case AlreadyPresent:
		return "already_present"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("unknown(%d)", int(o))
	}
}

// TableOutcome はルートテーブルとその結果の組
type TableOutcome struct {
	RouteTableId string
	Outcome      Outcome
	Reason       error
}

// Report はルート伝搬の結果を処理順に保持する
type Report struct {
	ConnectionId    string
	DestinationCidr string
	Outcomes        []TableOutcome
}

// Count は指定結果のテーブル数を返す
func (r Report) Count(o Outcome) int {
	n := 0
	for _, t := range r.Outcomes {
		if t.Outcome == o {
			n++
		}
	}
	return n
}

// Succeeded は作成済みと既存を合わせたテーブル数を返す
func (r Report) Succeeded() int {
	return r.Count(Created) + r.Count(AlreadyPresent)
}

// SucceededTables は宛先ルートを持つことになったテーブルIDを返す
func (r Report) SucceededTables() []string {
	var ids []string
	for _, t := range r.Outcomes {
		if t.Outcome != Failed {
			ids = append(ids, t.RouteTableId)
		}
	}
	return ids
}

// Observer はテーブルごとの処理完了時に呼ばれる（CLIの進捗表示用）
type Observer func(done, total int, outcome TableOutcome)
