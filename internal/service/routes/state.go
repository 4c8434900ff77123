package routes

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"

	awsx "vpcpeer/internal/aws"
	"vpcpeer/internal/service/common"
)

var cidrReplacer = strings.NewReplacer(".", "-", "/", "-", ":", "-")

// StateStore はルートを追加したテーブルの集合をParameter Storeに記録する
// 削除時に作成時と同じテーブル集合を対象にするために使う
type StateStore struct {
	client awsx.SSMAPI
	prefix string
}

// NewStateStore は記録先を作成する（prefix が空なら記録しない）
func NewStateStore(client awsx.SSMAPI, prefix string) *StateStore {
	return &StateStore{client: client, prefix: strings.TrimRight(prefix, "/")}
}

// Enabled は記録が有効かどうかを返す
func (s *StateStore) Enabled() bool {
	return s != nil && s.client != nil && s.prefix != ""
}

// Key は接続IDとCIDRに対応するパラメータ名を返す
func (s *StateStore) Key(connectionID, cidr string) string {
	return fmt.Sprintf("%s/%s/%s", s.prefix, connectionID, cidrReplacer.Replace(cidr))
}

// Load は記録済みのテーブル集合を返す（記録がなければ found=false）
func (s *StateStore) Load(ctx context.Context, connectionID, cidr string) (tables []string, found bool, err error) {
	if !s.Enabled() {
		return nil, false, nil
	}
	out, err := s.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name: aws.String(s.Key(connectionID, cidr)),
	})
	if err != nil {
		if awsx.HasErrorCode(err, awsx.CodeParameterNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("ルート記録 %s の取得に失敗: %w", s.Key(connectionID, cidr), err)
	}
	if out.Parameter == nil {
		return nil, false, nil
	}
	return splitList(aws.ToString(out.Parameter.Value)), true, nil
}

// Save はテーブル集合を上書き保存する（空集合なら記録を消す）
func (s *StateStore) Save(ctx context.Context, connectionID, cidr string, tables []string) error {
	if !s.Enabled() {
		return nil
	}
	tables = normalizeList(tables)
	if len(tables) == 0 {
		return s.Delete(ctx, connectionID, cidr)
	}
	_, err := s.client.PutParameter(ctx, &ssm.PutParameterInput{
		Name:      aws.String(s.Key(connectionID, cidr)),
		Value:     aws.String(strings.Join(tables, ",")),
		Type:      types.ParameterTypeStringList,
		Overwrite: aws.Bool(true),
	})
	if err != nil {
		return fmt.Errorf("ルート記録 %s の保存に失敗: %w", s.Key(connectionID, cidr), err)
	}
	return nil
}

// Merge は既存の記録にテーブルを加えて保存する
func (s *StateStore) Merge(ctx context.Context, connectionID, cidr string, tables []string) error {
	if !s.Enabled() {
		return nil
	}
	existing, _, err := s.Load(ctx, connectionID, cidr)
	if err != nil {
		return err
	}
	return s.Save(ctx, connectionID, cidr, append(existing, tables...))
}

// Delete は記録を削除する（存在しなければ何もしない）
func (s *StateStore) Delete(ctx context.Context, connectionID, cidr string) error {
	if !s.Enabled() {
		return nil
	}
	_, err := s.client.DeleteParameter(ctx, &ssm.DeleteParameterInput{
		Name: aws.String(s.Key(connectionID, cidr)),
	})
	if err != nil && !awsx.HasErrorCode(err, awsx.CodeParameterNotFound) {
		return fmt.Errorf("ルート記録 %s の削除に失敗: %w", s.Key(connectionID, cidr), err)
	}
	return nil
}

func splitList(value string) []string {
	return normalizeList(strings.Split(value, ","))
}

// normalizeList は空白・重複を取り除いて昇順に並べる
func normalizeList(items []string) []string {
	trimmed := make([]string, len(items))
	for i, item := range items {
		trimmed[i] = strings.TrimSpace(item)
	}
	result := common.RemoveDuplicates(trimmed)
	sort.Strings(result)
	return result
}
