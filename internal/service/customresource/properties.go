package customresource

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/mitchellh/mapstructure"
)

// DecodeProperties はCloudFormationから届いたプロパティを構造体に変換する
// CloudFormationは値を文字列で渡すため "true" や "3" も型に合わせて解釈する
func DecodeProperties(props map[string]interface{}, out interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		TagName:          "cfn",
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(props); err != nil {
		return fmt.Errorf("リソースプロパティの解析に失敗: %w", err)
	}
	return nil
}

// ChangedProperties は新旧プロパティで値が異なるキーを名前順で返す
// ServiceToken は比較対象外
func ChangedProperties(oldProps, newProps map[string]interface{}) []string {
	keys := make(map[string]struct{})
	for k := range oldProps {
		keys[k] = struct{}{}
	}
	for k := range newProps {
		keys[k] = struct{}{}
	}
	delete(keys, "ServiceToken")

	var changed []string
	for k := range keys {
		if !reflect.DeepEqual(oldProps[k], newProps[k]) {
			changed = append(changed, k)
		}
	}
	sort.Strings(changed)
	return changed
}
