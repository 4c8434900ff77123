package common

import (
	"strings"

	"github.com/gobwas/glob"
)

// MatchesFilter は名前がフィルタに一致するかを判定する
// ワイルドカード（* ? [ {）を含む場合はglob形式でマッチング、
// 含まない場合は exact なら完全一致、それ以外は部分一致で判定する
func MatchesFilter(name, pattern string, exact ...bool) bool {
	if pattern == "" {
		return true
	}
	if strings.ContainsAny(pattern, "*?[{") {
		g, err := glob.Compile(pattern)
		if err != nil {
			return false
		}
		return g.Match(name)
	}
	if len(exact) > 0 && exact[0] {
		return name == pattern
	}
	return strings.Contains(name, pattern)
}

// RemoveDuplicates は順序を保ったまま重複と空文字を取り除く
func RemoveDuplicates(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	result := make([]string, 0, len(items))
	for _, item := range items {
		if item == "" {
			continue
		}
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		result = append(result, item)
	}
	return result
}
