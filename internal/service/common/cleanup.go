package common

import "fmt"

// CleanupStatus は後片付け処理の結果の種類
type CleanupStatus int

const (
	// Removed は対象を削除した
	Removed CleanupStatus = iota
	// AlreadyAbsent は対象が既に存在しなかった（削除呼び出しなし）
	AlreadyAbsent
	// Failed は削除に失敗した（呼び出し元でログに残し、処理は止めない）
	Failed
)

// String はログ出力用の文字列を返す
func (s CleanupStatus) String() string {
	switch s {
	case Removed:
		return "removed"
	case AlreadyAbsent:
		return "already_absent"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// CleanupResult は単一リソースの後片付け結果
// Status が Failed の場合のみ Reason が設定される
type CleanupResult struct {
	Resource string
	Status   CleanupStatus
	Reason   error
}

// RemovedResult は削除済みの結果を返す
func RemovedResult(resource string) CleanupResult {
	return CleanupResult{Resource: resource, Status: Removed}
}

// AbsentResult は既に存在しなかった結果を返す
func AbsentResult(resource string) CleanupResult {
	return CleanupResult{Resource: resource, Status: AlreadyAbsent}
}

// FailedResult は失敗した結果を返す
func FailedResult(resource string, reason error) CleanupResult {
	return CleanupResult{Resource: resource, Status: Failed, Reason: reason}
}

// Icon は結果に対応する絵文字を返す
func (r CleanupResult) Icon() string {
	switch r.Status {
	case Removed:
		return SuccessIcon
	case AlreadyAbsent:
		return InfoIcon
	default:
		return ErrorIcon
	}
}

// String は人が読む形式で結果を返す
func (r CleanupResult) String() string {
	switch r.Status {
	case Removed:
		return fmt.Sprintf("%s を削除しました", r.Resource)
	case AlreadyAbsent:
		return fmt.Sprintf("%s は既に存在しません", r.Resource)
	default:
		return fmt.Sprintf("%s の削除に失敗: %v", r.Resource, r.Reason)
	}
}
