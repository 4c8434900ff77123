package common

// メッセージの絵文字定数
const (
	ErrorIcon   = "❌"
	SuccessIcon = "✅"
	WarningIcon = "⚠️"
	SearchIcon  = "🔍"
	InfoIcon    = "📋"
	ProcessIcon = "🔄"
	PartyIcon   = "🎉"
	DeleteIcon  = "🗑️"
	LinkIcon    = "🔗"
)

// エラーメッセージフォーマット定数
const (
	// 一覧取得エラー
	ListErrorFormat = "%s %s一覧の取得に失敗: %w"

	// リソース操作エラー
	CreateErrorFormat = "%s %s の作成に失敗: %w"
	AcceptErrorFormat = "%s %s の承認に失敗: %w"
	DeleteErrorFormat = "%s %s の削除に失敗: %w"
	GetErrorFormat    = "%s %s の取得に失敗: %w"

	// 成功メッセージ
	CreateSuccessFormat = "%s %s を作成しました"
	AcceptSuccessFormat = "%s %s を承認しました"
	DeleteSuccessFormat = "%s %s を削除しました"

	// 処理中メッセージ
	ProcessingFormat = "%s %s を処理中..."
	SearchingFormat  = "%s %s を検索中..."
)
