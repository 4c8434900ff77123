package common

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
)

// GenerateFilteredTitle はフィルタ条件に基づいてタイトルを生成
func GenerateFilteredTitle(resourceType string, conditions ...string) string {
	var validConditions []string
	for _, cond := range conditions {
		if cond != "" {
			validConditions = append(validConditions, cond)
		}
	}

	if len(validConditions) == 0 {
		return fmt.Sprintf("%s一覧", resourceType)
	}

	return fmt.Sprintf("%s%s一覧", strings.Join(validConditions, ""), resourceType)
}

// FormatListError はリスト取得エラーを統一フォーマットで返す
func FormatListError(service string, err error) error {
	return fmt.Errorf("❌ %s一覧取得でエラー: %w", service, err)
}

// PrintTable はテーブル形式でデータを標準出力に表示する
func PrintTable(title string, columns []TableColumn, data [][]string) {
	FprintTable(os.Stdout, title, columns, data)
}

// FprintTable はテーブル形式でデータを表示する
// 全角文字を含むセルも表示幅で揃える
func FprintTable(w io.Writer, title string, columns []TableColumn, data [][]string) {
	if title != "" {
		_, _ = fmt.Fprintf(w, "\n%s:\n", title)
	}

	// 各列の最大幅を計算（ヘッダーとデータの中で最大値を取得）
	colWidths := make([]int, len(columns))
	for i, col := range columns {
		colWidths[i] = runewidth.StringWidth(col.Header)
		if col.Width > colWidths[i] {
			colWidths[i] = col.Width
		}
	}
	for _, row := range data {
		for i, cell := range row {
			if i < len(colWidths) {
				if cw := runewidth.StringWidth(cell); cw > colWidths[i] {
					colWidths[i] = cw
				}
			}
		}
	}

	// ヘッダー
	cells := make([]string, len(columns))
	for i, col := range columns {
		cells[i] = runewidth.FillRight(col.Header, colWidths[i])
	}
	_, _ = fmt.Fprintln(w, strings.TrimRight(strings.Join(cells, " "), " "))

	// 区切り線
	for i := range columns {
		cells[i] = strings.Repeat("-", colWidths[i])
	}
	_, _ = fmt.Fprintln(w, strings.Join(cells, " "))

	// データ行
	for _, row := range data {
		for i := range columns {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			cells[i] = runewidth.FillRight(cell, colWidths[i])
		}
		_, _ = fmt.Fprintln(w, strings.TrimRight(strings.Join(cells, " "), " "))
	}
}

// DisplayList は汎用的なリスト表示関数
func DisplayList[T any](
	items []T,
	title string,
	toTableData func([]T) ([]TableColumn, [][]string),
	opts *DisplayOptions,
) error {
	// デフォルトオプション
	if opts == nil {
		opts = &DisplayOptions{}
	}
	if opts.EmptyMessage == "" {
		opts.EmptyMessage = "リソースが見つかりませんでした"
	}

	// フィルタ条件がある場合はタイトルに追加
	if len(opts.FilterMessages) > 0 {
		title = GenerateFilteredTitle(title, opts.FilterMessages...)
	}

	if len(items) == 0 {
		fmt.Println(opts.EmptyMessage)
		return nil
	}

	columns, data := toTableData(items)
	PrintTable(title, columns, data)

	if opts.ShowCount {
		fmt.Printf("\n合計: %d件\n", len(items))
	}

	return nil
}
