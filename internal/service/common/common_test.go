package common

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestMatchesFilter(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		exact   bool
		want    bool
	}{
		{"prod-to-shared", "", false, true},
		{"prod-to-shared", "shared", false, true},
		{"prod-to-shared", "shared", true, false},
		{"prod-to-shared", "prod-to-shared", true, true},
		{"prod-to-shared", "prod-*", false, true},
		{"stg-to-shared", "prod-*", false, false},
		{"prod-to-shared", "{prod,stg}-to-?hared", false, true},
	}
	for _, tt := range tests {
		if got := MatchesFilter(tt.name, tt.pattern, tt.exact); got != tt.want {
			t.Errorf("MatchesFilter(%q, %q, %v) = %v, want %v", tt.name, tt.pattern, tt.exact, got, tt.want)
		}
	}
}

func TestRemoveDuplicates(t *testing.T) {
	got := RemoveDuplicates([]string{"rtb-b", "", "rtb-a", "rtb-b"})
	if diff := cmp.Diff([]string{"rtb-b", "rtb-a"}, got); diff != "" {
		t.Errorf("RemoveDuplicates() mismatch (-want +got):\n%s", diff)
	}
}

func TestFprintTableAlignsWideCharacters(t *testing.T) {
	var buf bytes.Buffer
	FprintTable(&buf, "", []TableColumn{{Header: "名前"}, {Header: "ID"}}, [][]string{
		{"本番", "pcx-1"},
		{"shared", "pcx-22"},
	})

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	want := []string{
		"名前   ID",
		"------ ------",
		"本番   pcx-1",
		"shared pcx-22",
	}
	if diff := cmp.Diff(want, lines); diff != "" {
		t.Errorf("FprintTable() mismatch (-want +got):\n%s", diff)
	}
}

func TestParallelExecutor(t *testing.T) {
	executor := NewParallelExecutor(2)
	results := make([]ProcessResult, 5)
	var mu sync.Mutex
	for i := range results {
		idx := i
		executor.Execute(func() {
			mu.Lock()
			defer mu.Unlock()
			if idx == 3 {
				results[idx] = ProcessResult{Item: "x", Error: errors.New("boom")}
				return
			}
			results[idx] = ProcessResult{Item: "x", Success: true}
		})
	}
	executor.Wait()

	success, failed := CollectResults(results)
	if success != 4 || failed != 1 {
		t.Errorf("CollectResults() = %d, %d", success, failed)
	}
}

func TestCleanupResult(t *testing.T) {
	tests := []struct {
		result CleanupResult
		status string
		text   string
	}{
		{RemovedResult("pcx-1"), "removed", "pcx-1 を削除しました"},
		{AbsentResult("pcx-1"), "already_absent", "pcx-1 は既に存在しません"},
		{FailedResult("pcx-1", errors.New("denied")), "failed", "pcx-1 の削除に失敗: denied"},
	}
	for _, tt := range tests {
		if got := tt.result.Status.String(); got != tt.status {
			t.Errorf("Status.String() = %q, want %q", got, tt.status)
		}
		if got := tt.result.String(); got != tt.text {
			t.Errorf("String() = %q, want %q", got, tt.text)
		}
	}
}
