// gen-docs は vpcpeer のコマンドリファレンスを docs/ に生成する
package main

import (
	"bytes"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"

	"vpcpeer/cmd"
)

// 共通フラグの説明が不要なコマンド
var noInheritedFlags = map[string]bool{
	"version": true,
}

var anchorLink = regexp.MustCompile(`\(([\w-]+)#([\w-]+)\.md\)`)

func main() {
	docsDir := flag.String("out", "./docs", "出力先ディレクトリ")
	flag.Parse()

	if err := os.RemoveAll(*docsDir); err != nil {
		log.Fatalf("docsディレクトリの削除に失敗: %v", err)
	}
	if err := os.MkdirAll(*docsDir, 0755); err != nil {
		log.Fatalf("docsディレクトリの作成に失敗: %v", err)
	}

	cmd.RootCmd.DisableAutoGenTag = true
	if err := writeCommandDoc(cmd.RootCmd, filepath.Join(*docsDir, "README.md")); err != nil {
		log.Fatalf("README.md の生成に失敗: %v", err)
	}

	groups := commandGroups(cmd.RootCmd)
	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		filename := filepath.Join(*docsDir, name+".md")
		if err := writeGroupDoc(name, groups[name], filename); err != nil {
			log.Printf("❌ %s のドキュメント生成に失敗: %v", name, err)
			continue
		}
	}

	fmt.Printf("✅ %s にドキュメントを生成しました（%dファイル）\n", *docsDir, len(names)+1)
}

// commandGroups はトップレベルのコマンドごとに、そのコマンドと子コマンドをまとめる
func commandGroups(root *cobra.Command) map[string][]*cobra.Command {
	groups := make(map[string][]*cobra.Command)
	for _, c := range root.Commands() {
		if !documented(c) {
			continue
		}
		groups[c.Name()] = append(groups[c.Name()], c)
		for _, child := range c.Commands() {
			if documented(child) {
				groups[c.Name()] = append(groups[c.Name()], child)
			}
		}
	}
	return groups
}

func documented(c *cobra.Command) bool {
	return c.IsAvailableCommand() && !c.IsAdditionalHelpTopicCommand()
}

// linkFor は cobra/doc が生成するリンク先を docs/ のファイル構成に合わせる
// vpcpeer -> README, vpcpeer_routes -> routes, vpcpeer_routes_apply -> routes#vpcpeer-routes-apply
func linkFor(name string) string {
	parts := strings.Split(name, "_")
	if parts[0] != cmd.AppName {
		return name
	}
	switch len(parts) {
	case 1:
		return "README"
	case 2:
		return parts[1]
	default:
		return parts[1] + "#" + strings.Join(parts, "-")
	}
}

// fixLinks は "routes#anchor.md" のようなリンクを "routes.md#anchor" に直す
func fixLinks(content string) string {
	return anchorLink.ReplaceAllString(content, "($1.md#$2)")
}

func render(c *cobra.Command) (string, error) {
	buf := new(bytes.Buffer)
	if err := doc.GenMarkdownCustom(c, buf, linkFor); err != nil {
		return "", fmt.Errorf("%s のマークダウン生成に失敗: %w", c.CommandPath(), err)
	}
	content := buf.String()
	if noInheritedFlags[c.Name()] {
		content = dropSection(content, "### Options inherited from parent commands")
	}
	return fixLinks(content), nil
}

func writeCommandDoc(c *cobra.Command, filename string) error {
	content, err := render(c)
	if err != nil {
		return err
	}
	return os.WriteFile(filename, []byte(content), 0644)
}

func writeGroupDoc(name string, commands []*cobra.Command, filename string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s %s\n\n", cmd.AppName, name)
	for _, c := range commands {
		fmt.Fprintf(&b, "- [%s](#%s)\n", c.CommandPath(), strings.ReplaceAll(c.CommandPath(), " ", "-"))
	}
	b.WriteString("\n---\n\n")

	for _, c := range commands {
		content, err := render(c)
		if err != nil {
			return err
		}
		b.WriteString(content)
		b.WriteString("\n---\n\n")
	}
	return os.WriteFile(filename, []byte(b.String()), 0644)
}

// dropSection は見出し heading から次の見出しまでを取り除く
func dropSection(content, heading string) string {
	var kept []string
	skipping := false
	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(line, heading) {
			skipping = true
			continue
		}
		if skipping && strings.HasPrefix(line, "#") {
			skipping = false
		}
		if !skipping {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
