/*
Copyright © 2025 Ambor <saltbo@foxmail.com>

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/eslsoft/vocsync/internal/adapter/codec"
	"github.com/eslsoft/vocsync/internal/app"
	"github.com/eslsoft/vocsync/internal/entity"
	"github.com/eslsoft/vocsync/internal/usecase"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "列出生词",
	Example: `  vocsync list --filter 'language == "en"'
  vocsync list --filter 'language == "de" && important' --order-by "word"
  vocsync list --filter 'language == "en" && created_at >= timestamp("2024-01-01T00:00:00Z")' --mode local`,
	RunE: func(cmd *cobra.Command, args []string) error {
		filter, _ := cmd.Flags().GetString("filter")
		orderBy, _ := cmd.Flags().GetString("order-by")
		modeName, _ := cmd.Flags().GetString("mode")
		asJSON, _ := cmd.Flags().GetBool("json")

		mode, err := usecase.ParseQueryMode(modeName)
		if err != nil {
			return err
		}

		return runClient(cmd, func(ctx context.Context, client *app.Client) error {
			items, err := client.WordList.ListWords(ctx, usecase.ListWordsQuery{
				Filter:  filter,
				OrderBy: orderBy,
				Mode:    mode,
			})
			if err != nil {
				return fmt.Errorf("查询生词失败: %w", err)
			}
			if asJSON {
				return printWordItemsJSON(cmd.OutOrStdout(), items)
			}
			printWordItems(cmd.OutOrStdout(), items)
			cmd.PrintErrf("共 %d 个单词\n", len(items))
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().String("filter", "", "CEL 过滤表达式, 必须包含 language == \"<code>\"")
	listCmd.Flags().String("order-by", "", "排序, 例如 \"word\" 或 \"created_at desc, word\"")
	listCmd.Flags().String("mode", string(usecase.QueryMerged), "读取来源 (local, remote, merged)")
	listCmd.Flags().Bool("json", false, "以 NDJSON 输出完整条目")
}

func printWordItems(out io.Writer, items []*entity.WordItem) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "WORD\tLANG\tIMPORTANT\tLEMMAS\tCONTEXT\tCREATED")
	for _, item := range items {
		important := ""
		if item.Important {
			important = "*"
		}
		created := ""
		if !item.CreatedAt.IsZero() {
			created = item.CreatedAt.Local().Format(time.DateTime)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n",
			item.TargetWord, item.LanguageCode, important, item.LemmasList(), len(item.Context), created)
	}
	_ = tw.Flush()
}

func printWordItemsJSON(out io.Writer, items []*entity.WordItem) error {
	for _, item := range items {
		payload, err := codec.MarshalWordItem(item)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(out, "%s\n", payload); err != nil {
			return err
		}
	}
	return nil
}
