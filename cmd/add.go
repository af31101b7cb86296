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
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/eslsoft/vocsync/internal/app"
	"github.com/eslsoft/vocsync/internal/entity"
)

var addCmd = &cobra.Command{
	Use:   "add <language> <word>",
	Short: "添加或更新生词",
	Long:  "添加单词到生词本。已存在的单词会与新内容合并: 出处取并集, 重要标记与词条分析仅在缺失时补充。",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		item, err := wordItemFromFlags(cmd, args[0], args[1])
		if err != nil {
			return err
		}
		opts, err := mutationOptionsFromFlags(cmd.Flags())
		if err != nil {
			return err
		}

		return runClient(cmd, func(ctx context.Context, client *app.Client) error {
			ok, err := client.WordList.AddWord(ctx, item, opts...)
			if err != nil {
				return fmt.Errorf("添加单词失败: %w", err)
			}
			if !ok {
				return errors.New("添加单词失败: 部分存储写入失败")
			}
			cmd.Printf("已添加: %s (%s)\n", item.TargetWord, item.LanguageCode)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(addCmd)

	addWordFlags(addCmd.Flags())
}

func addWordFlags(flags *pflag.FlagSet) {
	flags.Bool("important", false, "标记为重要")
	flags.String("lemmas", "", "词元列表, 以逗号分隔")
	flags.String("source", "", "出处链接或标题")
	flags.String("exact", "", "出处中的原文片段 (默认与单词相同)")
	flags.String("prefix", "", "原文片段前的文本")
	flags.String("suffix", "", "原文片段后的文本")
	flags.StringSlice("segments", nil, "仅写入指定数据段 (common, context, shortHomonym, fullHomonym)")
	addMutationFlags(flags)
}

func wordItemFromFlags(cmd *cobra.Command, language, word string) (*entity.WordItem, error) {
	item := entity.NewWordItem(language, word)
	if err := item.Validate(); err != nil {
		return nil, err
	}
	if !entity.Language(item.LanguageCode).Known() {
		cmd.PrintErrf("警告: 未知语言代码 %s\n", item.LanguageCode)
	}

	flags := cmd.Flags()
	item.Important, _ = flags.GetBool("important")
	if lemmas, _ := flags.GetString("lemmas"); lemmas != "" {
		parts := strings.Split(lemmas, ",")
		item.Homonym = entity.NewShortHomonym(item.TargetWord, strings.Join(parts, entity.LemmaSeparator))
	}
	source, _ := flags.GetString("source")
	if source != "" {
		exact, _ := flags.GetString("exact")
		if exact == "" {
			exact = item.TargetWord
		}
		prefix, _ := flags.GetString("prefix")
		suffix, _ := flags.GetString("suffix")
		item.AddContext(entity.TextQuoteSelector{
			Source:       source,
			Exact:        exact,
			Prefix:       prefix,
			Suffix:       suffix,
			LanguageCode: item.LanguageCode,
		})
	}
	return item, nil
}
