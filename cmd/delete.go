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

	"github.com/spf13/cobra"

	"github.com/eslsoft/vocsync/internal/app"
	"github.com/eslsoft/vocsync/internal/entity"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <language> [word]",
	Short: "删除生词或整个语言的生词本",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")
		if len(args) == 1 && !all {
			return errors.New("删除整个语言的生词本需要指定 --all")
		}
		opts, err := mutationOptionsFromFlags(cmd.Flags())
		if err != nil {
			return err
		}

		return runClient(cmd, func(ctx context.Context, client *app.Client) error {
			var (
				ok     bool
				err    error
				target string
			)
			if len(args) == 2 {
				id := entity.NewIdentity(args[0], args[1])
				target = id.LocalKey
				ok, err = client.WordList.DeleteWord(ctx, id, opts...)
			} else {
				target = entity.NormalizeLanguageCode(args[0])
				ok, err = client.WordList.DeleteList(ctx, target, opts...)
			}
			if err != nil {
				return fmt.Errorf("删除失败: %w", err)
			}
			if !ok {
				return errors.New("删除失败: 部分存储删除失败")
			}
			cmd.Printf("已删除: %s\n", target)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)

	deleteCmd.Flags().Bool("all", false, "删除该语言下的全部单词")
	addMutationFlags(deleteCmd.Flags())
}
