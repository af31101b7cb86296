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
	"compress/gzip"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/eslsoft/vocsync/internal/app"
	"github.com/eslsoft/vocsync/internal/usecase/backup"
)

const (
	importInputKey     = "backup.import.input"
	importGzipKey      = "backup.import.gzip"
	importLanguagesKey = "backup.import.languages"
	importBatchKey     = "backup.import.batch_size"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "从备份文件合并导入生词本",
	RunE: func(cmd *cobra.Command, args []string) error {
		inputPath := viper.GetString(importInputKey)
		gzipEnabled := viper.GetBool(importGzipKey)
		languages := languagesFromConfig(importLanguagesKey)
		batchSize := viper.GetInt(importBatchKey)

		if inputPath == "" {
			return fmt.Errorf("请通过 --input 指定备份文件或使用 - 表示标准输入")
		}
		if !gzipEnabled && hasGzipSuffix(inputPath) {
			gzipEnabled = true
		}
		mutationOpts, err := mutationOptionsFromFlags(cmd.Flags())
		if err != nil {
			return err
		}

		return runClient(cmd, func(ctx context.Context, client *app.Client) (err error) {
			service := client.Backup
			if batchSize > 0 {
				if service, err = backup.NewService(client.Manager, client.Logger, backup.WithBatchSize(batchSize)); err != nil {
					return fmt.Errorf("创建备份服务失败: %w", err)
				}
			}

			var (
				reader  = cmd.InOrStdin()
				closers []func() error
			)

			if inputPath != "-" {
				file, openErr := os.Open(filepath.Clean(inputPath))
				if openErr != nil {
					return fmt.Errorf("打开备份文件失败: %w", openErr)
				}
				reader = file
				closers = append(closers, file.Close)
			}

			if gzipEnabled {
				gzr, gzErr := gzip.NewReader(reader)
				if gzErr != nil {
					for _, closer := range closers {
						_ = closer()
					}
					return fmt.Errorf("创建 gzip 读取器失败: %w", gzErr)
				}
				reader = gzr
				closers = append([]func() error{gzr.Close}, closers...)
			}

			defer func() {
				for _, closer := range closers {
					if cerr := closer(); cerr != nil && err == nil {
						err = cerr
					}
				}
			}()

			var importOpts []backup.ImportOption
			if len(languages) > 0 {
				importOpts = append(importOpts, backup.WithImportLanguages(languages))
			}
			if len(mutationOpts) > 0 {
				importOpts = append(importOpts, backup.WithMutationOptions(mutationOpts...))
			}

			if err := service.Import(ctx, reader, importOpts...); err != nil {
				return fmt.Errorf("导入备份失败: %w", err)
			}

			if inputPath == "-" {
				cmd.Println("导入完成: 数据来源于标准输入")
			} else {
				cmd.Printf("导入完成: %s\n", inputPath)
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringP("input", "i", "", "备份文件路径，使用 - 表示标准输入")
	importCmd.Flags().Bool("gzip", false, "输入为 gzip 压缩格式")
	importCmd.Flags().StringSlice("languages", nil, "仅导入指定语言，逗号分隔或重复指定")
	importCmd.Flags().Int("batch-size", 0, "导入批处理大小 (默认 64)")
	importCmd.Flags().StringSlice("segments", nil, "仅写入指定数据段 (common, context, shortHomonym, fullHomonym)")
	addMutationFlags(importCmd.Flags())

	bindImportConfig()
}

func bindImportConfig() {
	bindFlagToViper(importInputKey, importCmd.Flags().Lookup("input"))
	bindFlagToViper(importGzipKey, importCmd.Flags().Lookup("gzip"))
	bindFlagToViper(importLanguagesKey, importCmd.Flags().Lookup("languages"))
	bindFlagToViper(importBatchKey, importCmd.Flags().Lookup("batch-size"))
}
