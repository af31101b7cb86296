package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/eslsoft/vocsync/internal/app"
	"github.com/eslsoft/vocsync/internal/entity"
	"github.com/eslsoft/vocsync/internal/usecase"
)

func languagesFromConfig(key string) []string {
	return normalizeLanguages(viper.GetStringSlice(key))
}

func normalizeLanguages(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	result := make([]string, 0, len(values))
	for _, value := range values {
		code := entity.NormalizeLanguageCode(value)
		if code == "" {
			continue
		}
		result = append(result, code)
	}
	if len(result) == 0 {
		return nil
	}
	return result
}

func bindFlagToViper(key string, flag *pflag.Flag) {
	if flag == nil {
		return
	}
	cobra.CheckErr(viper.BindPFlag(key, flag))
}

// runClient builds the sync engine, runs fn and drains the write queue before returning.
func runClient(cmd *cobra.Command, fn func(ctx context.Context, client *app.Client) error) error {
	client, cleanup, err := app.InitializeClient()
	if err != nil {
		return fmt.Errorf("初始化同步引擎失败: %w", err)
	}
	defer cleanup()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if err := fn(ctx, client); err != nil {
		return err
	}
	reportStoreErrors(cmd.ErrOrStderr(), client.Manager)
	return nil
}

func reportStoreErrors(out io.Writer, m *app.WordItemManager) {
	for _, side := range []usecase.Side{usecase.SideLocal, usecase.SideRemote} {
		for _, e := range m.Errors(side) {
			fmt.Fprintf(out, "%s 存储错误: %s %s: %v\n", side, e.Op, e.Target, e.Err)
		}
	}
}

func addMutationFlags(flags *pflag.FlagSet) {
	flags.Bool("only-local", false, "仅写入本地存储")
	flags.Bool("only-remote", false, "仅写入远程存储")
}

func mutationOptionsFromFlags(flags *pflag.FlagSet) ([]usecase.MutationOption, error) {
	onlyLocal, _ := flags.GetBool("only-local")
	onlyRemote, _ := flags.GetBool("only-remote")
	if onlyLocal && onlyRemote {
		return nil, entity.ErrConflictingOptions
	}
	var opts []usecase.MutationOption
	if onlyLocal {
		opts = append(opts, usecase.WithOnlyLocal())
	}
	if onlyRemote {
		opts = append(opts, usecase.WithOnlyRemote())
	}
	if raw, _ := flags.GetStringSlice("segments"); len(raw) > 0 {
		segments := make([]entity.Segment, 0, len(raw))
		for _, name := range raw {
			seg, err := entity.ParseSegment(name)
			if err != nil {
				return nil, err
			}
			segments = append(segments, seg)
		}
		opts = append(opts, usecase.WithSegments(segments...))
	}
	return opts, nil
}

type cliProgress struct {
	verb        string
	out         io.Writer
	totals      map[string]int
	counts      map[string]int
	lastPrinted map[string]int
	steps       map[string]int
}

func newCLIProgress(out io.Writer, verb string) *cliProgress {
	return &cliProgress{
		verb:        verb,
		out:         out,
		totals:      make(map[string]int),
		counts:      make(map[string]int),
		lastPrinted: make(map[string]int),
		steps:       make(map[string]int),
	}
}

func (p *cliProgress) StartTable(language string, total int) {
	if total < 0 {
		total = 0
	}
	p.totals[language] = total
	p.counts[language] = 0
	p.lastPrinted[language] = 0
	p.steps[language] = progressStep(total)
	fmt.Fprintf(p.out, "开始%s %s (共 %d 个单词)\n", p.verb, language, total)
}

func (p *cliProgress) Increment(language string, delta int) {
	if delta <= 0 {
		return
	}
	current := p.counts[language] + delta
	p.counts[language] = current
	total := p.totals[language]
	step := p.steps[language]
	if step <= 0 {
		step = 1
	}
	last := p.lastPrinted[language]
	if current == total || last == 0 || current-last >= step {
		p.printProgress(language, current, total)
		p.lastPrinted[language] = current
	}
}

func (p *cliProgress) FinishTable(language string) {
	current := p.counts[language]
	total := p.totals[language]
	if current != p.lastPrinted[language] {
		p.printProgress(language, current, total)
	}
	if total > 0 {
		fmt.Fprintf(p.out, "完成%s %s: %d/%d 个单词\n", p.verb, language, current, total)
	} else {
		fmt.Fprintf(p.out, "完成%s %s: %d 个单词\n", p.verb, language, current)
	}
	delete(p.counts, language)
	delete(p.totals, language)
	delete(p.lastPrinted, language)
	delete(p.steps, language)
}

func (p *cliProgress) printProgress(language string, current, total int) {
	if total > 0 {
		fmt.Fprintf(p.out, "%s进度 %s: %d/%d\n", p.verb, language, current, total)
	} else {
		fmt.Fprintf(p.out, "%s进度 %s: 已处理 %d 个单词\n", p.verb, language, current)
	}
}

func progressStep(total int) int {
	if total <= 0 {
		return 1000
	}
	step := total / 20
	if step < 1 {
		step = 1
	}
	if step > 1000 {
		step = 1000
	}
	return step
}

func hasGzipSuffix(path string) bool {
	return path != "-" && strings.HasSuffix(strings.ToLower(path), ".gz")
}
