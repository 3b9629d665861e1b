package msa

import (
	"context"
	"golang.org/x/sync/errgroup"
	"os"
	"os/exec"
	"path/filepath"
	"pseudoenzymes-backend/utils"
	"sort"
	"strings"
)

/*
Align 对 dir 中每个 {family}_in.fasta 运行 mafft，结果写入 {family}_out.fasta，
mafft 的 stderr 写入 {family}_in.out。最多同时运行 Workers 个进程，已有的输出被覆盖
*/
func (a *Aligner) Align(ctx context.Context, dir string) (int, error) {
	files, err := familyFiles(dir, inSuffix)
	if err != nil {
		return 0, err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(a.setting.Workers)
	for family, path := range files {
		family, path := family, path
		g.Go(func() error {
			out := filepath.Join(dir, family+outSuffix)
			log := filepath.Join(dir, family+"_in.out")
			cmd := exec.CommandContext(ctx, a.setting.Mafft,
				"--anysymbol", "--thread", "1", "--auto", "--leavegappyregion", path)
			if err := runToFiles(cmd, out, log); err != nil {
				return utils.WrapErrorf(err, "mafft [%s] fail", family)
			}
			a.setting.Logger.Debugf("aligned [%s]", family)
			return nil
		})
	}
	if err = g.Wait(); err != nil {
		return 0, err
	}

	a.setting.Logger.Infof("aligned %d families", len(files))
	return len(files), nil
}

/*
Trees 对 msaDir 中每个 {family}_out.fasta 运行 trimal -gappyout | fasttree，
树写入 treeDir/{family}.tree。大文件先开始，避免最后只剩一个长任务
*/
func (a *Aligner) Trees(ctx context.Context, msaDir, treeDir string) (int, error) {
	if err := os.MkdirAll(treeDir, 0755); err != nil {
		return 0, utils.WrapErrorf(err, "create tree dir [%s] fail", treeDir)
	}
	files, err := familyFiles(msaDir, outSuffix)
	if err != nil {
		return 0, err
	}

	families := make([]string, 0, len(files))
	sizes := make(map[string]int64, len(files))
	for family, path := range files {
		families = append(families, family)
		if info, err := os.Stat(path); err == nil {
			sizes[family] = info.Size()
		}
	}
	sort.Slice(families, func(i, j int) bool {
		if sizes[families[i]] != sizes[families[j]] {
			return sizes[families[i]] > sizes[families[j]]
		}
		return families[i] < families[j]
	})

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(a.setting.Workers)
	for _, family := range families {
		family := family
		g.Go(func() error {
			trimal := exec.CommandContext(ctx, a.setting.Trimal, "-in", files[family], "-gappyout")
			fasttree := exec.CommandContext(ctx, a.setting.FastTree)
			err := runPipe(trimal, fasttree,
				filepath.Join(treeDir, family+".tree"),
				filepath.Join(treeDir, family+".out"))
			return utils.WrapErrorf(err, "build tree of [%s] fail", family)
		})
	}
	if err = g.Wait(); err != nil {
		return 0, err
	}

	a.setting.Logger.Infof("built %d trees", len(families))
	return len(families), nil
}

func runToFiles(cmd *exec.Cmd, stdoutPath, stderrPath string) error {
	stdout, err := os.Create(stdoutPath)
	if err != nil {
		return err
	}
	defer stdout.Close()
	stderr, err := os.Create(stderrPath)
	if err != nil {
		return err
	}
	defer stderr.Close()

	cmd.Stdout = stdout
	cmd.Stderr = stderr
	return cmd.Run()
}

// runPipe 运行 first | second，second 的输出写入文件，两个进程的 stderr 都写入 stderrPath
func runPipe(first, second *exec.Cmd, stdoutPath, stderrPath string) error {
	stdout, err := os.Create(stdoutPath)
	if err != nil {
		return err
	}
	defer stdout.Close()
	stderr, err := os.Create(stderrPath)
	if err != nil {
		return err
	}
	defer stderr.Close()

	pipe, err := first.StdoutPipe()
	if err != nil {
		return err
	}
	first.Stderr = stderr
	second.Stdin = pipe
	second.Stdout = stdout
	second.Stderr = stderr

	if err = second.Start(); err != nil {
		return err
	}
	firstErr := first.Run()
	secondErr := second.Wait()
	if firstErr != nil {
		return utils.WrapErrorf(firstErr, "%s fail", strings.Join(first.Args, " "))
	}
	return utils.WrapErrorf(secondErr, "%s fail", strings.Join(second.Args, " "))
}
