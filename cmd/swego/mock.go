package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hupe1980/swego/mockdata"
	"github.com/hupe1980/swego/npz"
)

// mockFlags mirrors mockdata.Params on the command line.
type mockFlags struct {
	obs      int
	feat     int
	pred     int
	minBlock int
	maxBlock int
	seed     uint64
}

func (f *mockFlags) register(cmd *cobra.Command) {
	def := mockdata.DefaultParams()
	cmd.Flags().IntVar(&f.obs, "obs", def.Obs, "number of observations")
	cmd.Flags().IntVar(&f.feat, "feat", def.Feat, "number of features")
	cmd.Flags().IntVar(&f.pred, "pred", def.Pred, "number of predictors")
	cmd.Flags().IntVar(&f.minBlock, "min-block", def.MinBlockSize, "minimum block size")
	cmd.Flags().IntVar(&f.maxBlock, "max-block", def.MaxBlockSize, "maximum block size")
	cmd.Flags().Uint64Var(&f.seed, "seed", def.Seed, "random seed")
}

func (f *mockFlags) params() mockdata.Params {
	return mockdata.Params{
		Obs:          f.obs,
		Feat:         f.feat,
		Pred:         f.pred,
		MinBlockSize: f.minBlock,
		MaxBlockSize: f.maxBlock,
		Seed:         f.seed,
	}
}

func newMockCmd() *cobra.Command {
	var flags mockFlags
	var out string

	cmd := &cobra.Command{
		Use:   "mock",
		Short: "Generate a mock data set and write it to disk",
		Long: `Generate a mock data set (pseudoinverse, residuals, block ids) and write
it to disk. Files ending in .lz4 use the fast binary cache format; anything
else is written as a numpy-compatible .npz archive.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := mockdata.Generate(flags.params())
			if err != nil {
				return err
			}
			if strings.HasSuffix(out, ".lz4") {
				err = data.SaveBinaryFile(out)
			} else {
				err = npz.SaveFile(out, data)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s: obs=%d feat=%d pred=%d blocks=%d\n",
				out, data.Obs(), data.Feat(), data.Pred(), data.NumBlocks)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&out, "out", "o", "mock-data.npz", "output path (.npz or .lz4)")

	return cmd
}

// loadOrGenerate reads a data set from path, or generates one when path is
// empty. Benchmarks fall back to on-the-fly generation so they stay usable
// without a fixture file.
func loadOrGenerate(cmd *cobra.Command, path string, flags *mockFlags) (*mockdata.Data, error) {
	if path == "" {
		fmt.Fprintln(cmd.OutOrStdout(), "generating mock data on the fly (use 'swego mock' to create a reusable fixture)")
		return mockdata.Generate(flags.params())
	}
	if strings.HasSuffix(path, ".lz4") {
		return mockdata.LoadBinaryFile(path)
	}
	return npz.LoadFile(path)
}
