// Package npz reads and writes mock data sets as numpy archives.
//
// The archive is a zip file holding one .npy entry per array, compatible
// with numpy.load:
//
//	n_blocks  (1,)        uint64
//	block_ids (obs,)      uint64
//	x_pinv    (pred, obs) float64
//	resid     (obs, feat) float64
//
// Deflate is provided by klauspost/compress.
package npz

import (
	"archive/zip"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/flate"
	"github.com/sbinet/npyio"
	"gonum.org/v1/gonum/mat"

	"github.com/hupe1980/swego/mockdata"
)

// Save writes the data set as an npz archive.
func Save(w io.Writer, d *mockdata.Data) error {
	zw := zip.NewWriter(w)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.BestSpeed)
	})

	ids := make([]uint64, len(d.BlockIDs))
	for i, id := range d.BlockIDs {
		ids[i] = uint64(id)
	}

	entries := []struct {
		name string
		val  any
	}{
		{"n_blocks", []uint64{uint64(d.NumBlocks)}},
		{"block_ids", ids},
		{"x_pinv", d.PInv},
		{"resid", d.Resid},
	}
	for _, e := range entries {
		f, err := zw.Create(e.name + ".npy")
		if err != nil {
			return fmt.Errorf("npz: create %s: %w", e.name, err)
		}
		if err := npyio.Write(f, e.val); err != nil {
			return fmt.Errorf("npz: write %s: %w", e.name, err)
		}
	}

	return zw.Close()
}

// Load reads a data set from an npz archive.
//
// Load validates shapes but not the block assignment itself; building the
// partition (Data.Partition) is where malformed blockings surface.
func Load(r io.ReaderAt, size int64) (*mockdata.Data, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("npz: open archive: %w", err)
	}
	zr.RegisterDecompressor(zip.Deflate, func(in io.Reader) io.ReadCloser {
		return flate.NewReader(in)
	})

	var nBlocks []uint64
	if err := readEntry(zr, "n_blocks", &nBlocks); err != nil {
		return nil, err
	}
	if len(nBlocks) != 1 {
		return nil, fmt.Errorf("npz: n_blocks: want 1 element, got %d", len(nBlocks))
	}

	var ids64 []uint64
	if err := readEntry(zr, "block_ids", &ids64); err != nil {
		return nil, err
	}

	var pinv, resid mat.Dense
	if err := readEntry(zr, "x_pinv", &pinv); err != nil {
		return nil, err
	}
	if err := readEntry(zr, "resid", &resid); err != nil {
		return nil, err
	}

	obs, _ := resid.Dims()
	if len(ids64) != obs {
		return nil, fmt.Errorf("npz: block_ids length %d does not match %d observations", len(ids64), obs)
	}
	if _, pinvObs := pinv.Dims(); pinvObs != obs {
		return nil, fmt.Errorf("npz: x_pinv has %d observation columns, resid has %d rows", pinvObs, obs)
	}

	ids := make([]int, len(ids64))
	for i, id := range ids64 {
		ids[i] = int(id)
	}

	return &mockdata.Data{
		NumBlocks: int(nBlocks[0]),
		BlockIDs:  ids,
		PInv:      &pinv,
		Resid:     &resid,
	}, nil
}

// SaveFile writes the data set to an .npz file at path.
func SaveFile(path string, d *mockdata.Data) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Save(f, d); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// LoadFile reads a data set from an .npz file at path.
func LoadFile(path string) (*mockdata.Data, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return nil, err
	}
	return Load(f, st.Size())
}

func readEntry(zr *zip.Reader, name string, ptr any) error {
	for _, f := range zr.File {
		if f.Name != name+".npy" && f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return fmt.Errorf("npz: open %s: %w", name, err)
		}
		defer rc.Close()
		if err := npyio.Read(rc, ptr); err != nil {
			return fmt.Errorf("npz: read %s: %w", name, err)
		}
		return nil
	}
	return fmt.Errorf("npz: missing entry %q", name)
}
