package mockdata

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/pierrec/lz4/v4"
	"gonum.org/v1/gonum/mat"
)

// Binary cache format: an lz4 frame wrapping a little-endian stream of
//
//	magic "SWE1" | numBlocks, obs, feat, pred (uint64)
//	| block ids (obs x uint64) | pinv (pred*obs x float64, row-major)
//	| resid (obs*feat x float64, row-major)
//
// It exists for fast benchmark reloads between runs; the interchange format
// is the npz package.

var binaryMagic = [4]byte{'S', 'W', 'E', '1'}

// WriteBinary writes the data set as an lz4-compressed binary stream.
func (d *Data) WriteBinary(w io.Writer) error {
	zw := lz4.NewWriter(w)
	bw := bufio.NewWriterSize(zw, 1<<20)

	if _, err := bw.Write(binaryMagic[:]); err != nil {
		return err
	}
	header := []uint64{uint64(d.NumBlocks), uint64(d.Obs()), uint64(d.Feat()), uint64(d.Pred())}
	if err := binary.Write(bw, binary.LittleEndian, header); err != nil {
		return err
	}

	ids := make([]uint64, len(d.BlockIDs))
	for i, id := range d.BlockIDs {
		ids[i] = uint64(id)
	}
	if err := binary.Write(bw, binary.LittleEndian, ids); err != nil {
		return err
	}

	if err := writeDense(bw, d.PInv); err != nil {
		return err
	}
	if err := writeDense(bw, d.Resid); err != nil {
		return err
	}

	if err := bw.Flush(); err != nil {
		return err
	}
	return zw.Close()
}

// ReadBinary reads a data set written by WriteBinary.
func ReadBinary(r io.Reader) (*Data, error) {
	br := bufio.NewReaderSize(lz4.NewReader(r), 1<<20)

	var magic [4]byte
	if _, err := io.ReadFull(br, magic[:]); err != nil {
		return nil, fmt.Errorf("mockdata: read magic: %w", err)
	}
	if magic != binaryMagic {
		return nil, fmt.Errorf("mockdata: bad magic %q", magic[:])
	}

	header := make([]uint64, 4)
	if err := binary.Read(br, binary.LittleEndian, header); err != nil {
		return nil, fmt.Errorf("mockdata: read header: %w", err)
	}
	numBlocks, obs, feat, pred := int(header[0]), int(header[1]), int(header[2]), int(header[3])
	if obs < 1 || feat < 1 || pred < 1 || numBlocks < 2 {
		return nil, fmt.Errorf("mockdata: invalid header: numBlocks=%d obs=%d feat=%d pred=%d", numBlocks, obs, feat, pred)
	}

	ids64 := make([]uint64, obs)
	if err := binary.Read(br, binary.LittleEndian, ids64); err != nil {
		return nil, fmt.Errorf("mockdata: read block ids: %w", err)
	}
	ids := make([]int, obs)
	for i, id := range ids64 {
		ids[i] = int(id)
	}

	pinv, err := readDense(br, pred, obs)
	if err != nil {
		return nil, fmt.Errorf("mockdata: read pinv: %w", err)
	}
	resid, err := readDense(br, obs, feat)
	if err != nil {
		return nil, fmt.Errorf("mockdata: read resid: %w", err)
	}

	return &Data{
		NumBlocks: numBlocks,
		BlockIDs:  ids,
		PInv:      pinv,
		Resid:     resid,
	}, nil
}

// SaveBinaryFile writes the data set to path.
func (d *Data) SaveBinaryFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := d.WriteBinary(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// LoadBinaryFile reads a data set from path.
func LoadBinaryFile(path string) (*Data, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadBinary(f)
}

// writeDense streams a matrix row by row so strided views round-trip too.
func writeDense(w io.Writer, m *mat.Dense) error {
	rows, _ := m.Dims()
	for i := 0; i < rows; i++ {
		if err := binary.Write(w, binary.LittleEndian, m.RawRowView(i)); err != nil {
			return err
		}
	}
	return nil
}

func readDense(r io.Reader, rows, cols int) (*mat.Dense, error) {
	data := make([]float64, rows*cols)
	if err := binary.Read(r, binary.LittleEndian, data); err != nil {
		return nil, err
	}
	return mat.NewDense(rows, cols, data), nil
}
