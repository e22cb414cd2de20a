package rgbimage

import (
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"pathtrace/pixel"
)

const (
	dataLayoutVersion = 1

	// Limits on what a checkpoint header may claim, checked before anything
	// is allocated.
	maxHeaderLength = 1 << 20
	maxImageSide    = 1 << 16
	maxImagePixels  = 1 << 26
)

// SampleImage is the running sum of every sample drawn for every pixel.
// Sums holds three channels per pixel; Counts holds one count per pixel.
type SampleImage struct {
	RowSize, ColSize int
	Sums             []uint64
	Counts           []uint64
}

func NewSampleImage(rowSize, colSize int) *SampleImage {
	s := &SampleImage{}
	s.Resize(rowSize, colSize)
	return s
}

func (s *SampleImage) Resize(rowSize, colSize int) {
	s.RowSize = rowSize
	s.ColSize = colSize

	s.Sums = make([]uint64, rowSize*colSize*3)
	s.Counts = make([]uint64, rowSize*colSize)
}

func (s *SampleImage) Accumulator(r, c int) pixel.Accumulator {
	idx := r*s.ColSize + c
	return pixel.Accumulator{
		R: s.Sums[3*idx+0],
		G: s.Sums[3*idx+1],
		B: s.Sums[3*idx+2],
		N: s.Counts[idx],
	}
}

func (s *SampleImage) Store(r, c int, acc pixel.Accumulator) {
	idx := r*s.ColSize + c
	s.Sums[3*idx+0] = acc.R
	s.Sums[3*idx+1] = acc.G
	s.Sums[3*idx+2] = acc.B
	s.Counts[idx] = acc.N
}

// MinCount is the smallest sample count of any pixel in row r.
func (s *SampleImage) MinCount(r int) uint64 {
	row := s.Counts[r*s.ColSize : (r+1)*s.ColSize]
	if len(row) == 0 {
		return 0
	}
	min := row[0]
	for _, n := range row[1:] {
		if n < min {
			min = n
		}
	}
	return min
}

// Resolve averages and gamma-corrects every pixel.
func (s *SampleImage) Resolve() *Image {
	im := New(s.RowSize, s.ColSize)
	for r := 0; r < s.RowSize; r++ {
		for c := 0; c < s.ColSize; c++ {
			acc := s.Accumulator(r, c)
			im.Set(r, c, acc.Resolve())
		}
	}
	return im
}

// Cut copies rows [rowSrc, rowLim) into a new SampleImage.
func (s *SampleImage) Cut(rowSrc, rowLim int) *SampleImage {
	dst := NewSampleImage(rowLim-rowSrc, s.ColSize)
	copy(dst.Sums, s.Sums[rowSrc*s.ColSize*3:rowLim*s.ColSize*3])
	copy(dst.Counts, s.Counts[rowSrc*s.ColSize:rowLim*s.ColSize])
	return dst
}

// Paste overwrites the rows of s starting at rowSrc with src.  The column
// counts must agree.
func (s *SampleImage) Paste(src *SampleImage, rowSrc int) error {
	if src.ColSize != s.ColSize {
		return fmt.Errorf("column count mismatch: %d != %d", src.ColSize, s.ColSize)
	}
	if rowSrc < 0 || rowSrc+src.RowSize > s.RowSize {
		return fmt.Errorf("rows [%d, %d) out of range [0, %d)", rowSrc, rowSrc+src.RowSize, s.RowSize)
	}
	copy(s.Sums[rowSrc*s.ColSize*3:], src.Sums)
	copy(s.Counts[rowSrc*s.ColSize:], src.Counts)
	return nil
}

func ReadSampleImage(in io.Reader) (*SampleImage, error) {
	var headerLength uint64
	if err := binary.Read(in, binary.LittleEndian, &headerLength); err != nil {
		return nil, fmt.Errorf("while reading header length: %w", err)
	}

	if headerLength > maxHeaderLength {
		return nil, fmt.Errorf("header length %d exceeds limit %d", headerLength, maxHeaderLength)
	}

	headerBytes := make([]byte, int(headerLength))
	if _, err := io.ReadFull(in, headerBytes); err != nil {
		return nil, fmt.Errorf("while reading header bytes: %w", err)
	}

	hdr := &structpb.Struct{}
	if err := proto.Unmarshal(headerBytes, hdr); err != nil {
		return nil, fmt.Errorf("while unmarshaling header: %w", err)
	}

	fields := hdr.GetFields()
	v, err := headerInt(fields, "data_layout_version", dataLayoutVersion)
	if err != nil {
		return nil, err
	}
	if v != dataLayoutVersion {
		return nil, fmt.Errorf("bad data layout version: %v", v)
	}

	rowSize, err := headerInt(fields, "row_size", maxImageSide)
	if err != nil {
		return nil, err
	}
	colSize, err := headerInt(fields, "col_size", maxImageSide)
	if err != nil {
		return nil, err
	}
	if rowSize*colSize > maxImagePixels {
		return nil, fmt.Errorf("image size %dx%d exceeds %d pixels", colSize, rowSize, maxImagePixels)
	}

	im := NewSampleImage(rowSize, colSize)

	zipReader, err := zlib.NewReader(in)
	if err != nil {
		return nil, fmt.Errorf("while opening zip reader: %w", err)
	}
	defer zipReader.Close()

	if err := binary.Read(zipReader, binary.LittleEndian, im.Sums); err != nil {
		return nil, fmt.Errorf("while reading sample sums: %w", err)
	}

	if err := binary.Read(zipReader, binary.LittleEndian, im.Counts); err != nil {
		return nil, fmt.Errorf("while reading sample counts: %w", err)
	}

	return im, nil
}

// headerInt reads a whole number in [0, limit] from a header field.
func headerInt(fields map[string]*structpb.Value, name string, limit int) (int, error) {
	f := fields[name].GetNumberValue()
	if math.IsNaN(f) || f != math.Trunc(f) || f < 0 || f > float64(limit) {
		return 0, fmt.Errorf("bad header field %s: %v", name, f)
	}
	return int(f), nil
}

func ReadSampleImageFromFile(name string) (*SampleImage, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("while opening file: %w", err)
	}
	defer f.Close()

	return ReadSampleImage(f)
}

func WriteSampleImage(im *SampleImage, w io.Writer) error {
	hdr, err := structpb.NewStruct(map[string]interface{}{
		"row_size":            im.RowSize,
		"col_size":            im.ColSize,
		"data_layout_version": dataLayoutVersion,
	})
	if err != nil {
		return fmt.Errorf("while building header: %w", err)
	}

	hdrBytes, err := proto.Marshal(hdr)
	if err != nil {
		return fmt.Errorf("while marshaling header: %w", err)
	}

	headerLengthBytes := make([]byte, 8)
	binary.LittleEndian.PutUint64(headerLengthBytes, uint64(len(hdrBytes)))
	if _, err := w.Write(headerLengthBytes); err != nil {
		return fmt.Errorf("while writing header length: %w", err)
	}

	if _, err := w.Write(hdrBytes); err != nil {
		return fmt.Errorf("while writing header: %w", err)
	}

	zipWriter := zlib.NewWriter(w)

	if err := binary.Write(zipWriter, binary.LittleEndian, im.Sums); err != nil {
		return fmt.Errorf("while writing sample sums: %w", err)
	}

	if err := binary.Write(zipWriter, binary.LittleEndian, im.Counts); err != nil {
		return fmt.Errorf("while writing sample counts: %w", err)
	}

	if err := zipWriter.Close(); err != nil {
		return fmt.Errorf("while closing zip writer: %w", err)
	}

	return nil
}

// WriteSampleImageToFile writes through a temporary file so an interrupted
// write never clobbers the previous checkpoint.
func WriteSampleImageToFile(im *SampleImage, name string) error {
	tmp := name + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("while creating file: %w", err)
	}

	if err := WriteSampleImage(im, f); err != nil {
		f.Close()
		return err
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("while closing file: %w", err)
	}

	if err := os.Rename(tmp, name); err != nil {
		return fmt.Errorf("while renaming file: %w", err)
	}
	return nil
}
