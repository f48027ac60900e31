// Package nifti reads and writes 3D volumes in the NIfTI-1 file format
// (.nii, .nii.gz), the interchange format used for statistical brain maps
// and anatomical images.
package nifti

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"gonum.org/v1/gonum/mat"

	"brainsprite/internal/models"
)

// NIfTI-1 datatype codes for the voxel element types supported here.
const (
	typeUint8   = 2
	typeInt16   = 4
	typeInt32   = 8
	typeFloat32 = 16
	typeFloat64 = 64
)

const (
	headerSize = 348
	// Single-file NIfTI stores voxels after the header plus the 4-byte
	// extension flag.
	defaultVoxOffset = 352
)

// header is the fixed 348-byte NIfTI-1 header layout.
type header struct {
	SizeofHdr      int32
	DataTypeUnused [10]byte
	DBName         [18]byte
	Extents        int32
	SessionError   int16
	Regular        byte
	DimInfo        byte
	Dim            [8]int16
	IntentP1       float32
	IntentP2       float32
	IntentP3       float32
	IntentCode     int16
	Datatype       int16
	Bitpix         int16
	SliceStart     int16
	Pixdim         [8]float32
	VoxOffset      float32
	SclSlope       float32
	SclInter       float32
	SliceEnd       int16
	SliceCode      byte
	XyztUnits      byte
	CalMax         float32
	CalMin         float32
	SliceDuration  float32
	Toffset        float32
	Glmax          int32
	Glmin          int32
	Descrip        [80]byte
	AuxFile        [24]byte
	QformCode      int16
	SformCode      int16
	QuaternB       float32
	QuaternC       float32
	QuaternD       float32
	QoffsetX       float32
	QoffsetY       float32
	QoffsetZ       float32
	SrowX          [4]float32
	SrowY          [4]float32
	SrowZ          [4]float32
	IntentName     [16]byte
	Magic          [4]byte
}

// Load reads a 3D volume from a NIfTI-1 file. Gzip compression is detected
// from the file content, not the extension. A 4D image with a single time
// point is squeezed to 3D; anything else with more than 3 dimensions is
// rejected. Voxel values are converted to float64 and the scl_slope /
// scl_inter scaling is applied.
func Load(path string) (*models.Volume, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %v", path, err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	magic, err := br.Peek(2)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %v", path, err)
	}

	var r io.Reader = br
	if magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("failed to open gzip stream in %s: %v", path, err)
		}
		defer gz.Close()
		r = gz
	}

	return decode(r, path)
}

// decode reads a NIfTI-1 stream: header, endianness detection, then the
// voxel data.
func decode(r io.Reader, path string) (*models.Volume, error) {
	raw := make([]byte, headerSize)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, fmt.Errorf("failed to read header of %s: %v", path, err)
	}

	var hdr header
	order := binary.ByteOrder(binary.LittleEndian)
	if err := binary.Read(bytes.NewReader(raw), order, &hdr); err != nil {
		return nil, fmt.Errorf("failed to decode header of %s: %v", path, err)
	}
	if hdr.SizeofHdr != headerSize {
		// Retry with the opposite byte order before giving up.
		order = binary.BigEndian
		if err := binary.Read(bytes.NewReader(raw), order, &hdr); err != nil {
			return nil, fmt.Errorf("failed to decode header of %s: %v", path, err)
		}
		if hdr.SizeofHdr != headerSize {
			return nil, fmt.Errorf("%s is not a NIfTI-1 file (sizeof_hdr=%d)", path, hdr.SizeofHdr)
		}
	}

	m := string(hdr.Magic[:3])
	if m != "n+1" && m != "ni1" {
		return nil, fmt.Errorf("%s has bad NIfTI magic %q", path, m)
	}
	if m == "ni1" {
		return nil, fmt.Errorf("%s is a two-file NIfTI image (.hdr/.img), which is not supported", path)
	}

	ndim := int(hdr.Dim[0])
	switch {
	case ndim == 3:
	case ndim == 4 && hdr.Dim[4] <= 1:
		// A single-timepoint 4D image is treated as 3D.
	default:
		return nil, fmt.Errorf("%s is %d-dimensional; only 3D volumes are supported", path, ndim)
	}
	nx, ny, nz := int(hdr.Dim[1]), int(hdr.Dim[2]), int(hdr.Dim[3])
	if nx <= 0 || ny <= 0 || nz <= 0 {
		return nil, fmt.Errorf("%s has invalid dimensions %dx%dx%d", path, nx, ny, nz)
	}

	// Skip from the end of the header to the start of the voxel data.
	offset := int64(hdr.VoxOffset)
	if offset < headerSize {
		offset = defaultVoxOffset
	}
	if _, err := io.CopyN(io.Discard, r, offset-headerSize); err != nil {
		return nil, fmt.Errorf("failed to seek to voxel data in %s: %v", path, err)
	}

	data, err := readVoxels(r, order, hdr.Datatype, nx*ny*nz)
	if err != nil {
		return nil, fmt.Errorf("failed to read voxel data from %s: %v", path, err)
	}

	slope := float64(hdr.SclSlope)
	inter := float64(hdr.SclInter)
	if slope != 0 && (slope != 1 || inter != 0) {
		for i := range data {
			data[i] = data[i]*slope + inter
		}
	}

	return &models.Volume{
		Data:   data,
		Nx:     nx,
		Ny:     ny,
		Nz:     nz,
		Affine: affineFromHeader(&hdr),
	}, nil
}

// readVoxels reads n voxel elements of the given NIfTI datatype and
// converts them to float64.
func readVoxels(r io.Reader, order binary.ByteOrder, datatype int16, n int) ([]float64, error) {
	data := make([]float64, n)
	switch datatype {
	case typeUint8:
		buf := make([]uint8, n)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, err
		}
		for i, v := range buf {
			data[i] = float64(v)
		}
	case typeInt16:
		buf := make([]int16, n)
		if err := binary.Read(r, order, buf); err != nil {
			return nil, err
		}
		for i, v := range buf {
			data[i] = float64(v)
		}
	case typeInt32:
		buf := make([]int32, n)
		if err := binary.Read(r, order, buf); err != nil {
			return nil, err
		}
		for i, v := range buf {
			data[i] = float64(v)
		}
	case typeFloat32:
		buf := make([]float32, n)
		if err := binary.Read(r, order, buf); err != nil {
			return nil, err
		}
		for i, v := range buf {
			data[i] = float64(v)
		}
	case typeFloat64:
		if err := binary.Read(r, order, data); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported NIfTI datatype code %d", datatype)
	}
	return data, nil
}

// affineFromHeader builds the voxel-to-world transform, preferring the
// sform rows and falling back to pixdim spacing.
func affineFromHeader(hdr *header) *mat.Dense {
	if hdr.SformCode > 0 {
		a := mat.NewDense(4, 4, nil)
		for j := 0; j < 4; j++ {
			a.Set(0, j, float64(hdr.SrowX[j]))
			a.Set(1, j, float64(hdr.SrowY[j]))
			a.Set(2, j, float64(hdr.SrowZ[j]))
		}
		a.Set(3, 3, 1)
		return a
	}

	sx, sy, sz := float64(hdr.Pixdim[1]), float64(hdr.Pixdim[2]), float64(hdr.Pixdim[3])
	if sx == 0 {
		sx = 1
	}
	if sy == 0 {
		sy = 1
	}
	if sz == 0 {
		sz = 1
	}
	return models.ScalingAffine(sx, sy, sz)
}

// Save writes a volume as a single-file NIfTI-1 image with float32 voxels.
// The output is gzip-compressed when path ends in .gz.
func Save(path string, v *models.Volume) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %v", path, err)
	}
	defer f.Close()

	var w io.Writer = f
	var gz *gzip.Writer
	if strings.HasSuffix(path, ".gz") {
		gz = gzip.NewWriter(f)
		w = gz
	}

	if err := encode(w, v); err != nil {
		return fmt.Errorf("failed to write %s: %v", path, err)
	}

	if gz != nil {
		if err := gz.Close(); err != nil {
			return fmt.Errorf("failed to finish gzip stream for %s: %v", path, err)
		}
	}
	return f.Close()
}

// encode writes the header, extension flag and float32 voxel data.
func encode(w io.Writer, v *models.Volume) error {
	sx, sy, sz := v.Spacing()
	hdr := header{
		SizeofHdr: headerSize,
		Regular:   'r',
		Datatype:  typeFloat32,
		Bitpix:    32,
		VoxOffset: defaultVoxOffset,
		SclSlope:  1,
		SformCode: 2,
	}
	hdr.Dim[0] = 3
	hdr.Dim[1] = int16(v.Nx)
	hdr.Dim[2] = int16(v.Ny)
	hdr.Dim[3] = int16(v.Nz)
	for i := 4; i < 8; i++ {
		hdr.Dim[i] = 1
	}
	hdr.Pixdim[0] = 1
	hdr.Pixdim[1] = float32(sx)
	hdr.Pixdim[2] = float32(sy)
	hdr.Pixdim[3] = float32(sz)
	for j := 0; j < 4; j++ {
		hdr.SrowX[j] = float32(v.Affine.At(0, j))
		hdr.SrowY[j] = float32(v.Affine.At(1, j))
		hdr.SrowZ[j] = float32(v.Affine.At(2, j))
	}
	copy(hdr.Magic[:], "n+1\x00")

	if err := binary.Write(w, binary.LittleEndian, &hdr); err != nil {
		return err
	}
	// No header extensions.
	if _, err := w.Write([]byte{0, 0, 0, 0}); err != nil {
		return err
	}

	buf := make([]float32, len(v.Data))
	for i, val := range v.Data {
		if math.IsNaN(val) || math.IsInf(val, 0) {
			val = 0
		}
		buf[i] = float32(val)
	}
	return binary.Write(w, binary.LittleEndian, buf)
}
