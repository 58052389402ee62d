package teldata

import (
	"errors"

	"github.com/jmbenlloch/go-hdf5"
)

// Row layouts of the event file. Field names become the column names, so
// they follow the file convention rather than Go naming.

type InfoHDF5 struct {
	session        [STRLEN]byte
	format_version int32
}

type EventHDF5 struct {
	run_number uint64
	evt_number uint64
	clock      uint64
	setup      uint16
	n_raw      uint32
	n_groups   uint32
	n_trajs    uint32
}

type RawHitHDF5 struct {
	evt_index uint32
	u         uint16
	v         uint16
	det       uint16
	clk       uint16
}

type HitGroupHDF5 struct {
	evt_index uint32
	det       uint16
	u         float64
	v         float64
	n_raw     uint32
}

type TrajectoryHDF5 struct {
	evt_index   uint32
	traj_number uint64
	n_hits      uint32
}

type TrajHitHDF5 struct {
	evt_index     uint32
	det           uint16
	fit_det       uint16
	pos_local     [2]float64
	dir_local     [3]float64
	pos_global    [3]float64
	dir_global    [3]float64
	origin_index  int32
	matched_index int32
}

type ResidualHDF5 struct {
	evt_index uint32
	det       uint16
	resid_u   float64
	resid_v   float64
}

// STRLEN fits a canonical UUID string.
const STRLEN = 36

const FormatVersion = 1

var errInvalidDataspace = errors.New("cannot get dataspace of table")

func convertToHdf5String(s string) [STRLEN]byte {
	var byteArray [STRLEN]byte
	copy(byteArray[:], s)
	return byteArray
}

func convertFromHdf5String(b [STRLEN]byte) string {
	n := 0
	for n < STRLEN && b[n] != 0 {
		n++
	}
	return string(b[:n])
}

func createFile(fname string) (*hdf5.File, error) {
	f, err := hdf5.CreateFile(fname, hdf5.F_ACC_TRUNC)
	if err != nil {
		return nil, &ErrOpenFile{Filename: fname, Err: err}
	}
	return f, nil
}

func createGroup(file *hdf5.File, groupName string) (*hdf5.Group, error) {
	g, err := file.CreateGroup(groupName)
	if err != nil {
		return nil, &ErrCreateGroup{GroupName: groupName, Err: err}
	}
	return g, nil
}

func createTable(group *hdf5.Group, name string, datatype interface{}, config Configuration) (*hdf5.Dataset, error) {
	dims := []uint{0}
	unlimitedDims := -1 // H5S_UNLIMITED is -1L
	maxDims := []uint{uint(unlimitedDims)}
	file_space, err := hdf5.CreateSimpleDataspace(dims, maxDims)
	if err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}
	defer file_space.Close()

	// create property list
	plist, err := hdf5.NewPropList(hdf5.P_DATASET_CREATE)
	if err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}
	defer plist.Close()

	chunkSize := config.ChunkSize
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	chunks := []uint{uint(chunkSize)}
	if err := plist.SetChunk(chunks); err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}
	if config.CompressionLevel > 0 {
		if err := plist.SetDeflate(config.CompressionLevel); err != nil {
			return nil, &ErrCreateTable{TableName: name, Err: err}
		}
	}

	// create the memory data type
	dtype, err := hdf5.NewDatatypeFromValue(datatype)
	if err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}

	dset, err := group.CreateDatasetWith(name, dtype, file_space, plist)
	if err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}
	return dset, nil
}

func writeEntryToTable[T any](dataset *hdf5.Dataset, data T) error {
	array := []T{data}
	return writeArrayToTable(dataset, &array)
}

// writeArrayToTable appends the rows at the end of an extendable table.
// Empty slices are a no-op: HDF5 cannot take a write from an empty buffer.
func writeArrayToTable[T any](dataset *hdf5.Dataset, data *[]T) error {
	length := uint(len(*data))
	if length == 0 {
		return nil
	}
	dims := []uint{length}
	dataspace, err := hdf5.CreateSimpleDataspace(dims, nil)
	if err != nil {
		return err
	}
	defer dataspace.Close()

	// extend
	current := dataset.Space()
	if current == nil {
		return errInvalidDataspace
	}
	dimsGot, _, err := current.SimpleExtentDims()
	current.Close()
	if err != nil {
		return err
	}
	rowsInFile := dimsGot[0]
	newsize := []uint{rowsInFile + length}
	if err := dataset.Resize(newsize); err != nil {
		return err
	}
	filespace := dataset.Space()
	if filespace == nil {
		return errInvalidDataspace
	}
	defer filespace.Close()

	start := []uint{rowsInFile}
	count := []uint{length}
	if err := filespace.SelectHyperslab(start, nil, count, nil); err != nil {
		return err
	}
	return dataset.WriteSubset(data, dataspace, filespace)
}

// readTable loads a whole table.
func readTable[T any](group *hdf5.Group, name string) ([]T, error) {
	dset, err := group.OpenDataset(name)
	if err != nil {
		return nil, &ErrOpenTable{TableName: name, Err: err}
	}
	defer dset.Close()

	space := dset.Space()
	if space == nil {
		return nil, &ErrOpenTable{TableName: name, Err: errInvalidDataspace}
	}
	dims, _, err := space.SimpleExtentDims()
	space.Close()
	if err != nil {
		return nil, &ErrOpenTable{TableName: name, Err: err}
	}
	if len(dims) != 1 {
		return nil, &ErrOpenTable{TableName: name, Err: malformed(name, "want 1 dimension, got %d", len(dims))}
	}
	rows := make([]T, dims[0])
	if len(rows) == 0 {
		return rows, nil
	}
	if err := dset.Read(&rows); err != nil {
		return nil, &ErrOpenTable{TableName: name, Err: err}
	}
	return rows, nil
}
