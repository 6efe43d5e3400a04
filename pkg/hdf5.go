package corrections

import (
	"fmt"
	"sync"

	hdf5 "github.com/jmbenlloch/go-hdf5"
)

type EventRowHDF5 struct {
	evt_number int64
	nMuon      uint32
}

type MuonRowHDF5 struct {
	pt     float32
	eta    float32
	phi    float32
	mass   float32
	charge int32
}

type CorrectedMuonHDF5 struct {
	pt   float32
	eta  float32
	phi  float32
	mass float32
}

type DimuonHDF5 struct {
	dimuon_mass     float32
	dimuon_mass_cor float32
	eta_pos         float32
	eta_neg         float32
}

const (
	EVENTS_TABLE    = "events"
	MUONS_TABLE     = "muons"
	CORRECTED_TABLE = "muons_cor"
	DIMUON_TABLE    = "dimuon"
)

const COMPRESSION_LEVEL = 4

// libhdf5 is not built thread safe. Runs handled by different workers take
// this lock around every call into the library.
var hdf5Mutex sync.Mutex

// table is an extendable HDF5 dataset and the number of rows written to it.
type table struct {
	dataset *hdf5.Dataset
	rows    int
}

func openFile(fname string) (*hdf5.File, error) {
	f, err := hdf5.CreateFile(fname, hdf5.F_ACC_TRUNC)
	if err != nil {
		return nil, &ErrOpenFile{Filename: fname, Output: true, Err: err}
	}
	return f, nil
}

func createGroup(file *hdf5.File, groupName string) (*hdf5.Group, error) {
	g, err := file.CreateGroup(groupName)
	if err != nil {
		return nil, &ErrCreateTable{TableName: groupName, Err: err}
	}
	return g, nil
}

func createTable(group *hdf5.Group, name string, datatype interface{}) (*table, error) {
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

	chunks := []uint{32768}
	if err := plist.SetChunk(chunks); err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}
	// Set compression level
	if err := plist.SetDeflate(COMPRESSION_LEVEL); err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}

	// create the memory data type
	dtype, err := hdf5.NewDatatypeFromValue(datatype)
	if err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}

	// create the dataset
	dset, err := group.CreateDatasetWith(name, dtype, file_space, plist)
	if err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}
	return &table{dataset: dset}, nil
}

// appendRows extends the table and writes the rows at the end.
func appendRows[T any](t *table, data *[]T) error {
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
	rowsInFile := uint(t.rows)
	newsize := []uint{rowsInFile + length}
	if err := t.dataset.Resize(newsize); err != nil {
		return err
	}
	filespace := t.dataset.Space()
	defer filespace.Close()

	start := []uint{rowsInFile}
	count := []uint{length}
	if err := filespace.SelectHyperslab(start, nil, count, nil); err != nil {
		return err
	}

	if err := t.dataset.WriteSubset(data, dataspace, filespace); err != nil {
		return err
	}
	t.rows += int(length)
	return nil
}

func appendRow[T any](t *table, data T) error {
	array := []T{data}
	return appendRows(t, &array)
}

// readTable reads a whole table of the input file.
func readTable[T any](group *hdf5.Group, groupName string, name string) ([]T, error) {
	dset, err := group.OpenDataset(name)
	if err != nil {
		return nil, &ErrRecordGroup{GroupName: groupName + "/" + name, Err: err}
	}
	defer dset.Close()

	space := dset.Space()
	nRows := space.SimpleExtentNPoints()
	space.Close()

	rows := make([]T, nRows)
	if nRows == 0 {
		return rows, nil
	}
	if err := dset.Read(&rows); err != nil {
		return nil, &ErrRecordGroup{GroupName: groupName + "/" + name, Err: fmt.Errorf("reading rows: %w", err)}
	}
	return rows, nil
}
