package corrections

import (
	"errors"
	"fmt"
	"reflect"
	"sort"

	"go-hep.org/x/hep/groot"
	"go-hep.org/x/hep/groot/riofs"
	"go-hep.org/x/hep/groot/rtree"
	"golang.org/x/exp/maps"
)

// Branches of a NanoAOD muon collection
const (
	BRANCH_NMUON  = "nMuon"
	BRANCH_PT     = "Muon_pt"
	BRANCH_ETA    = "Muon_eta"
	BRANCH_PHI    = "Muon_phi"
	BRANCH_MASS   = "Muon_mass"
	BRANCH_CHARGE = "Muon_charge"
	BRANCH_EVENT  = "event"
)

var muonBranches = []string{BRANCH_NMUON, BRANCH_PT, BRANCH_ETA, BRANCH_PHI, BRANCH_MASS, BRANCH_CHARGE}

// ROOTSource reads the muons of a NanoAOD tree. Every branch of the tree is
// read, so that a ROOTSink can copy them to the output.
type ROOTSource struct {
	Filename string
	TreeName string
	file     *riofs.File
	tree     rtree.Tree
	rvars    []rtree.ReadVar
	values   map[string]any
}

func OpenROOTSource(filename string, treeName string) (*ROOTSource, error) {
	f, err := groot.Open(filename)
	if err != nil {
		return nil, &ErrOpenFile{Filename: filename, Err: err}
	}

	obj, err := f.Get(treeName)
	if err != nil {
		f.Close()
		return nil, &ErrRecordGroup{GroupName: treeName, Err: err}
	}
	tree, ok := obj.(rtree.Tree)
	if !ok {
		f.Close()
		return nil, &ErrRecordGroup{GroupName: treeName, Err: fmt.Errorf("object is a %T, not a tree", obj)}
	}

	source := &ROOTSource{
		Filename: filename,
		TreeName: treeName,
		file:     f,
		tree:     tree,
		rvars:    rtree.NewReadVars(tree),
		values:   make(map[string]any),
	}
	for _, rvar := range source.rvars {
		source.values[rvar.Name] = rvar.Value
	}
	for _, name := range muonBranches {
		if _, ok := source.values[name]; !ok {
			f.Close()
			return nil, &ErrRecordGroup{GroupName: treeName, Err: fmt.Errorf("missing branch %q", name)}
		}
	}
	logger.Info(fmt.Sprintf("%s: %d entries in tree %s", filename, tree.Entries(), treeName), "rootReader")
	return source, nil
}

func (s *ROOTSource) Scan(fn func(event Event) error) error {
	r, err := rtree.NewReader(s.tree, s.rvars)
	if err != nil {
		return &ErrRecordGroup{GroupName: s.TreeName, Err: err}
	}
	defer r.Close()

	var userErr error
	err = r.Read(func(ctx rtree.RCtx) error {
		event, err := s.event(ctx.Entry)
		if err == nil {
			err = fn(event)
		}
		userErr = err
		return err
	})
	if userErr != nil {
		return userErr
	}
	if err != nil {
		return &ErrRecordGroup{GroupName: s.TreeName, Err: err}
	}
	return nil
}

// event builds the event from the values of the current entry.
func (s *ROOTSource) event(entry int64) (Event, error) {
	n, err := integerValue(s.values[BRANCH_NMUON])
	if err != nil {
		return Event{}, fmt.Errorf("%w: entry %d: %s: %v", ErrMalformedEvent, entry, BRANCH_NMUON, err)
	}
	event := Event{Entry: entry, Number: entry}
	if v, ok := s.values[BRANCH_EVENT]; ok {
		if number, err := integerValue(v); err == nil {
			event.Number = number
		}
	}

	columns := make(map[string][]float64)
	for _, name := range []string{BRANCH_PT, BRANCH_ETA, BRANCH_PHI, BRANCH_MASS} {
		column, err := floatSlice(s.values[name])
		if err != nil || int64(len(column)) != n {
			return Event{}, fmt.Errorf("%w: entry %d: %s has %d values for %d muons (%v)",
				ErrMalformedEvent, entry, name, len(column), n, err)
		}
		columns[name] = column
	}
	charges, err := intSlice(s.values[BRANCH_CHARGE])
	if err != nil || int64(len(charges)) != n {
		return Event{}, fmt.Errorf("%w: entry %d: %s has %d values for %d muons (%v)",
			ErrMalformedEvent, entry, BRANCH_CHARGE, len(charges), n, err)
	}

	event.Particles = make([]Particle, n)
	for i := range event.Particles {
		event.Particles[i] = Particle{
			Pt:     columns[BRANCH_PT][i],
			Eta:    columns[BRANCH_ETA][i],
			Phi:    columns[BRANCH_PHI][i],
			Mass:   columns[BRANCH_MASS][i],
			Charge: charges[i],
		}
	}
	return event, nil
}

func (s *ROOTSource) Close() error {
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}

func integerValue(ptr any) (int64, error) {
	v := reflect.ValueOf(ptr)
	if v.Kind() != reflect.Ptr {
		return 0, fmt.Errorf("unexpected type %T", ptr)
	}
	v = v.Elem()
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(v.Uint()), nil
	}
	return 0, fmt.Errorf("unexpected type %T", ptr)
}

func floatSlice(ptr any) ([]float64, error) {
	switch values := ptr.(type) {
	case *[]float32:
		out := make([]float64, len(*values))
		for i, value := range *values {
			out[i] = float64(value)
		}
		return out, nil
	case *[]float64:
		return *values, nil
	}
	return nil, fmt.Errorf("unexpected type %T", ptr)
}

func intSlice(ptr any) ([]int32, error) {
	switch values := ptr.(type) {
	case *[]int32:
		return *values, nil
	case *[]int8:
		out := make([]int32, len(*values))
		for i, value := range *values {
			out[i] = int32(value)
		}
		return out, nil
	case *[]int16:
		out := make([]int32, len(*values))
		for i, value := range *values {
			out[i] = int32(value)
		}
		return out, nil
	}
	return nil, fmt.Errorf("unexpected type %T", ptr)
}

// ROOTSink clones the tree of a ROOTSource and adds the extension branches.
// Every Write copies the current entry of the source, so it has to be called
// from inside the source Scan.
type ROOTSink struct {
	Filename string
	file     *riofs.File
	writer   rtree.Writer
	source   *ROOTSource
	copies   []branchCopy
	ext      map[string]any
	closed   bool
}

type branchCopy struct {
	name string
	from reflect.Value
	to   reflect.Value
}

func CreateROOTSink(filename string, source *ROOTSource, mode Mode) (*ROOTSink, error) {
	logger.Info(fmt.Sprintf("Creating file: %s", filename), "rootWriter")
	f, err := groot.Create(filename)
	if err != nil {
		return nil, &ErrOpenFile{Filename: filename, Output: true, Err: err}
	}
	sink := &ROOTSink{
		Filename: filename,
		file:     f,
		source:   source,
		ext:      make(map[string]any),
	}

	wvars := rtree.WriteVarsFromTree(source.tree)
	for _, wvar := range wvars {
		from, ok := source.values[wvar.Name]
		if !ok {
			f.Close()
			return nil, &ErrCreateTable{TableName: wvar.Name, Err: fmt.Errorf("branch not read from %s", source.Filename)}
		}
		to := reflect.ValueOf(wvar.Value).Elem()
		fromValue := reflect.ValueOf(from).Elem()
		if !fromValue.Type().ConvertibleTo(to.Type()) {
			f.Close()
			return nil, &ErrCreateTable{TableName: wvar.Name,
				Err: fmt.Errorf("cannot copy %v into %v", fromValue.Type(), to.Type())}
		}
		sink.copies = append(sink.copies, branchCopy{name: wvar.Name, from: fromValue, to: to})
	}

	for _, field := range OutputFields(mode) {
		wvar := rtree.WriteVar{Name: field.Name}
		switch field.Kind {
		case PerParticle:
			wvar.Value = new([]float32)
			wvar.Count = BRANCH_NMUON
		case Scalar:
			wvar.Value = new(float32)
		}
		sink.ext[field.Name] = wvar.Value
		wvars = append(wvars, wvar)
	}

	sink.writer, err = rtree.NewWriter(f, source.TreeName, wvars)
	if err != nil {
		f.Close()
		return nil, &ErrCreateTable{TableName: source.TreeName, Err: err}
	}
	return sink, nil
}

func (s *ROOTSink) Write(event *CorrectedEvent) error {
	if s.closed {
		return errSinkClosed
	}
	for _, c := range s.copies {
		c.to.Set(c.from.Convert(c.to.Type()))
	}

	values := fieldValues(event)
	names := maps.Keys(values)
	sort.Strings(names)
	for _, name := range names {
		ptr, ok := s.ext[name]
		if !ok {
			return fmt.Errorf("field %s was not declared in %s", name, s.Filename)
		}
		reflect.ValueOf(ptr).Elem().Set(reflect.ValueOf(values[name]))
	}

	if _, err := s.writer.Write(); err != nil {
		return fmt.Errorf("%w: writing entry %d: %w", ErrSinkUnavailable, event.Entry, err)
	}
	return nil
}

func (s *ROOTSink) Close() error {
	if s.closed {
		return errSinkClosed
	}
	s.closed = true
	logger.Info(fmt.Sprintf("Writing tree to output file %s", s.Filename), "rootWriter")
	var errs []error
	if err := s.writer.Close(); err != nil {
		errs = append(errs, fmt.Errorf("error closing tree: %w", err))
	}
	if err := s.file.Close(); err != nil {
		errs = append(errs, fmt.Errorf("error closing file: %w", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrSinkUnavailable, errors.Join(errs...))
	}
	return nil
}
