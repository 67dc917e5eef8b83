package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/resolvent/internal/spectral"
	"github.com/san-kum/resolvent/internal/trajectory"
)

var ErrNotFound = errors.New("storage: orbit not found")

const (
	metadataFile = "metadata.json"
	modesFile    = "modes.csv"
	statesFile   = "states.csv"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type OrbitMetadata struct {
	ID         string             `json:"id"`
	System     string             `json:"system"`
	Params     map[string]float64 `json:"params"`
	Timestamp  time.Time          `json:"timestamp"`
	Seed       int64              `json:"seed"`
	Modes      int                `json:"modes"`
	Dim        int                `json:"dim"`
	Backend    string             `json:"fft_backend"`
	Period     float64            `json:"period"`
	Mean       []float64          `json:"mean"`
	Method     string             `json:"method"`
	Status     string             `json:"status"`
	Residual   float64            `json:"residual"`
	GradNorm   float64            `json:"grad_norm"`
	Iterations int                `json:"iterations"`
	History    []float64          `json:"history,omitempty"`
	Metrics    map[string]float64 `json:"metrics,omitempty"`
}

// Save writes a new orbit directory and returns its id. ID, Timestamp, Modes
// and Dim of meta are filled in from traj.
func (s *Store) Save(meta *OrbitMetadata, traj *trajectory.Trajectory, tr spectral.Transformer) (string, error) {
	if err := traj.CheckShape(tr.Modes(), tr.Dim()); err != nil {
		return "", err
	}
	meta.ID = fmt.Sprintf("%s_%s", meta.System, uuid.NewString()[:8])
	meta.Timestamp = time.Now()
	meta.Modes = traj.Modes()
	meta.Dim = traj.Dim()

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	if err := writeFile(filepath.Join(runDir, metadataFile), func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(meta)
	}); err != nil {
		return "", err
	}
	if err := writeFile(filepath.Join(runDir, modesFile), func(w io.Writer) error {
		return writeModes(w, traj)
	}); err != nil {
		return "", err
	}
	times, states := Physical(traj, tr, meta.Period, meta.Mean)
	if err := writeFile(filepath.Join(runDir, statesFile), func(w io.Writer) error {
		return writeStates(w, times, states)
	}); err != nil {
		return "", err
	}
	return meta.ID, nil
}

// Physical samples traj over one period and adds mean back, giving the
// states the orbit actually visits.
func Physical(traj *trajectory.Trajectory, tr spectral.Transformer, period float64, mean []float64) ([]float64, [][]float64) {
	states := traj.Samples(tr)
	times := make([]float64, len(states))
	for k, s := range states {
		times[k] = period * float64(k) / float64(len(states))
		for i := range s {
			if i < len(mean) {
				s[i] += mean[i]
			}
		}
	}
	return times, states
}

func writeFile(path string, fn func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

func writeModes(out io.Writer, traj *trajectory.Trajectory) error {
	w := csv.NewWriter(out)
	if err := w.Write([]string{"mode", "component", "re", "im"}); err != nil {
		return err
	}
	for n := 0; n < traj.Modes(); n++ {
		for i := 0; i < traj.Dim(); i++ {
			c := traj.At(n, i)
			row := []string{strconv.Itoa(n), strconv.Itoa(i), formatFloat(real(c)), formatFloat(imag(c))}
			if err := w.Write(row); err != nil {
				return err
			}
		}
	}
	w.Flush()
	return w.Error()
}

func writeStates(out io.Writer, times []float64, states [][]float64) error {
	w := csv.NewWriter(out)
	if len(states) == 0 {
		w.Flush()
		return w.Error()
	}
	header := []string{"time"}
	for i := range states[0] {
		header = append(header, fmt.Sprintf("x%d", i))
	}
	if err := w.Write(header); err != nil {
		return err
	}
	for k, s := range states {
		row := []string{strconv.FormatFloat(times[k], 'f', 6, 64)}
		for _, v := range s {
			row = append(row, strconv.FormatFloat(v, 'f', 6, 64))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// List returns every stored orbit, best residual first.
func (s *Store) List() ([]OrbitMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []OrbitMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]OrbitMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}
	sort.SliceStable(runs, func(i, j int) bool { return runs[i].Residual < runs[j].Residual })
	return runs, nil
}

func (s *Store) Load(id string) (*OrbitMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, id, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, err
	}

	var meta OrbitMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("%s: %w", id, err)
	}
	return &meta, nil
}

// LoadTrajectory reads the stored Fourier coefficients back at full precision.
func (s *Store) LoadTrajectory(id string) (*trajectory.Trajectory, error) {
	meta, err := s.Load(id)
	if err != nil {
		return nil, err
	}
	records, err := readCSV(filepath.Join(s.baseDir, id, modesFile))
	if err != nil {
		return nil, err
	}
	traj := trajectory.New(meta.Modes, meta.Dim)
	for line, record := range records {
		if len(record) != 4 {
			return nil, fmt.Errorf("%s line %d: want 4 fields, got %d", modesFile, line+2, len(record))
		}
		var (
			idx    [2]int
			re, im float64
		)
		for j := 0; j < 2; j++ {
			if idx[j], err = strconv.Atoi(record[j]); err != nil {
				return nil, fmt.Errorf("%s line %d: %w", modesFile, line+2, err)
			}
		}
		if re, err = strconv.ParseFloat(record[2], 64); err != nil {
			return nil, fmt.Errorf("%s line %d: %w", modesFile, line+2, err)
		}
		if im, err = strconv.ParseFloat(record[3], 64); err != nil {
			return nil, fmt.Errorf("%s line %d: %w", modesFile, line+2, err)
		}
		if idx[0] < 0 || idx[0] >= meta.Modes || idx[1] < 0 || idx[1] >= meta.Dim {
			return nil, fmt.Errorf("%s line %d: mode (%d, %d) outside %dx%d", modesFile, line+2, idx[0], idx[1], meta.Modes, meta.Dim)
		}
		traj.Set(idx[0], idx[1], complex(re, im))
	}
	return traj, traj.Validate()
}

func (s *Store) LoadStates(id string) ([][]float64, []float64, error) {
	records, err := readCSV(filepath.Join(s.baseDir, id, statesFile))
	if err != nil {
		return nil, nil, err
	}

	times := make([]float64, 0, len(records))
	states := make([][]float64, 0, len(records))
	for _, record := range records {
		if len(record) == 0 {
			continue
		}
		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			continue
		}
		times = append(times, t)

		state := make([]float64, 0, len(record)-1)
		for j := 1; j < len(record); j++ {
			val, err := strconv.ParseFloat(record[j], 64)
			if err != nil {
				continue
			}
			state = append(state, val)
		}
		states = append(states, state)
	}
	return states, times, nil
}

// readCSV returns the records after the header line.
func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return [][]string{}, nil
	}
	return records[1:], nil
}
