package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/resolvent/internal/trajectory"
)

type ExportData struct {
	OrbitMetadata
	// Coefficients holds [re, im] per mode and component.
	Coefficients [][][2]float64 `json:"coefficients"`
	Times        []float64      `json:"times"`
	States       [][]float64    `json:"states"`
}

func NewExport(meta *OrbitMetadata, traj *trajectory.Trajectory, times []float64, states [][]float64) *ExportData {
	data := &ExportData{
		OrbitMetadata: *meta,
		Coefficients:  make([][][2]float64, traj.Modes()),
		Times:         times,
		States:        states,
	}
	for n := range data.Coefficients {
		row := make([][2]float64, traj.Dim())
		for i := range row {
			c := traj.At(n, i)
			row[i] = [2]float64{real(c), imag(c)}
		}
		data.Coefficients[n] = row
	}
	return data
}

// Export loads a stored orbit into its exportable form.
func (s *Store) Export(id string) (*ExportData, error) {
	meta, err := s.Load(id)
	if err != nil {
		return nil, err
	}
	traj, err := s.LoadTrajectory(id)
	if err != nil {
		return nil, err
	}
	states, times, err := s.LoadStates(id)
	if err != nil {
		return nil, err
	}
	return NewExport(meta, traj, times, states), nil
}

func WriteJSON(w io.Writer, data *ExportData) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func ExportJSON(path string, data *ExportData) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteJSON(file, data); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func ExportJSONStdout(data *ExportData) error {
	return WriteJSON(os.Stdout, data)
}
