package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/gomega"

	"github.com/san-kum/resolvent/internal/spectral"
	"github.com/san-kum/resolvent/internal/trajectory"
)

func testOrbit(t *testing.T) (*trajectory.Trajectory, spectral.Transformer) {
	t.Helper()
	tr, err := spectral.ForModes(spectral.BackendGonum, 9, 3)
	if err != nil {
		t.Fatal(err)
	}
	rng := rand.New(rand.NewSource(11))
	u := trajectory.New(9, 3)
	for n := 1; n < 8; n++ {
		for i := 0; i < 3; i++ {
			u.Set(n, i, complex(rng.NormFloat64()/3, rng.NormFloat64()/3))
		}
	}
	return u, tr
}

func testMeta() *OrbitMetadata {
	return &OrbitMetadata{
		System:   "lorenz",
		Params:   map[string]float64{"rho": 28},
		Seed:     42,
		Period:   1.5586,
		Mean:     []float64{0, 0, 23.6},
		Method:   "lbfgs",
		Residual: 1e-9,
		History:  []float64{10, 1, 1e-9},
		Metrics:  map[string]float64{"amplitude": 12.5},
	}
}

func TestStoreSaveLoad(t *testing.T) {
	g := NewWithT(t)
	st := New(t.TempDir())
	g.Expect(st.Init()).To(Succeed())

	u, tr := testOrbit(t)
	id, err := st.Save(testMeta(), u, tr)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(id).To(HavePrefix("lorenz_"))

	meta, err := st.Load(id)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(meta.System).To(Equal("lorenz"))
	g.Expect(meta.Seed).To(Equal(int64(42)))
	g.Expect(meta.Modes).To(Equal(9))
	g.Expect(meta.Dim).To(Equal(3))
	g.Expect(meta.History).To(Equal([]float64{10, 1, 1e-9}))
	g.Expect(meta.Metrics).To(HaveKeyWithValue("amplitude", 12.5))

	// Coefficients round-trip exactly.
	back, err := st.LoadTrajectory(id)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(back.EqualApprox(u, 0)).To(BeTrue())

	states, times, err := st.LoadStates(id)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(states).To(HaveLen(tr.Len()))
	g.Expect(times).To(HaveLen(tr.Len()))
	g.Expect(times[1]).To(BeNumerically("~", 1.5586/16, 1e-6))

	// States carry the mean back in.
	sum := 0.0
	for _, s := range states {
		sum += s[2]
	}
	g.Expect(sum / float64(len(states))).To(BeNumerically("~", 23.6, 1e-5))
}

func TestStoreList(t *testing.T) {
	st := New(filepath.Join(t.TempDir(), "orbits"))

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}

	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	u, tr := testOrbit(t)
	for _, r := range []float64{1e-3, 1e-8, 1e-5} {
		meta := testMeta()
		meta.Residual = r
		if _, err := st.Save(meta, u, tr); err != nil {
			t.Fatalf("save failed: %v", err)
		}
	}
	// Directories without metadata are skipped.
	if err := os.Mkdir(filepath.Join(st.baseDir, "junk"), 0755); err != nil {
		t.Fatal(err)
	}

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(runs))
	}
	if runs[0].Residual != 1e-8 || runs[2].Residual != 1e-3 {
		t.Errorf("runs not ordered by residual: %v, %v, %v", runs[0].Residual, runs[1].Residual, runs[2].Residual)
	}
}

func TestStoreFileStructure(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	u, tr := testOrbit(t)
	runID, err := st.Save(testMeta(), u, tr)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	for _, name := range []string{"metadata.json", "modes.csv", "states.csv"} {
		if _, err := os.Stat(filepath.Join(tmpDir, runID, name)); os.IsNotExist(err) {
			t.Errorf("%s not created", name)
		}
	}
}

func TestStoreErrors(t *testing.T) {
	g := NewWithT(t)
	st := New(t.TempDir())
	g.Expect(st.Init()).To(Succeed())

	_, err := st.Load("missing")
	g.Expect(errors.Is(err, ErrNotFound)).To(BeTrue())

	u, _ := testOrbit(t)
	wrong, err := spectral.ForModes(spectral.BackendGonum, 5, 3)
	g.Expect(err).NotTo(HaveOccurred())
	_, err = st.Save(testMeta(), u, wrong)
	g.Expect(err).To(HaveOccurred())

	u, tr := testOrbit(t)
	id, err := st.Save(testMeta(), u, tr)
	g.Expect(err).NotTo(HaveOccurred())
	bad := "mode,component,re,im\n0,0,x,0\n"
	g.Expect(os.WriteFile(filepath.Join(st.baseDir, id, "modes.csv"), []byte(bad), 0644)).To(Succeed())
	_, err = st.LoadTrajectory(id)
	g.Expect(err).To(HaveOccurred())
}

func TestExport(t *testing.T) {
	g := NewWithT(t)
	st := New(t.TempDir())
	g.Expect(st.Init()).To(Succeed())
	u, tr := testOrbit(t)
	id, err := st.Save(testMeta(), u, tr)
	g.Expect(err).NotTo(HaveOccurred())

	data, err := st.Export(id)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(data.Coefficients).To(HaveLen(9))
	g.Expect(data.Coefficients[1][2]).To(Equal([2]float64{real(u.At(1, 2)), imag(u.At(1, 2))}))

	var buf bytes.Buffer
	g.Expect(WriteJSON(&buf, data)).To(Succeed())
	var decoded map[string]any
	g.Expect(json.Unmarshal(buf.Bytes(), &decoded)).To(Succeed())
	g.Expect(decoded).To(HaveKeyWithValue("id", id))
	g.Expect(decoded).To(HaveKey("coefficients"))
	g.Expect(decoded).To(HaveKey("states"))

	path := filepath.Join(t.TempDir(), "orbit.json")
	g.Expect(ExportJSON(path, data)).To(Succeed())
	g.Expect(path).To(BeAnExistingFile())
}
