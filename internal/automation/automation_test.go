package automation

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/gomega"

	"github.com/san-kum/resolvent/internal/config"
	"github.com/san-kum/resolvent/internal/experiment"
)

const scenarioYAML = `
name: vdp
description: van der Pol continuation
steps:
  - name: base
    system: vanderpol
    preset: weak
    init: integrate
    max_iter: 5
  - name: continuation
    system: vanderpol
    preset: weak
    init: integrate
    max_iter: 5
    sweep:
      param: mu
      min: 1
      max: 1.1
      steps: 2
`

func writeScenario(t *testing.T, body string) string {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadScenario(t *testing.T) {
	g := NewWithT(t)
	sc, err := LoadScenario(writeScenario(t, scenarioYAML))
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(sc.Name).To(Equal("vdp"))
	g.Expect(sc.Steps).To(HaveLen(2))
	g.Expect(sc.Steps[1].Sweep).NotTo(BeNil())
	vals := sc.Steps[1].Sweep.Values()
	g.Expect(vals).To(HaveLen(2))
	g.Expect(vals[1]).To(BeNumerically("~", 1.1, 1e-12))

	_, err = LoadScenario(writeScenario(t, "name: empty\n"))
	g.Expect(err).To(HaveOccurred())

	_, err = LoadScenario(writeScenario(t, "steps:\n  - sweep: {param: mu, steps: 0}\n"))
	g.Expect(err).To(HaveOccurred())

	_, err = LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	g.Expect(err).To(HaveOccurred())
}

func TestStepConfig(t *testing.T) {
	g := NewWithT(t)

	cfg, err := Step{System: "lorenz", Preset: "p1", Modes: 17, Method: "bfgs", Params: map[string]float64{"rho": 30}}.Config()
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(cfg.Period).To(Equal(1.55865))
	g.Expect(cfg.Modes).To(Equal(17))
	g.Expect(cfg.Solver.Method).To(Equal("bfgs"))
	g.Expect(cfg.Params).To(HaveKeyWithValue("rho", 30.0))
	g.Expect(cfg.Mean).To(BeNil(), "the preset mean belongs to rho = 28")
	g.Expect(config.GetPreset("lorenz", "p1").Params).NotTo(HaveKey("rho"))

	cfg, err = Step{System: "lorenz", Preset: "p1"}.Config()
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(cfg.Mean).To(Equal([]float64{0, 0, 23.6}))

	cfg, err = Step{System: "rossler"}.Config()
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(cfg.System).To(Equal("rossler"))
	g.Expect(cfg.Period).To(BeZero())

	_, err = Step{System: "lorenz", Preset: "nope"}.Config()
	g.Expect(err).To(HaveOccurred())

	_, err = Step{Init: "guess"}.Config()
	g.Expect(err).To(HaveOccurred())
}

func TestRunScenario(t *testing.T) {
	g := NewWithT(t)
	sc, err := LoadScenario(writeScenario(t, scenarioYAML))
	g.Expect(err).NotTo(HaveOccurred())

	var sunk []string
	out, err := RunScenario(context.Background(), sc, experiment.NewRegistry(), nil, func(o Outcome) error {
		sunk = append(sunk, o.Step)
		return nil
	})
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(out).To(HaveLen(3))
	g.Expect(sunk).To(Equal([]string{"base", "continuation", "continuation"}))

	g.Expect(out[0].Step).To(Equal("base"))
	g.Expect(out[1].Step).To(Equal("continuation"))
	g.Expect(out[1].ParamValue).To(Equal(1.0))
	g.Expect(out[2].ParamValue).To(BeNumerically("~", 1.1, 1e-12))
	g.Expect(out[2].Experiment.System().Params()["mu"]).To(BeNumerically("~", 1.1, 1e-12))
	for _, o := range out {
		g.Expect(o.Result).NotTo(BeNil())
		g.Expect(o.Result.Period()).To(BeNumerically(">", 5))
		g.Expect(o.Result.Period()).To(BeNumerically("<", 8))
	}
}

func TestRunSweepCancelled(t *testing.T) {
	g := NewWithT(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	base := config.GetPreset("vanderpol", "weak")
	out, err := RunSweep(ctx, base, Sweep{Param: "mu", Min: 1, Max: 2, Steps: 3}, experiment.NewRegistry(), nil, nil)
	g.Expect(err).To(MatchError(context.Canceled))
	g.Expect(out).To(BeEmpty())

	_, err = RunSweep(context.Background(), base, Sweep{Steps: 3}, experiment.NewRegistry(), nil, nil)
	g.Expect(err).To(HaveOccurred())
}

func TestRunSweepLorenzMeanFollowsRho(t *testing.T) {
	g := NewWithT(t)
	base := config.GetPreset("lorenz", "p1")
	base.Modes = 17
	base.Init.Method = config.InitIntegrate
	base.Solver.MaxIter = 3

	out, err := RunSweep(context.Background(), base, Sweep{Param: "rho", Min: 28, Max: 40, Steps: 2}, experiment.NewRegistry(), nil, nil)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(out).To(HaveLen(2))

	first, second := out[0].Result.Mean, out[1].Result.Mean
	g.Expect(first[2]).To(BeNumerically(">", 5))
	g.Expect(first[2]).To(BeNumerically("<", 40))
	// ρ = 40 has its own attractor mean, well above the ρ = 28 one.
	g.Expect(second[2]).To(BeNumerically(">", 30))
	g.Expect(second).To(Equal(out[1].Experiment.Config().Mean))
	g.Expect(second).NotTo(Equal(base.Mean))
}
