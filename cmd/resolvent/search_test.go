package main

import (
	"path/filepath"
	"testing"

	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	"github.com/san-kum/resolvent/internal/config"
)

func searchCommand(t *testing.T, flags ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "solve"}
	addSearchFlags(cmd)
	if err := cmd.ParseFlags(flags); err != nil {
		t.Fatal(err)
	}
	return cmd
}

func TestBuildConfig_ConfigFile(t *testing.T) {
	g := NewWithT(t)
	path := filepath.Join(t.TempDir(), "p1.yaml")
	g.Expect(config.Save(path, config.GetPreset("lorenz", "p1"))).To(Succeed())

	cfg, err := buildConfig(searchCommand(t, "--config", path), []string{"lorenz"})
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(cfg.Period).To(Equal(1.55865))
	g.Expect(cfg.Mean).To(Equal([]float64{0, 0, 23.6}))

	// Another system cannot inherit the file's period and mean.
	cfg, err = buildConfig(searchCommand(t, "--config", path), []string{"vanderpol"})
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(cfg.System).To(Equal("vanderpol"))
	g.Expect(cfg.Period).To(BeZero())
	g.Expect(cfg.Mean).To(BeNil())
	g.Expect(cfg.Modes).To(Equal(33))

	cfg, err = buildConfig(searchCommand(t, "--config", path, "--period", "2.5"), []string{"rossler"})
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(cfg.Period).To(Equal(2.5))
}

func TestBuildConfig_PresetAndFlags(t *testing.T) {
	g := NewWithT(t)
	cfg, err := buildConfig(searchCommand(t, "--preset", "weak", "--modes", "9"), []string{"vanderpol"})
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(cfg.Period).To(Equal(6.6633))
	g.Expect(cfg.Modes).To(Equal(9))

	cfg, err = buildConfig(searchCommand(t), []string{"viswanath"})
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(cfg.Period).To(BeZero())
	g.Expect(cfg.Mean).To(BeNil())

	_, err = buildConfig(searchCommand(t, "--preset", "missing"), []string{"lorenz"})
	g.Expect(err).To(HaveOccurred())
}
