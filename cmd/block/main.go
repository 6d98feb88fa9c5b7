package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/Style3D/block/internal/config"
	"github.com/Style3D/block/internal/engine"
	"github.com/Style3D/block/internal/geom"
	"github.com/Style3D/block/internal/scene"
	"github.com/Style3D/block/internal/solver"
	"github.com/Style3D/block/internal/storage"
	"github.com/Style3D/block/internal/store"
	"github.com/Style3D/block/internal/viz"
)

var (
	dataDir    string
	configFile string
	preset     string
	steps      int
	amplitude  float64
	jsonOut    string
	csvOut     string
	systemSize int
	tolerance  float64
	maxIters   int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "block",
		Short: "collision detection and constraint solving core",
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".block", "data directory")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "", "preset configuration")

	runCmd := &cobra.Command{
		Use:   "run [scene]",
		Short: "step a demo scene through the collision pipeline",
		Args:  cobra.ExactArgs(1),
		RunE:  runScene,
	}
	runCmd.Flags().IntVar(&steps, "steps", 60, "number of steps")
	runCmd.Flags().Float64Var(&amplitude, "amplitude", 0.3, "scene animation amplitude")
	runCmd.Flags().StringVar(&jsonOut, "json", "", "export run to JSON file")
	runCmd.Flags().StringVar(&csvOut, "csv", "", "export per-step records to CSV")

	solveCmd := &cobra.Command{
		Use:   "solve",
		Short: "benchmark the constraint solver on a generated system",
		RunE:  runSolveBench,
	}
	solveCmd.Flags().IntVar(&systemSize, "size", 1000, "number of unknowns")
	solveCmd.Flags().Float64Var(&tolerance, "tol", 1e-10, "relative residual tolerance")
	solveCmd.Flags().IntVar(&maxIters, "iters", 500, "iteration cap")

	liveCmd := &cobra.Command{
		Use:   "live [scene]",
		Short: "step a scene with a live terminal view",
		Args:  cobra.ExactArgs(1),
		RunE:  runLive,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	scenesCmd := &cobra.Command{
		Use:   "scenes",
		Short: "list demo scenes",
		RunE: func(cmd *cobra.Command, args []string) error {
			names := make([]string, 0)
			for name := range scene.Builders() {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Println(name)
			}
			return nil
		},
	}

	configCmd := &cobra.Command{
		Use:   "config [path]",
		Short: "write the default configuration to a file, or print it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if len(args) == 1 {
				return config.Save(args[0], cfg)
			}
			fmt.Printf("%+v\n", *cfg)
			return nil
		},
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list configuration presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			names := config.ListPresets()
			sort.Strings(names)
			for _, name := range names {
				fmt.Println(name)
			}
			return nil
		},
	}

	rootCmd.AddCommand(runCmd, solveCmd, liveCmd, listCmd, scenesCmd, configCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	if preset != "" {
		cfg := config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s", preset)
		}
		return cfg, nil
	}
	if configFile != "" {
		return config.Load(configFile)
	}
	return config.DefaultConfig(), nil
}

func buildScene(name string) ([]geom.Primitive, error) {
	builder, ok := scene.Builders()[name]
	if !ok {
		return nil, fmt.Errorf("unknown scene: %s (see `block scenes`)", name)
	}
	return builder(), nil
}

func runScene(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	eng, err := engine.New(cfg)
	if err != nil {
		return err
	}
	prims, err := buildScene(args[0])
	if err != nil {
		return err
	}
	base := make([]geom.Primitive, len(prims))
	copy(base, prims)

	records := make([]store.StepRecord, 0, steps)
	for i := 0; i < steps; i++ {
		scene.Oscillate(prims, base, float64(i)/30, amplitude)
		rep, err := eng.Step(prims)
		if err != nil {
			return err
		}
		res := eng.SolveContacts(len(prims), rep.Contacts)
		records = append(records, store.Record(rep, &res))
	}

	printSummary(args[0], records)

	if jsonOut != "" {
		data := &store.RunData{Scene: args[0], Config: *cfg, Steps: records}
		if err := store.ExportJSON(jsonOut, data); err != nil {
			return err
		}
	}
	if csvOut != "" {
		if err := store.ExportCSV(csvOut, records); err != nil {
			return err
		}
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(args[0], cfg, records)
	if err != nil {
		return err
	}
	fmt.Printf("saved run %s\n", runID)
	return nil
}

func printSummary(sceneName string, records []store.StepRecord) {
	contacts := make([]float64, len(records))
	for i, rec := range records {
		contacts[i] = float64(rec.Contacts)
	}
	if len(contacts) > 1 {
		fmt.Println(asciigraph.Plot(contacts,
			asciigraph.Height(8), asciigraph.Width(60),
			asciigraph.Caption(fmt.Sprintf("contacts per step (%s)", sceneName))))
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "step\tpairs\tcontacts\tsolve iters\tresidual\tms")
	for _, rec := range records {
		fmt.Fprintf(w, "%d\t%d\t%d\t%d\t%.1e\t%.2f\n",
			rec.Step, rec.Pairs, rec.Contacts, rec.SolverIterations, rec.Residual, rec.ElapsedMS)
	}
	w.Flush()
}

func runSolveBench(cmd *cobra.Command, args []string) error {
	diag := make([]float64, systemSize)
	for i := range diag {
		diag[i] = 2
	}
	sys := solver.NewSparseSystem(diag)
	for i := 0; i < systemSize-1; i++ {
		sys.AddRow([]int32{int32(i), int32(i + 1)}, []float64{1, -1})
	}

	b := make([]float64, systemSize)
	for i := range b {
		b[i] = 1
	}

	res := solver.Solve(sys, b, nil, tolerance, maxIters)

	if len(res.History) > 1 {
		fmt.Println(asciigraph.Plot(res.History,
			asciigraph.Height(10), asciigraph.Width(60),
			asciigraph.Caption("relative residual")))
	}
	fmt.Printf("unknowns=%d converged=%t iterations=%d residual=%.2e\n",
		systemSize, res.Converged, res.Iterations, res.Residual)
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	eng, err := engine.New(cfg)
	if err != nil {
		return err
	}
	prims, err := buildScene(args[0])
	if err != nil {
		return err
	}
	return viz.Run(eng, args[0], prims)
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "id\tscene\tsteps\ttimestamp")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n",
			run.ID, run.Scene, run.Steps, run.Timestamp.Format("2006-01-02 15:04:05"))
	}
	return w.Flush()
}
