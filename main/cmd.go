package main

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ontanj/psm"
	"github.com/ontanj/psm/configs"
	"github.com/ontanj/psm/internal/logger"
	"github.com/ontanj/psm/poly"
	"github.com/ontanj/psm/store"
)

const (
	Name        = "psm"
	Description = "Private set-membership test over Paillier encryption."
	Version     = "v0.1.0"
)

var (
	confFilePath string
	bitsFlag     int
	schemeFlag   string
	workersFlag  int
	storeFlag    string
)

var rootCmd = &cobra.Command{
	Use:   Name,
	Short: Description,
}

func Execute() {
	rootCmd.CompletionOptions.HiddenDefaultCmd = true
	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true
	err := rootCmd.Execute()
	if err != nil {
		fmt.Printf("\x1b[%dm[err]\x1b[0m %v\n", 41, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&confFilePath, "config", "c", "", "Custom profile")
	rootCmd.PersistentFlags().IntVar(&bitsFlag, "bits", 0, "Key size in bits, overrides the profile")
	rootCmd.PersistentFlags().StringVar(&schemeFlag, "scheme", "", "Cryptosystem (paillier|dj), overrides the profile")
	rootCmd.PersistentFlags().IntVar(&workersFlag, "workers", -1, "Batch concurrency, overrides the profile")
	rootCmd.PersistentFlags().StringVar(&storeFlag, "store", "", "Dataset store directory, overrides the profile")
	rootCmd.AddCommand(
		Command_Default(),
		Command_Version(),
		Command_Run(),
		Command_Batch(),
		Command_Poly(),
		Command_Dataset(),
	)
}

func Command_Version() *cobra.Command {
	return &cobra.Command{
		Use:                   "version",
		Short:                 "Print version information",
		DisableFlagsInUseLine: true,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), Name+" "+Version)
		},
	}
}

func Command_Default() *cobra.Command {
	return &cobra.Command{
		Use:                   "default",
		Short:                 "Generate profile template",
		DisableFlagsInUseLine: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := configs.WriteTemplate(configs.DefaultProfile); err != nil {
				return err
			}
			pwd, _ := os.Getwd()
			fmt.Fprintf(cmd.OutOrStdout(), "%s written to %s\n", configs.DefaultProfile, pwd)
			return nil
		},
	}
}

func Command_Run() *cobra.Command {
	cc := &cobra.Command{
		Use:   "run",
		Short: "Test one query against a dataset",
		RunE:  Command_Run_Runfunc,
	}
	cc.Flags().String("query", "", "Query element")
	cc.Flags().String("dataset", "", "Element file of the dataset")
	cc.Flags().String("name", "", "Name of a stored dataset")
	cc.MarkFlagRequired("query")
	cc.MarkFlagsMutuallyExclusive("dataset", "name")
	return cc
}

func Command_Batch() *cobra.Command {
	cc := &cobra.Command{
		Use:   "batch",
		Short: "Test several queries against a dataset",
		RunE:  Command_Batch_Runfunc,
	}
	cc.Flags().String("queries", "", "Comma separated query elements")
	cc.Flags().String("dataset", "", "Element file of the dataset")
	cc.Flags().String("name", "", "Name of a stored dataset")
	cc.MarkFlagRequired("queries")
	cc.MarkFlagsMutuallyExclusive("dataset", "name")
	return cc
}

func Command_Poly() *cobra.Command {
	cc := &cobra.Command{
		Use:   "poly",
		Short: "Print the membership polynomial of a dataset (reveals the dataset)",
		RunE:  Command_Poly_Runfunc,
	}
	cc.Flags().String("dataset", "", "Element file of the dataset")
	cc.MarkFlagRequired("dataset")
	return cc
}

func Command_Dataset() *cobra.Command {
	cc := &cobra.Command{
		Use:   "dataset",
		Short: "Manage stored datasets",
	}
	cc.AddCommand(
		&cobra.Command{
			Use:   "import <name> <file>",
			Short: "Store the elements of a file under a name",
			Args:  cobra.ExactArgs(2),
			RunE:  Command_DatasetImport_Runfunc,
		},
		&cobra.Command{
			Use:   "list",
			Short: "List stored datasets",
			Args:  cobra.NoArgs,
			RunE:  Command_DatasetList_Runfunc,
		},
		&cobra.Command{
			Use:   "delete <name>",
			Short: "Delete a stored dataset",
			Args:  cobra.ExactArgs(1),
			RunE:  Command_DatasetDelete_Runfunc,
		},
	)
	return cc
}

// env is what every command needs from the profile and flags.
type env struct {
	cfg *configs.Confile
	log *zap.Logger
}

func loadEnv() (*env, error) {
	var (
		cfg *configs.Confile
		err error
	)
	if confFilePath != "" {
		cfg, err = configs.Parse(confFilePath)
	} else {
		cfg, err = configs.Default()
	}
	if err != nil {
		return nil, err
	}
	if bitsFlag > 0 {
		cfg.Protocol.SecurityBits = bitsFlag
	}
	if schemeFlag != "" {
		cfg.Protocol.Scheme = schemeFlag
	}
	if workersFlag >= 0 {
		cfg.Protocol.Workers = workersFlag
	}
	if storeFlag != "" {
		cfg.Store.Path = storeFlag
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log, err := logger.New(logger.Config{Level: cfg.Log.Level, File: cfg.Log.File})
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, log: log}, nil
}

func (e *env) protocol() (*psm.Protocol, error) {
	scheme, err := psm.SchemeByName(e.cfg.Protocol.Scheme)
	if err != nil {
		return nil, err
	}
	return psm.NewProtocol(
		psm.WithSecurityBits(e.cfg.Protocol.SecurityBits),
		psm.WithScheme(scheme),
		psm.WithWorkers(e.cfg.Protocol.Workers),
		psm.WithLogger(e.log),
	), nil
}

func (e *env) openStore() (*store.Store, error) {
	return store.Open(e.cfg.Store.Path, e.cfg.Store.Cache, e.cfg.Store.Handles)
}

// dataset resolves --dataset or --name.
func (e *env) dataset(cmd *cobra.Command) ([]*big.Int, error) {
	file, _ := cmd.Flags().GetString("dataset")
	name, _ := cmd.Flags().GetString("name")
	switch {
	case file != "":
		return parseElementfile(file)
	case name != "":
		st, err := e.openStore()
		if err != nil {
			return nil, err
		}
		defer st.Close()
		return st.GetDataset(name)
	}
	return nil, errors.New("one of --dataset or --name is required")
}

func Command_Run_Runfunc(cmd *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	defer e.log.Sync()
	q, _ := cmd.Flags().GetString("query")
	queries, err := parseElements(q)
	if err != nil {
		return err
	}
	if len(queries) != 1 {
		return errors.Errorf("expected one query, got %d", len(queries))
	}
	dataset, err := e.dataset(cmd)
	if err != nil {
		return err
	}
	p, err := e.protocol()
	if err != nil {
		return err
	}
	res, timings, err := p.RunWithTimings(cmd.Context(), queries[0], dataset)
	if err != nil {
		return err
	}

	var tableRows = []table.Row{
		{"query", res.Query.String()},
		{"member", res.IsMember},
		{"dataset size", res.DatasetSize},
		{"key generation", timings.KeyGeneration},
		{"client encryption", timings.ClientEncryption},
		{"server computation", timings.ServerComputation},
		{"client decryption", timings.ClientDecryption},
		{"total", timings.Total},
	}
	tw := table.NewWriter()
	tw.AppendRows(tableRows)
	fmt.Fprintln(cmd.OutOrStdout(), tw.Render())
	return nil
}

func Command_Batch_Runfunc(cmd *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	defer e.log.Sync()
	q, _ := cmd.Flags().GetString("queries")
	queries, err := parseElements(q)
	if err != nil {
		return err
	}
	dataset, err := e.dataset(cmd)
	if err != nil {
		return err
	}
	p, err := e.protocol()
	if err != nil {
		return err
	}
	startT := time.Now()
	results, err := p.Batch(cmd.Context(), queries, dataset)
	if err != nil {
		return err
	}
	wall := time.Since(startT)

	tw := table.NewWriter()
	tw.AppendHeader(table.Row{"#", "query", "member", "elapsed"})
	for i, res := range results {
		tw.AppendRow(table.Row{i + 1, res.Query.String(), res.IsMember, res.Elapsed})
	}
	fmt.Fprintln(cmd.OutOrStdout(), tw.Render())

	if len(results) > 0 {
		summary, err := summarize(results)
		if err != nil {
			return err
		}
		sw := table.NewWriter()
		sw.AppendRows([]table.Row{
			{"queries", len(results)},
			{"members", summary.members},
			{"mean", summary.mean},
			{"median", summary.median},
			{"p95", summary.p95},
			{"wall time", wall},
		})
		fmt.Fprintln(cmd.OutOrStdout(), sw.Render())
	}
	return nil
}

type latencySummary struct {
	members           int
	mean, median, p95 time.Duration
}

func summarize(results []psm.Result) (latencySummary, error) {
	var s latencySummary
	ms := make(stats.Float64Data, len(results))
	for i, res := range results {
		ms[i] = float64(res.Elapsed) / float64(time.Millisecond)
		if res.IsMember {
			s.members++
		}
	}
	mean, err := stats.Mean(ms)
	if err != nil {
		return s, err
	}
	median, err := stats.Median(ms)
	if err != nil {
		return s, err
	}
	p95, err := stats.Percentile(ms, 95)
	if err != nil {
		return s, err
	}
	toDuration := func(v float64) time.Duration {
		return time.Duration(v * float64(time.Millisecond)).Round(time.Microsecond)
	}
	s.mean, s.median, s.p95 = toDuration(mean), toDuration(median), toDuration(p95)
	return s, nil
}

func Command_Poly_Runfunc(cmd *cobra.Command, args []string) error {
	file, _ := cmd.Flags().GetString("dataset")
	elements, err := parseElementfile(file)
	if err != nil {
		return err
	}
	unique := psm.NewDataset(elements)
	coeffs := psm.NewServer(elements).Coefficients()
	if !poly.Verify(unique.Elements(), coeffs) {
		return errors.New("membership polynomial does not match the dataset")
	}
	fmt.Fprintf(cmd.OutOrStdout(), "dataset: %s\n", readableElements(unique.Elements()))
	tw := table.NewWriter()
	tw.AppendHeader(table.Row{"degree", "coefficient"})
	for i, c := range coeffs {
		tw.AppendRow(table.Row{i, c.String()})
	}
	fmt.Fprintln(cmd.OutOrStdout(), tw.Render())
	return nil
}

func Command_DatasetImport_Runfunc(cmd *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	elements, err := parseElementfile(args[1])
	if err != nil {
		return err
	}
	st, err := e.openStore()
	if err != nil {
		return err
	}
	defer st.Close()
	unique := psm.NewDataset(elements)
	if err := st.PutDataset(args[0], unique.Elements()); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "imported %d elements as %s\n", unique.Size(), args[0])
	return nil
}

func Command_DatasetList_Runfunc(cmd *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	st, err := e.openStore()
	if err != nil {
		return err
	}
	defer st.Close()
	infos, err := st.ListDatasets()
	if err != nil {
		return err
	}
	tw := table.NewWriter()
	tw.AppendHeader(table.Row{"name", "size", "created"})
	for _, info := range infos {
		tw.AppendRow(table.Row{info.Name, info.Size, info.Created.Format(time.RFC3339)})
	}
	fmt.Fprintln(cmd.OutOrStdout(), tw.Render())
	return nil
}

func Command_DatasetDelete_Runfunc(cmd *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	st, err := e.openStore()
	if err != nil {
		return err
	}
	defer st.Close()
	if err := st.DeleteDataset(args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
	return nil
}

// run wraps Execute for tests.
func run(ctx context.Context, args ...string) error {
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}
