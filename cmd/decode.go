package cmd

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/spf13/cobra"

	"firestige.xyz/pktinfo/internal/config"
	"firestige.xyz/pktinfo/internal/core"
	"firestige.xyz/pktinfo/internal/filter"
	"firestige.xyz/pktinfo/internal/log"
	"firestige.xyz/pktinfo/internal/metrics"
	"firestige.xyz/pktinfo/internal/pipeline"
	"firestige.xyz/pktinfo/internal/sink/console"
)

var decodeCmd = &cobra.Command{
	Use:   "decode [file]",
	Short: "Decode a capture file into packet records",
	Long: `Decode a pcap or pcapng file and print one record per TCP/IPv4 frame.

Flags override the config file.

Examples:
  pktinfo decode capture.pcap
  pktinfo decode capture.pcap --mode native --ports 80,443
  pktinfo decode capture.pcap --mode bpf --bpf-file ports.ddd --format json
  pktinfo decode capture.pcap --count --timing`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := decodeOptionsFrom(cmd, args, cfg)
		if err != nil {
			return err
		}
		return runDecode(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
	},
}

var (
	decodeMode        string
	decodePorts       []uint
	decodeIPs         []string
	decodeBPFFile     string
	decodeFormat      string
	decodeCount       bool
	decodeTiming      bool
	decodeMetricsFile string
)

func init() {
	decodeCmd.Flags().StringVarP(&decodeMode, "mode", "m", "", "filter mode: none, native, predicate, bpf")
	decodeCmd.Flags().UintSliceVarP(&decodePorts, "ports", "p", nil, "ports to keep (source or destination)")
	decodeCmd.Flags().StringSliceVar(&decodeIPs, "ips", nil, "addresses carried with the filter (not matched)")
	decodeCmd.Flags().StringVar(&decodeBPFFile, "bpf-file", "", "BPF program in tcpdump -ddd text form")
	decodeCmd.Flags().StringVarP(&decodeFormat, "format", "o", "", "output format: text, json, yaml")
	decodeCmd.Flags().BoolVar(&decodeCount, "count", false, "print only the number of records")
	decodeCmd.Flags().BoolVar(&decodeTiming, "timing", false, "report elapsed time on stderr")
	decodeCmd.Flags().StringVar(&decodeMetricsFile, "metrics-file", "", "write run metrics to this textfile")
}

// decodeOptions is the resolved input of one decode run.
type decodeOptions struct {
	Path        string
	Filter      config.FilterConfig
	Format      string
	Count       bool
	Timing      bool
	MetricsFile string
}

func decodeOptionsFrom(cmd *cobra.Command, args []string, c *config.Config) (decodeOptions, error) {
	if c == nil {
		c = config.Default()
	}
	opts := decodeOptions{
		Path:        c.Input.File,
		Filter:      c.Filter,
		Format:      c.Output.Format,
		Count:       c.Output.Count,
		Timing:      decodeTiming,
		MetricsFile: decodeMetricsFile,
	}
	if len(args) == 1 {
		opts.Path = args[0]
	}

	flags := cmd.Flags()
	if flags.Changed("mode") {
		opts.Filter.Mode = decodeMode
	}
	if flags.Changed("ports") {
		ports, err := toPorts(decodePorts)
		if err != nil {
			return opts, err
		}
		opts.Filter.Ports = ports
	}
	if flags.Changed("ips") {
		opts.Filter.IPs = decodeIPs
	}
	if flags.Changed("bpf-file") {
		opts.Filter.BPFFile = decodeBPFFile
	}
	if flags.Changed("format") {
		opts.Format = decodeFormat
	}
	if flags.Changed("count") {
		opts.Count = decodeCount
	}

	if opts.Path == "" {
		return opts, fmt.Errorf("no capture file given")
	}
	// Revalidate after flag overrides.
	check := *c
	check.Filter, check.Output.Format = opts.Filter, opts.Format
	if err := check.ValidateAndApplyDefaults(); err != nil {
		return opts, err
	}
	opts.Filter = check.Filter
	return opts, nil
}

func toPorts(in []uint) ([]uint16, error) {
	out := make([]uint16, 0, len(in))
	for _, p := range in {
		if p > math.MaxUint16 {
			return nil, fmt.Errorf("port %d out of range", p)
		}
		out = append(out, uint16(p))
	}
	return out, nil
}

// buildAccept maps a filter mode onto the pipeline mode and accept rule.
func buildAccept(r *pipeline.Runner, fc config.FilterConfig) (string, pipeline.AcceptFunc, error) {
	switch fc.Mode {
	case config.FilterModeNone, "":
		return pipeline.ModeNone, nil, nil
	case config.FilterModeNative:
		pf := filter.NewPortFilter(fc.Ports, fc.IPs)
		return pipeline.ModeNative, func(rec core.PacketRecord) (bool, error) {
			return pf.Accepts(rec), nil
		}, nil
	case config.FilterModePredicate:
		pf := filter.NewPortFilter(fc.Ports, fc.IPs)
		return pipeline.ModePredicate, r.PredicateAccept(filter.Native(pf)), nil
	case config.FilterModeBPF:
		prog, err := loadBPF(fc)
		if err != nil {
			return "", nil, err
		}
		return pipeline.ModeBPF, r.PredicateAccept(prog), nil
	default:
		return "", nil, fmt.Errorf("unknown filter mode %q", fc.Mode)
	}
}

func loadBPF(fc config.FilterConfig) (*filter.BPFPredicate, error) {
	var (
		prog   *filter.BPFPredicate
		err    error
		source = "ports"
	)
	if fc.BPFFile == "" {
		prog, err = filter.CompilePorts(fc.Ports)
	} else {
		source = fc.BPFFile
		prog, err = readBPFFile(fc.BPFFile)
	}
	if err != nil {
		return nil, err
	}

	log.GetLogger().WithFields(map[string]interface{}{
		"source":       source,
		"instructions": len(prog.Instructions()),
	}).Debug("bpf program loaded")
	return prog, nil
}

func readBPFFile(path string) (*filter.BPFPredicate, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open bpf file: %w", err)
	}
	defer f.Close()
	return filter.LoadBPF(f)
}

// runDecode holds the decode business logic, separated for tests.
func runDecode(opts decodeOptions, out, errOut io.Writer) error {
	sink, err := console.NewSink(out, opts.Format)
	if err != nil {
		return err
	}

	runner := pipeline.New(pipeline.WithLogger(log.GetLogger()))
	mode, accept, err := buildAccept(runner, opts.Filter)
	if err != nil {
		return err
	}

	res, err := runner.Run(opts.Path, mode, accept)
	if opts.MetricsFile != "" {
		if merr := metrics.WriteTextfile(opts.MetricsFile); merr != nil {
			log.GetLogger().WithError(merr).Warn("metrics not written")
		}
	}
	if err != nil {
		return err
	}

	if opts.Count {
		err = sink.SendCount(len(res.Records))
	} else {
		err = sink.Send(res.Records)
	}
	if err != nil {
		return fmt.Errorf("failed to write records: %w", err)
	}

	if opts.Timing {
		fmt.Fprintf(errOut, "%s: %d records from %d frames in %s\n",
			opts.Path, len(res.Records), res.Stats.Frames, res.Stats.Duration)
	}
	return nil
}
