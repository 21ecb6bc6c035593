// Command ruida is the CLI entry point for the relay, uploader, and offline
// codec tools: relay, upload, rd-to-svg, hex-decode, dummy-controller, and
// replay-pcap. Each subcommand gets its own flag.FlagSet and exit code,
// since this binary exposes several independent operations rather than one
// long-running server.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jnweiger/ruida-laser/internal/config"
	"github.com/jnweiger/ruida-laser/internal/dummyctl"
	"github.com/jnweiger/ruida-laser/internal/relay"
	"github.com/jnweiger/ruida-laser/internal/relay/pcapcapture"
	"github.com/jnweiger/ruida-laser/internal/ruida/decoder"
	"github.com/jnweiger/ruida-laser/internal/ruida/rerr"
	"github.com/jnweiger/ruida-laser/internal/store"
	"github.com/jnweiger/ruida-laser/internal/svgsink"
	"github.com/jnweiger/ruida-laser/internal/uploader"
	"github.com/jnweiger/ruida-laser/internal/version"
)

// Exit codes
const (
	exitOK             = 0
	exitArgOrIOError   = 1
	exitProtocolFailed = 2
	exitParseError     = 3
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		usage()
		return exitArgOrIOError
	}

	sub, rest := args[0], args[1:]
	switch sub {
	case "relay":
		return runRelay(rest)
	case "upload":
		return runUpload(rest)
	case "rd-to-svg":
		return runConvert(rest, true)
	case "hex-decode":
		return runConvert(rest, false)
	case "dummy-controller":
		return runDummyController(rest)
	case "replay-pcap":
		return runReplayPCAP(rest)
	case "version":
		fmt.Printf("ruida %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
		return exitOK
	case "-h", "--help", "help":
		usage()
		return exitOK
	default:
		fmt.Fprintf(os.Stderr, "ruida: unknown subcommand %q\n", sub)
		usage()
		return exitArgOrIOError
	}
}

func usage() {
	fmt.Fprint(os.Stderr, `usage: ruida <subcommand> [flags] [args]

subcommands:
  relay <controller-addr>      run the single-client UDP relay
  upload <controller-addr> <file>
                                upload an .rd job file to a controller
  rd-to-svg <file>              decode an .rd job and render it to SVG
  hex-decode <file>             decode a scrambled job and print its op trace
  dummy-controller <listen-addr>
                                run a diagnostic stand-in controller
  replay-pcap <capture.pcap>    decode UDP payloads from a capture file
                                (requires a -tags=pcap build)
`)
}

func openStore(path string) (*store.Store, error) {
	if path == "" {
		return nil, nil
	}
	return store.Open(path)
}

func runRelay(args []string) int {
	fs := flag.NewFlagSet("relay", flag.ContinueOnError)
	cfg, err := config.ParseRelayConfig(fs, args)
	if err != nil {
		return exitArgOrIOError
	}
	if cfg.ControllerAddr == "" {
		fmt.Fprintln(os.Stderr, "ruida relay: controller address is required")
		return exitArgOrIOError
	}

	db, err := openStore(cfg.DBPath)
	if err != nil {
		log.Printf("relay: opening job archive: %v", err)
		return exitArgOrIOError
	}
	if db != nil {
		defer db.Close()
	}

	rcfg := relay.Config{
		FrontendAddr:   cfg.FrontendAddr,
		BackendAddr:    cfg.BackendAddr,
		ControllerAddr: cfg.ControllerAddr,
	}
	if db != nil {
		rcfg.Store = db
	}

	r, err := relay.New(rcfg)
	if err != nil {
		log.Printf("relay: %v", err)
		return exitArgOrIOError
	}
	defer r.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Printf("relay: frontend=%s backend=%s controller=%s", cfg.FrontendAddr, cfg.BackendAddr, cfg.ControllerAddr)
	if err := r.Run(ctx); err != nil && ctx.Err() == nil {
		log.Printf("relay: %v", err)
		return exitProtocolFailed
	}
	return exitOK
}

func runUpload(args []string) int {
	fs := flag.NewFlagSet("upload", flag.ContinueOnError)
	cfg, err := config.ParseUploadConfig(fs, args)
	if err != nil {
		return exitArgOrIOError
	}
	if cfg.ControllerAddr == "" || cfg.FilePath == "" {
		fmt.Fprintln(os.Stderr, "ruida upload: usage: ruida upload [flags] <controller-addr> <file>")
		return exitArgOrIOError
	}

	data, err := os.ReadFile(cfg.FilePath)
	if err != nil {
		log.Printf("upload: %v", err)
		return exitArgOrIOError
	}

	stream := data
	if cfg.TuningPath != "" {
		// A tuning file has no effect on uploading an already scrambled
		// .rd file; it is only loaded and validated here.
		if _, err := config.LoadCodecTuning(cfg.TuningPath); err != nil {
			log.Printf("upload: %v", err)
			return exitArgOrIOError
		}
	}

	db, err := openStore(cfg.DBPath)
	if err != nil {
		log.Printf("upload: opening job archive: %v", err)
		return exitArgOrIOError
	}
	if db != nil {
		defer db.Close()
	}

	ucfg := uploader.Config{ControllerAddr: cfg.ControllerAddr, SourcePort: cfg.SourcePort}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := uploader.Upload(ctx, ucfg, stream); err != nil {
		log.Printf("upload: %v", err)
		if db != nil {
			n := len(stream)
			db.LogJob(context.Background(), store.JobRecord{Direction: store.DirectionUpload, ByteLength: n, Outcome: store.OutcomeTimeout})
		}
		return exitProtocolFailed
	}
	log.Printf("upload: sent %d bytes to %s", len(stream), cfg.ControllerAddr)
	if db != nil {
		db.LogJob(context.Background(), store.JobRecord{Direction: store.DirectionUpload, ByteLength: len(stream), Outcome: store.OutcomeOK})
	}
	return exitOK
}

func runConvert(args []string, toSVG bool) int {
	name := "hex-decode"
	if toSVG {
		name = "rd-to-svg"
	}
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	cfg, err := config.ParseConvertConfig(fs, args)
	if err != nil {
		return exitArgOrIOError
	}
	if cfg.InputPath == "" {
		fmt.Fprintf(os.Stderr, "ruida %s: an input file is required\n", name)
		return exitArgOrIOError
	}

	data, err := os.ReadFile(cfg.InputPath)
	if err != nil {
		log.Printf("%s: %v", name, err)
		return exitArgOrIOError
	}
	if cfg.WithChecksum && len(data) >= 2 {
		var sum uint16
		for _, b := range data[2:] {
			sum += uint16(b)
		}
		if want := uint16(data[0])<<8 | uint16(data[1]); sum != want {
			log.Printf("%s: %v", name, fmt.Errorf("prefix 0x%04x, payload sums to 0x%04x: %w", want, sum, rerr.ErrChecksumMismatch))
			return exitProtocolFailed
		}
		data = data[2:]
	}

	res, err := decoder.Decode(data, false, decoder.Options{Lenient: cfg.Lenient})
	if err != nil {
		log.Printf("%s: %v", name, err)
		return exitParseError
	}

	var out io.Writer = os.Stdout
	if cfg.OutputPath != "" {
		f, err := os.Create(cfg.OutputPath)
		if err != nil {
			log.Printf("%s: %v", name, err)
			return exitArgOrIOError
		}
		defer f.Close()
		out = f
	}

	if toSVG {
		if err := svgsink.Write(out, res.Doc, svgsink.Options{MarginMM: cfg.MarginMM}); err != nil {
			log.Printf("%s: %v", name, err)
			return exitArgOrIOError
		}
		return exitOK
	}

	for _, op := range res.Trace {
		fmt.Fprintf(out, "%6d  %-28s %x\n", op.Offset, op.Name, op.Args)
	}
	for _, a := range res.Anomalies {
		fmt.Fprintf(out, "# anomaly: %s\n", a)
	}
	return exitOK
}

func runDummyController(args []string) int {
	fs := flag.NewFlagSet("dummy-controller", flag.ContinueOnError)
	lenient := fs.Bool("lenient", false, "skip unknown opcodes instead of logging a decode error")
	if err := fs.Parse(args); err != nil {
		return exitArgOrIOError
	}
	addr := ":50200"
	if fs.NArg() > 0 {
		addr = fs.Arg(0)
	}

	c, err := dummyctl.New(addr)
	if err != nil {
		log.Printf("dummy-controller: %v", err)
		return exitArgOrIOError
	}
	defer c.Close()
	c.Lenient = *lenient

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Printf("dummy-controller: listening on %s", addr)
	if err := c.Run(ctx); err != nil && ctx.Err() == nil {
		log.Printf("dummy-controller: %v", err)
		return exitProtocolFailed
	}
	return exitOK
}

func runReplayPCAP(args []string) int {
	fs := flag.NewFlagSet("replay-pcap", flag.ContinueOnError)
	frontendPort := fs.Int("frontend-port", 50200, "frontend UDP port to extract payloads for")
	backendPort := fs.Int("backend-port", 40200, "backend UDP port to extract payloads for")
	lenient := fs.Bool("lenient", false, "skip unknown opcodes instead of aborting")
	if err := fs.Parse(args); err != nil {
		return exitArgOrIOError
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "ruida replay-pcap: a capture file path is required")
		return exitArgOrIOError
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	n := 0
	err := pcapcapture.ReadFile(ctx, fs.Arg(0), *frontendPort, *backendPort, func(p pcapcapture.Packet) error {
		n++
		res, err := decoder.Decode(p.Payload, false, decoder.Options{Lenient: *lenient})
		if err != nil {
			fmt.Printf("%d  %d->%d  decode error: %v\n", n, p.SrcPort, p.DstPort, err)
			return nil
		}
		fmt.Printf("%d  %d->%d  %d ops, %d layers\n", n, p.SrcPort, p.DstPort, len(res.Trace), len(res.Doc.Layers))
		return nil
	})
	if err != nil {
		log.Printf("replay-pcap: %v", err)
		return exitArgOrIOError
	}
	return exitOK
}
