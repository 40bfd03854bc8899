package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"syscall"
	"time"

	"github.com/oklog/run"

	"github.com/locness/gpslog/config"
	"github.com/locness/gpslog/data"
	"github.com/locness/gpslog/gps"
	"github.com/locness/gpslog/report"
	"github.com/locness/gpslog/session"
	"github.com/locness/gpslog/sink"
	"github.com/locness/gpslog/store"
)

// goreleaser will replace version with the Git version. You can also
// pass it into the build:
//   go build -ldflags="-X main.version=1.2.3"
var version = "Development"

const defaultConfigFile = "gpslog.yml"

func main() {
	flags := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	flagVersion := flags.Bool("version", false, "Print app version")
	flagConfig := flags.String("config", "", "Configuration file (default: gpslog.yml if present)")
	flagPort := flags.String("port", "", "Serial port (overrides config)")
	flagBaud := flags.Int("baud", 0, "Serial baudrate (overrides config)")
	flagCSV := flags.String("csv", "", "CSV output file (overrides config)")
	flagDB := flags.String("db", "", "SQLite database file (overrides config)")
	flags.Usage = func() {
		fmt.Println("usage: gpslog [OPTION]... COMMAND [OPTION]...")
		fmt.Println("Global options:")
		flags.PrintDefaults()
		fmt.Println()
		fmt.Println("Available commands:")
		fmt.Println("  - log (continuously log GPS fixes, default)")
		fmt.Println("  - single (read one GPS fix and exit)")
		fmt.Println("  - report (show the most recent fixes from the database)")
	}

	flags.Parse(os.Args[1:])

	if *flagVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	cfg, err := loadConfig(*flagConfig)
	if err != nil {
		log.Fatal("Error loading config: ", err)
	}
	applyOverrides(&cfg, *flagPort, *flagBaud, *flagCSV, *flagDB)

	args := flags.Args()
	if len(args) < 1 {
		args = []string{"log"}
	}

	switch args[0] {
	case "log":
		if err := runLog(cfg); err != nil {
			log.Fatal("GPS logger stopped, reason: ", err)
		}
		log.Println("GPS logger stopped")
	case "single":
		runSingle(cfg)
	case "report":
		runReport(cfg, args[1:])
	default:
		log.Fatal("Unknown command; options: log, single, report")
	}
}

func loadConfig(path string) (config.Config, error) {
	if path == "" {
		if _, err := os.Stat(defaultConfigFile); err != nil {
			return config.Default(), nil
		}
		path = defaultConfigFile
	}
	return config.Load(path)
}

func applyOverrides(cfg *config.Config, port string, baud int, csvFile, dbFile string) {
	if port != "" {
		cfg.GPS.Port = port
	}
	if baud > 0 {
		cfg.GPS.Baud = baud
	}
	if csvFile != "" {
		cfg.Files.CSV = csvFile
	}
	if dbFile != "" {
		cfg.Files.DB = dbFile
	}
}

// runLog is the continuous mode: session + signal handler in one run
// group, so SIGINT/SIGTERM stops the session cleanly.
func runLog(cfg config.Config) error {
	closeLog, err := setupLogging(cfg.Logging.File)
	if err != nil {
		return err
	}
	defer closeLog()

	src, err := gps.Open(sourceConfig(cfg))
	if err != nil {
		return fmt.Errorf("opening serial port: %w", err)
	}

	csvSink, err := sink.NewCSV(cfg.Files.CSV)
	if err != nil {
		src.Close()
		return fmt.Errorf("opening csv sink: %w", err)
	}

	db, err := store.Open(cfg.Files.DB, cfg.Database.Table)
	if err != nil {
		src.Close()
		csvSink.Close()
		return fmt.Errorf("opening store sink: %w", err)
	}

	sess := session.New(session.Config{
		Source:        src,
		Sinks:         []sink.Sink{csvSink, db},
		MaxReconnects: cfg.GPS.Reconnects,
	})

	log.Printf("GPS: logging from %v at %v baud", cfg.GPS.Port, cfg.GPS.Baud)

	var g run.Group
	g.Add(sess.Start, sess.Stop)
	g.Add(run.SignalHandler(context.Background(),
		syscall.SIGINT, syscall.SIGTERM))

	err = g.Run()
	var sig run.SignalError
	if errors.As(err, &sig) {
		log.Println("GPS: received signal: ", sig.Signal)
		return nil
	}
	return err
}

const (
	singleConnectRetries = 3
	singleReadAttempts   = 100
)

func runSingle(cfg config.Config) {
	fmt.Printf("Reading single GPS fix from %v...\n", cfg.GPS.Port)
	fix, err := readSingle(cfg)
	if err != nil {
		fmt.Println("Failed to read GPS data: ", err)
		os.Exit(1)
	}
	fmt.Println("GPS Data:")
	fmt.Println("  PC Time:   ", fix.CapturedAt.Format("2006-01-02T15:04:05.000000"))
	fmt.Println("  NMEA Time: ", fix.NMEATime)
	fmt.Printf("  Latitude:  %.6f\n", fix.Latitude)
	fmt.Printf("  Longitude: %.6f\n", fix.Longitude)
}

// readSingle retries the whole connection a few times; within each
// connection the session retries sentence reads up to the attempt
// budget.
func readSingle(cfg config.Config) (data.Fix, error) {
	var lastErr error
	for retry := 0; retry < singleConnectRetries; retry++ {
		if retry > 0 {
			time.Sleep(time.Second)
		}
		src, err := gps.Open(sourceConfig(cfg))
		if err != nil {
			lastErr = err
			log.Printf("GPS: connection error (attempt %v/%v): %v",
				retry+1, singleConnectRetries, err)
			continue
		}

		sess := session.New(session.Config{Source: src})
		fix, err := sess.ReadOne(singleReadAttempts)
		src.Close()
		if err != nil {
			lastErr = err
			continue
		}
		return fix, nil
	}
	return data.Fix{}, lastErr
}

func runReport(cfg config.Config, args []string) {
	flags := flag.NewFlagSet("report", flag.ExitOnError)
	flagLimit := flags.Int("limit", 10, "Number of records to display")
	flags.Parse(args)

	db, err := store.Open(cfg.Files.DB, cfg.Database.Table)
	if err != nil {
		log.Fatal("Error opening database: ", err)
	}
	defer db.Close()

	if err := report.Latest(os.Stdout, db, *flagLimit); err != nil {
		log.Fatal("Error querying database: ", err)
	}
}

func sourceConfig(cfg config.Config) gps.SourceConfig {
	return gps.SourceConfig{
		Port:    cfg.GPS.Port,
		Baud:    cfg.GPS.Baud,
		Timeout: cfg.ReadTimeout(),
	}
}

// setupLogging mirrors console output into the configured log file.
func setupLogging(path string) (func(), error) {
	if path == "" {
		return func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log file %v: %w", path, err)
	}
	log.SetOutput(io.MultiWriter(os.Stderr, f))
	return func() {
		log.SetOutput(os.Stderr)
		f.Close()
	}, nil
}
