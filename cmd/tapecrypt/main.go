package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"strings"

	"filippo.io/age"

	"github.com/FoxDenHome/tapecrypt/report"
	"github.com/FoxDenHome/tapecrypt/scsi"
	"github.com/FoxDenHome/tapecrypt/scsi/drive"
	"github.com/FoxDenHome/tapecrypt/scsi/page"
	"github.com/FoxDenHome/tapecrypt/storage/journal"
	"github.com/FoxDenHome/tapecrypt/storage/keyfile"
)

const (
	CMD_STATUS  = "status"
	CMD_SET     = "set"
	CMD_KEYGEN  = "keygen"
	CMD_JOURNAL = "journal"
	CMD_HELP    = "help"
)

var errUsage = errors.New("invalid usage")

type options struct {
	flags *flag.FlagSet

	configPath     string
	device         string
	cryptMode      string
	algorithmIndex uint
	keyFile        string
	identityFile   string
	recipient      string
	keyDesc        string
	ckod           bool
	protect        bool
	unprotect      bool
	ceem           uint
	journal        string
	detail         bool
}

func newOptions(output io.Writer) *options {
	opts := &options{flags: flag.NewFlagSet("tapecrypt", flag.ContinueOnError)}
	fs := opts.flags
	fs.SetOutput(output)
	fs.Usage = func() {
		_, _ = fmt.Fprintf(fs.Output(), "Usage: tapecrypt [status|set|keygen|journal|help] [flags]\n")
		fs.PrintDefaults()
	}

	fs.StringVar(&opts.configPath, "config", "", "Path to a JSON or YAML config file")
	fs.StringVar(&opts.device, "device", "/dev/nst0", "Path to the SCSI tape drive device")
	fs.StringVar(&opts.cryptMode, "mode", "on", "Encryption mode for set (off, on, mixed, rawread)")
	fs.UintVar(&opts.algorithmIndex, "algorithm-index", 1, "Drive encryption algorithm index")
	fs.StringVar(&opts.keyFile, "key-file", "", "Path to the hex key file")
	fs.StringVar(&opts.identityFile, "identity-file", "", "Path to the age identity file for encrypted key files")
	fs.StringVar(&opts.recipient, "recipient", "", "age recipient to encrypt new key files to")
	fs.StringVar(&opts.keyDesc, "key-desc", "", "Key descriptor sent with the key, defaults to the key file description")
	fs.BoolVar(&opts.ckod, "ckod", false, "Clear key on demount")
	fs.BoolVar(&opts.protect, "protect", false, "Prevent raw reads of encrypted blocks")
	fs.BoolVar(&opts.unprotect, "unprotect", false, "Allow raw reads of encrypted blocks")
	fs.UintVar(&opts.ceem, "ceem", uint(page.DEFAULT_CEEM), "Check external encryption mode (0-3)")
	fs.StringVar(&opts.journal, "journal", "", "Path to the DuckDB journal, empty to disable")
	fs.BoolVar(&opts.detail, "detail", false, "Also print drive inquiry data in status")
	return opts
}

// parseArgs splits the subcommand off args and parses the flags after it.
// Without a subcommand, status is run.
func parseArgs(output io.Writer, args []string) (string, *options, error) {
	opts := newOptions(output)

	cmd := CMD_STATUS
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		cmd = strings.ToLower(args[0])
		args = args[1:]
	}

	switch cmd {
	case CMD_STATUS, CMD_SET, CMD_KEYGEN, CMD_JOURNAL, CMD_HELP:
	default:
		return "", nil, fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}

	err := opts.flags.Parse(args)
	if err != nil {
		return "", nil, err
	}
	if opts.flags.NArg() > 0 {
		return "", nil, fmt.Errorf("%w: unexpected argument %q", errUsage, opts.flags.Arg(0))
	}

	if opts.protect && opts.unprotect {
		return "", nil, fmt.Errorf("%w: -protect and -unprotect are mutually exclusive", errUsage)
	}
	if opts.algorithmIndex > math.MaxUint8 {
		return "", nil, fmt.Errorf("%w: algorithm index %d out of range", errUsage, opts.algorithmIndex)
	}
	if opts.ceem > 0b11 {
		return "", nil, fmt.Errorf("%w: CEEM %d out of range", errUsage, opts.ceem)
	}
	if _, err = page.ParseCryptMode(opts.cryptMode); err != nil {
		return "", nil, fmt.Errorf("%w: %w", errUsage, err)
	}

	return cmd, opts, nil
}

// resolveConfig loads the config file if one was given. Flags set on the
// command line override it; without a config file every flag default applies.
func resolveConfig(opts *options) (Config, error) {
	config := defaultConfig()
	visit := opts.flags.VisitAll
	if opts.configPath != "" {
		var err error
		config, err = loadConfig(opts.configPath)
		if err != nil {
			return Config{}, err
		}
		visit = opts.flags.Visit
	}

	visit(func(f *flag.Flag) {
		switch f.Name {
		case "device":
			config.Device = opts.device
		case "algorithm-index":
			config.AlgorithmIndex = uint8(opts.algorithmIndex)
		case "key-file":
			config.KeyFile = opts.keyFile
		case "identity-file":
			config.IdentityFile = opts.identityFile
		case "recipient":
			config.Recipient = opts.recipient
		case "ckod":
			config.CKOD = opts.ckod
		case "protect":
			if opts.protect {
				config.RDMC = "protect"
			}
		case "unprotect":
			if opts.unprotect {
				config.RDMC = "unprotect"
			}
		case "ceem":
			config.CEEM = uint8(opts.ceem)
		case "journal":
			config.Journal = opts.journal
		}
	})
	return config, nil
}

func main() {
	cmd, opts, err := parseArgs(os.Stderr, os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		log.Printf("%v", err)
		if errors.Is(err, errUsage) {
			newOptions(os.Stderr).flags.Usage()
		}
		os.Exit(2)
	}

	config, err := resolveConfig(opts)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	switch cmd {
	case CMD_STATUS:
		err = withDrive(config, opts, printStatus)
	case CMD_SET:
		err = withDrive(config, opts, setEncryption)
	case CMD_KEYGEN:
		err = generateKey(config, opts)
	case CMD_JOURNAL:
		err = printJournal(config)
	case CMD_HELP:
		opts.flags.Usage()
	}

	if err != nil {
		log.Fatalf("%s failed: %v", cmd, err)
	}
}

func openJournal(config Config) (*journal.Journal, error) {
	if config.Journal == "" {
		return nil, nil
	}
	return journal.Open(config.Journal)
}

func withDrive(config Config, opts *options, fn func(Config, *options, *drive.TapeDrive, *journal.Journal) error) error {
	tapeDrive, err := drive.NewTapeDrive(config.Device)
	if err != nil {
		return err
	}

	j, err := openJournal(config)
	if err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}
	if j != nil {
		defer func() {
			_ = j.Close()
		}()
	}

	return fn(config, opts, tapeDrive, j)
}

func keyDescription(kads []page.KAD) string {
	for _, kad := range kads {
		if kad.Type == page.KAD_TYPE_UKAD || kad.Type == page.KAD_TYPE_AKAD {
			return string(kad.Descriptor)
		}
	}
	return ""
}

func printStatus(config Config, opts *options, tapeDrive *drive.TapeDrive, j *journal.Journal) error {
	if opts.detail {
		inq, err := tapeDrive.Inquiry()
		if err != nil {
			return err
		}
		if !inq.IsTape() {
			log.Printf("Warning: %s reports peripheral device type %#02x, not a tape drive", tapeDrive.DevicePath, inq.PeripheralDeviceType)
		}
		if err = report.Inquiry(os.Stdout, inq); err != nil {
			return err
		}
	}

	des, err := tapeDrive.EncryptionStatus()
	if err != nil {
		return err
	}
	if err = report.DeviceStatus(os.Stdout, des); err != nil {
		return err
	}

	if j != nil {
		mode := "unknown"
		if cryptMode, ok := des.CryptMode(); ok {
			mode = cryptMode.String()
		}
		err = j.Record(context.Background(), &journal.Event{
			Device:         tapeDrive.DevicePath,
			Action:         journal.ACTION_STATUS,
			Mode:           mode,
			AlgorithmIndex: des.AlgorithmIndex,
			KeyInstance:    des.KeyInstance,
			KeyDescription: keyDescription(des.KADs),
		})
		if err != nil {
			log.Printf("Failed to record status in journal: %v", err)
		}
	}

	nbes, err := tapeDrive.VolumeStatus()
	switch {
	case errors.Is(err, scsi.ErrNoMedium):
		log.Printf("No tape loaded in %s", tapeDrive.DevicePath)
		return nil
	case errors.Is(err, scsi.ErrNotSupported):
		log.Printf("Drive %s does not report next block encryption status", tapeDrive.DevicePath)
		return nil
	case err != nil:
		return err
	}
	return report.VolumeStatus(os.Stdout, nbes)
}

func loadIdentities(config Config) ([]age.Identity, error) {
	if config.IdentityFile == "" {
		return nil, nil
	}
	return keyfile.LoadIdentities(config.IdentityFile)
}

func setEncryption(config Config, opts *options, tapeDrive *drive.TapeDrive, j *journal.Journal) error {
	mode, err := page.ParseCryptMode(opts.cryptMode)
	if err != nil {
		return err
	}
	rdmc, err := parseRDMC(config.RDMC)
	if err != nil {
		return err
	}

	encOpts := &page.EncryptOptions{
		CryptMode:      mode,
		AlgorithmIndex: config.AlgorithmIndex,
		CKOD:           config.CKOD,
		RDMC:           rdmc,
		CEEM:           config.CEEM,
	}

	if mode.NeedsKey() {
		if config.KeyFile == "" {
			return fmt.Errorf("encryption mode %v needs a key file", mode)
		}

		identities, err := loadIdentities(config)
		if err != nil {
			return fmt.Errorf("failed to load identities: %w", err)
		}

		kf, err := keyfile.Load(config.KeyFile, identities...)
		if err != nil {
			return err
		}
		defer clear(kf.Key)

		desc := opts.keyDesc
		if desc == "" {
			desc = kf.Description
		}
		encOpts.Key = kf.Key
		encOpts.KeyName = []byte(desc)
	}

	err = tapeDrive.SetEncryption(encOpts)
	if err != nil {
		return err
	}
	log.Printf("Encryption set to %v on %s", mode, tapeDrive.DevicePath)

	if j != nil {
		err = j.Record(context.Background(), &journal.Event{
			Device:         tapeDrive.DevicePath,
			Action:         journal.ACTION_SET,
			Mode:           mode.String(),
			AlgorithmIndex: encOpts.AlgorithmIndex,
			KeyDescription: string(encOpts.KeyName),
		})
		if err != nil {
			log.Printf("Failed to record change in journal: %v", err)
		}
	}

	des, err := tapeDrive.EncryptionStatus()
	if err != nil {
		return err
	}
	return report.DeviceStatus(os.Stdout, des)
}

func generateKey(config Config, opts *options) error {
	if config.KeyFile == "" {
		return errors.New("keygen needs --key-file")
	}

	var recipients []age.Recipient
	if config.Recipient != "" {
		var err error
		recipients, err = keyfile.ParseRecipients(config.Recipient)
		if err != nil {
			return err
		}
	}

	key, err := keyfile.Generate()
	if err != nil {
		return err
	}
	defer clear(key)

	err = keyfile.Save(config.KeyFile, &keyfile.KeyFile{Key: key, Description: opts.keyDesc}, recipients...)
	if err != nil {
		return err
	}

	log.Printf("Wrote new %d-bit key to %s", len(key)*8, config.KeyFile)
	return nil
}

func printJournal(config Config) error {
	if config.Journal == "" {
		return errors.New("journal needs --journal")
	}

	j, err := journal.Open(config.Journal)
	if err != nil {
		return err
	}
	defer func() {
		_ = j.Close()
	}()

	events, err := j.List(context.Background(), config.Device)
	if err != nil {
		return err
	}

	for _, e := range events {
		fmt.Printf("%-25s%-8s%-9s%-5d%-12d%s\n",
			e.Time.Local().Format("2006-01-02 15:04:05"), e.Action, e.Mode, e.AlgorithmIndex, e.KeyInstance, e.KeyDescription)
	}
	return nil
}
