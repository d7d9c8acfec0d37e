// vidcrypt - encrypt files into lossless video frames and back
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path"

	arg "github.com/alexflint/go-arg"
	"github.com/sirupsen/logrus"

	"github.com/absfs/vidcrypt"
	"github.com/absfs/vidcrypt/video"
)

var version = "<not set>"

type EncryptCmd struct {
	Inputs       []string `arg:"positional,required" help:"files to encrypt"`
	Output       string   `arg:"-o,--output,required" help:"output video; with several inputs each gets <stem>_<output>"`
	Key          string   `arg:"-k,--key" help:"key of at most 32 bytes (default: $VIDCRYPT_KEY or prompt)"`
	Width        int      `arg:"-w,--width" help:"frame width"`
	Height       int      `arg:"-H,--height" help:"frame height"`
	FPS          int      `arg:"-f,--fps" help:"frames per second"`
	Profile      string   `arg:"--profile" help:"pixel profile: rgba or rgb"`
	RemoveSource bool     `arg:"--remove-source" help:"delete each input after it was encoded"`
}

type DecryptCmd struct {
	Input        string `arg:"positional,required" help:"video to decode"`
	Key          string `arg:"-k,--key" help:"key of at most 32 bytes (default: $VIDCRYPT_KEY or prompt)"`
	OutDir       string `arg:"-d,--dir" help:"directory for the recovered file"`
	Profile      string `arg:"--profile" help:"pixel profile: rgba or rgb"`
	RemoveSource bool   `arg:"--remove-source" help:"delete the video after the file was recovered"`
}

type Args struct {
	Encrypt    *EncryptCmd `arg:"subcommand:encrypt" help:"encrypt files into videos"`
	Decrypt    *DecryptCmd `arg:"subcommand:decrypt" help:"recover a file from a video"`
	ConfigFile string      `arg:"-c,--config" help:"path to configuration file"`
	Verbose    bool        `arg:"-v,--verbose" help:"make logging more verbose"`
}

func (Args) Version() string {
	return version
}

func procArgs() (Args, *arg.Parser) {
	var args Args
	args.ConfigFile = "/etc/vidcrypt.yaml"
	p := arg.MustParse(&args)
	if args.Decrypt != nil && args.Decrypt.OutDir == "" {
		args.Decrypt.OutDir = "."
	}
	return args, p
}

func main() {
	err := runMain()
	if err != nil {
		logrus.Fatal(err)
	}
}

func runMain() error {
	args, p := procArgs()

	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if args.Verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	conf, err := ParseConfigFile(args.ConfigFile)
	if err != nil {
		return err
	}

	store, err := vidcrypt.NewStore(osFS{})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	switch {
	case args.Encrypt != nil:
		return runEncrypt(ctx, args.Encrypt, conf, store)
	case args.Decrypt != nil:
		return runDecrypt(ctx, args.Decrypt, conf, store)
	default:
		p.WriteHelp(os.Stdout)
		return nil
	}
}

// applyOverrides copies flags that were set over the configuration
func (c *EncryptCmd) applyOverrides(conf *Config) error {
	if c.Width != 0 {
		conf.Width = c.Width
	}
	if c.Height != 0 {
		conf.Height = c.Height
	}
	if c.FPS != 0 {
		conf.FPS = c.FPS
	}
	if c.Profile != "" {
		conf.Profile = c.Profile
	}
	return conf.Validate()
}

func newChannel(profileName string) (*vidcrypt.Channel, error) {
	profile, err := vidcrypt.ParseProfile(profileName)
	if err != nil {
		return nil, err
	}
	return vidcrypt.NewChannel(vidcrypt.Options{
		Profile: profile,
		Logger:  logrus.StandardLogger(),
	})
}

func runEncrypt(ctx context.Context, cmd *EncryptCmd, conf *Config, store *vidcrypt.Store) error {
	if err := cmd.applyOverrides(conf); err != nil {
		return err
	}
	ch, err := newChannel(conf.Profile)
	if err != nil {
		return err
	}

	keys, wipe, err := keySource(cmd.Key, true)
	if err != nil {
		return err
	}
	defer wipe()

	output := cmd.Output
	if path.Ext(output) == "" {
		output += conf.Extension
	}

	parallel := vidcrypt.DefaultParallelConfig()
	if conf.Workers > 0 {
		parallel.MaxWorkers = conf.Workers
	}

	return vidcrypt.RunBatch(ctx, parallel, len(cmd.Inputs), func(ctx context.Context, i int) error {
		input := cmd.Inputs[i]
		out := vidcrypt.OutputPath(input, output, len(cmd.Inputs))
		if err := encryptFile(ctx, ch, store, keys, conf, input, out); err != nil {
			return fmt.Errorf("%s: %w", input, err)
		}
		if cmd.RemoveSource {
			return store.Remove(input)
		}
		return nil
	})
}

func encryptFile(ctx context.Context, ch *vidcrypt.Channel, store *vidcrypt.Store, keys vidcrypt.KeySource, conf *Config, input, output string) error {
	exists, err := store.Exists(output)
	if err != nil {
		return err
	}
	if exists {
		return vidcrypt.NewValidationError("output", output, "refusing to overwrite", vidcrypt.ErrOutputExists)
	}

	file, err := store.ReadFile(input)
	if err != nil {
		return err
	}

	key, err := keys.SecureKey()
	if err != nil {
		return err
	}
	defer key.Close()

	staged := store.TempPath(output)
	w, err := video.NewWriter(staged, conf.Resolution(), conf.VideoOptions())
	if err != nil {
		return err
	}
	n, err := ch.WriteTo(ctx, w, file, key, conf.Resolution(), conf.FPS)
	if closeErr := w.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		store.Remove(staged)
		return err
	}
	if err := store.Commit(staged, output); err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"input":  input,
		"output": output,
		"frames": n,
	}).Info("Encrypted file")
	return nil
}

func runDecrypt(ctx context.Context, cmd *DecryptCmd, conf *Config, store *vidcrypt.Store) error {
	profile := conf.Profile
	if cmd.Profile != "" {
		profile = cmd.Profile
	}
	ch, err := newChannel(profile)
	if err != nil {
		return err
	}

	keys, wipe, err := keySource(cmd.Key, false)
	if err != nil {
		return err
	}
	defer wipe()

	r, err := video.Open(cmd.Input)
	if err != nil {
		return err
	}
	defer r.Close()

	var rec *vidcrypt.Recovered
	err = func() error {
		key, err := keys.SecureKey()
		if err != nil {
			return err
		}
		defer key.Close()
		rec, err = ch.Read(ctx, r, key)
		return err
	}()
	if err != nil {
		return err
	}

	output := path.Join(cmd.OutDir, rec.Filename)
	if err := store.WriteFile(output, rec.Plaintext, 0600); err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"input":  cmd.Input,
		"output": output,
		"bytes":  len(rec.Plaintext),
	}).Info("Recovered file")

	if cmd.RemoveSource {
		r.Close()
		return store.Remove(cmd.Input)
	}
	return nil
}
