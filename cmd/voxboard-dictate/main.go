// Command voxboard-dictate replays a WAV file through a dictation session
// and prints the text that would be inserted.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kbukum/voxboard/bootstrap"
	"github.com/kbukum/voxboard/config"
	"github.com/kbukum/voxboard/version"
)

const serviceName = "voxboard-dictate"

func main() {
	var (
		configFile  = flag.String("config", "", "config file (default: cmd/voxboard-dictate/config.yml)")
		envFile     = flag.String("env", "", ".env file with secrets such as the API key")
		variant     = flag.String("variant", "", "cloud or on_device")
		language    = flag.String("language", "", "BCP-47 language tag or auto")
		template    = flag.String("template", "", "prompt template")
		mode        = flag.String("mode", "", "mode title")
		raw         = flag.Bool("raw", false, "skip formatting")
		showVersion = flag.Bool("version", false, "print version and exit")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] recording.wav\n", serviceName)
		flag.PrintDefaults()
	}
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Get().Long())
		return
	}
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	var cfg Config
	if err := config.LoadConfig(serviceName, &cfg, loaderOptions(*configFile, *envFile)...); err != nil {
		fatal(err)
	}
	if *variant != "" {
		cfg.Session.Variant = *variant
	}
	if *language != "" {
		cfg.Session.Language = *language
	}
	if *template != "" {
		cfg.Session.Template = *template
	}
	if *mode != "" {
		cfg.Session.Mode = *mode
	}
	if *raw {
		cfg.Session.DisableFormatting = true
	}

	app, err := bootstrap.NewApp(&cfg)
	if err != nil {
		fatal(err)
	}
	d := &dictation{cfg: &cfg, log: app.Logger, out: os.Stdout, status: os.Stderr}
	if err := app.RunTask(context.Background(), func(ctx context.Context) error {
		return d.run(ctx, flag.Arg(0))
	}); err != nil {
		fatal(err)
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", serviceName, err)
	os.Exit(1)
}

// loaderOptions adds the user's config directory (e.g. ~/.config/voxboard)
// to the search so the CLI works outside the repository.
func loaderOptions(configFile, envFile string) []config.LoaderOption {
	var opts []config.LoaderOption
	if configFile != "" {
		opts = append(opts, config.WithConfigFile(configFile))
	}
	if envFile != "" {
		opts = append(opts, config.WithEnvFile(envFile))
	}
	if dir, err := os.UserConfigDir(); err == nil {
		opts = append(opts, config.WithSearchPaths(filepath.Join(dir, "voxboard")))
	}
	return opts
}
