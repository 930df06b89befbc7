// Command mgmt-inspect prints management entities as JSON.
//
//	mgmt-inspect -config config.yaml -kind api -id a1
//	mgmt-inspect -config config.yaml -kind idp
//	mgmt-inspect -config config.yaml -watch
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/rzpsarthak13/mgmt-repository/pkg/management"
)

type options struct {
	configPath string
	kind       string
	id         string
	visibility string
	watch      bool
}

func parseFlags(args []string) (options, error) {
	var opts options
	fs := flag.NewFlagSet("mgmt-inspect", flag.ContinueOnError)
	fs.StringVar(&opts.configPath, "config", "", "path to a YAML or JSON configuration file")
	fs.StringVar(&opts.kind, "kind", "api", "entity kind: api or idp")
	fs.StringVar(&opts.id, "id", "", "print only the entity with this id")
	fs.StringVar(&opts.visibility, "visibility", "", "print only the APIs with this visibility")
	fs.BoolVar(&opts.watch, "watch", false, "print change events until interrupted")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}

	switch opts.kind {
	case "api", "idp":
	default:
		return opts, fmt.Errorf("unknown kind %q (want api or idp)", opts.kind)
	}
	if opts.visibility != "" && opts.kind != "api" {
		return opts, errors.New("-visibility only applies to -kind api")
	}
	return opts, nil
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		log.Fatalf("[INSPECT] %v", err)
	}

	cfg, err := management.LoadConfig(opts.configPath)
	if err != nil {
		log.Fatalf("[INSPECT] Failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := management.NewClient(ctx, cfg)
	if err != nil {
		log.Fatalf("[INSPECT] Failed to create client: %v", err)
	}
	defer client.Close()

	if opts.watch {
		err = watch(ctx, client, os.Stdout)
	} else {
		err = inspect(ctx, client, opts, os.Stdout)
	}
	if err != nil {
		log.Printf("[INSPECT] ERROR: %v (kind: %s)", err, management.KindOf(err))
		client.Close()
		os.Exit(1)
	}
}

// inspect writes the selected entities to w.
func inspect(ctx context.Context, client *management.Client, opts options, w io.Writer) error {
	var result interface{}

	switch {
	case opts.kind == "api" && opts.id != "":
		api, err := client.Apis().FindByID(ctx, opts.id)
		if err != nil {
			return err
		}
		if api == nil {
			return fmt.Errorf("api %q: %w", opts.id, management.ErrNotFound)
		}
		result = api
	case opts.kind == "idp" && opts.id != "":
		idp, err := client.IdentityProviders().FindByID(ctx, opts.id)
		if err != nil {
			return err
		}
		if idp == nil {
			return fmt.Errorf("identity provider %q: %w", opts.id, management.ErrNotFound)
		}
		result = idp
	case opts.kind == "api" && opts.visibility != "":
		apis, err := client.Apis().FindByVisibility(ctx, management.Visibility(opts.visibility))
		if err != nil {
			return err
		}
		result = apis
	case opts.kind == "api":
		apis, err := client.Apis().FindAll(ctx)
		if err != nil {
			return err
		}
		result = apis
	default:
		idps, err := client.IdentityProviders().FindAll(ctx)
		if err != nil {
			return err
		}
		result = idps
	}
	return writeJSON(w, result)
}

// watch writes every change event to w until ctx is done.
func watch(ctx context.Context, client *management.Client, w io.Writer) error {
	err := client.AddListener(management.ListenerFunc(func(_ context.Context, event *management.ChangeEvent) error {
		return writeJSON(w, event)
	}))
	if err != nil {
		return err
	}
	if err := client.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	return client.Stop()
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
