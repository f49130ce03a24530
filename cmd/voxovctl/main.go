// Command voxovctl is a thin CLI client for the voxov gateway: it speaks
// the same header-driven wire protocol any other client would, caching
// a session and spending plan in a local config file between runs.
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/voxov/voxov/internal/voxovclient"
)

// assumedAccessTTL and assumedRefreshTTL mirror the gateway's default
// token lifetimes (internal/config's VOXOV_ACCESS_TTL/VOXOV_REFRESH_TTL
// defaults); the CLI can't ask the server what they actually are, so it
// refreshes proactively against these and falls back to a full
// re-authentication if the server rejects a stale token anyway.
const (
	assumedAccessTTL  = 15 * time.Minute
	assumedRefreshTTL = 720 * time.Hour
)

func main() {
	app := &cli.App{
		Name:  "voxovctl",
		Usage: "command-line client for the voxov gateway",
		Commands: []*cli.Command{
			{Name: "ping", Usage: "check server connectivity", Action: runPing},
			{Name: "auth", Usage: "authenticate interactively over SMS", Action: runAuth},
			{
				Name:  "cost",
				Usage: "credit balance commands",
				Subcommands: []*cli.Command{
					{Name: "get", Usage: "print credit balance", Action: runCostGet},
					{Name: "pay", Usage: "print the link to buy credit", Action: runCostPay},
					{Name: "checkin", Usage: "claim the daily check-in award", Action: runCostCheckIn},
				},
			},
			{
				Name:  "gene",
				Usage: "gene operations",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "fed", Usage: "federate to this remote instead of local"},
				},
				Subcommands: []*cli.Command{
					{
						Name:      "call",
						Usage:     "call GID with ARG",
						ArgsUsage: "GID [ARG]",
						Action:    runGeneCall,
					},
				},
			},
			{
				Name:  "meme",
				Usage: "content-addressed blob operations",
				Subcommands: []*cli.Command{
					{Name: "meta", Usage: "print meme metadata by HASH", ArgsUsage: "HASH", Action: runMemeMeta},
					{
						Name:      "put",
						Usage:     "upload FILE (or stdin) as a meme, kept for DAYS",
						ArgsUsage: "DAYS [FILE]",
						Action:    runMemePut,
					},
					{
						Name:      "get",
						Usage:     "download meme HASH to FILE (or stdout)",
						ArgsUsage: "HASH [FILE]",
						Flags: []cli.Flag{
							&cli.BoolFlag{Name: "public", Aliases: []string{"p"}, Usage: "meme is public"},
						},
						Action: runMemeGet,
					},
				},
			},
			{
				Name:      "map",
				Usage:     "call the map_1 gene with FILE (or stdin) as the argument",
				ArgsUsage: "[FILE]",
				Action:    runMap,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runPing(cliCtx *cli.Context) error {
	cfg, err := voxovclient.LoadConfig()
	if err != nil {
		return err
	}
	body, err := voxovclient.New(cfg).Ping()
	if err != nil {
		return err
	}
	fmt.Println(body)
	return nil
}

func runAuth(cliCtx *cli.Context) error {
	cfg, err := voxovclient.LoadConfig()
	if err != nil {
		return err
	}
	client := voxovclient.New(cfg)
	if err := ensureFreshSession(client, cfg); err != nil {
		return err
	}

	phone, message, err := client.SmsSendTo(cfg.Session.Access, cfg.Session.Refresh)
	if err != nil {
		return err
	}
	fmt.Printf("Send SMS message %q to %s.\n", message, phone)
	fmt.Println("Press enter after sent.")
	_, _ = bufio.NewReader(os.Stdin).ReadString('\n')

	uid, err := client.SmsSent(cfg.Session.Access, cfg.Session.Refresh, phone, message)
	if err != nil {
		return err
	}
	fmt.Printf("Your user ID is %s\n", uid)
	return nil
}

func runCostGet(cliCtx *cli.Context) error {
	client, cfg, err := authedClient()
	if err != nil {
		return err
	}
	credit, err := client.CostGet(cfg.Session.Access)
	if err != nil {
		return err
	}
	fmt.Println(credit)
	return nil
}

func runCostPay(cliCtx *cli.Context) error {
	client, cfg, err := authedClient()
	if err != nil {
		return err
	}
	uri, err := client.CostPay(cfg.Session.Access)
	if err != nil {
		return err
	}
	fmt.Println(uri)
	return nil
}

func runCostCheckIn(cliCtx *cli.Context) error {
	client, cfg, err := authedClient()
	if err != nil {
		return err
	}
	award, err := client.CostCheckIn(cfg.Session.Access)
	if err != nil {
		return err
	}
	fmt.Println(award)
	return nil
}

func runGeneCall(cliCtx *cli.Context) error {
	gid := cliCtx.Args().Get(0)
	if gid == "" {
		return cli.Exit("gid is required", 1)
	}
	arg := cliCtx.Args().Get(1)

	client, cfg, err := authedClient()
	if err != nil {
		return err
	}
	fed := cliCtx.Parent().String("fed")
	resp, body, err := client.GeneCall(fed, cfg.Session.Access, gid, arg)
	if err != nil {
		return err
	}
	fmt.Println(voxovclient.PrintCost(resp, cfg.Plan))
	fmt.Println(body)
	return nil
}

func runMemeMeta(cliCtx *cli.Context) error {
	hash := cliCtx.Args().Get(0)
	if hash == "" {
		return cli.Exit("hash is required", 1)
	}
	client, cfg, err := authedClient()
	if err != nil {
		return err
	}
	resp, body, err := client.MemeMeta(cfg.Session.Access, hash)
	if err != nil {
		return err
	}
	fmt.Println(voxovclient.PrintCost(resp, cfg.Plan))
	fmt.Println(body)
	return nil
}

func runMemePut(cliCtx *cli.Context) error {
	daysArg := cliCtx.Args().Get(0)
	if daysArg == "" {
		return cli.Exit("days is required", 1)
	}
	var days int64
	if _, err := fmt.Sscanf(daysArg, "%d", &days); err != nil {
		return cli.Exit("days must be a non-negative integer", 1)
	}

	data, err := readFileOrStdin(cliCtx.Args().Get(1))
	if err != nil {
		return err
	}

	client, cfg, err := authedClient()
	if err != nil {
		return err
	}
	resp, hash, err := client.MemePut(cfg.Session.Access, days, data)
	if err != nil {
		return err
	}
	fmt.Println(voxovclient.PrintCost(resp, cfg.Plan))
	fmt.Println(hash)
	return nil
}

func runMemeGet(cliCtx *cli.Context) error {
	hash := cliCtx.Args().Get(0)
	if hash == "" {
		return cli.Exit("hash is required", 1)
	}
	file := cliCtx.Args().Get(1)

	client, cfg, err := authedClient()
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	var f *os.File
	if file != "" {
		f, err = os.Create(file)
		if err != nil {
			return fmt.Errorf("creating %s: %w", file, err)
		}
		defer f.Close()
		w = f
	}

	resp, err := client.MemeGet(cfg.Session.Access, hash, cliCtx.Bool("public"), w)
	if err != nil {
		return err
	}
	if file != "" {
		fmt.Fprintln(os.Stderr, voxovclient.PrintCost(resp, cfg.Plan))
	}
	return nil
}

func runMap(cliCtx *cli.Context) error {
	data, err := readFileOrStdin(cliCtx.Args().Get(0))
	if err != nil {
		return err
	}

	client, cfg, err := authedClient()
	if err != nil {
		return err
	}
	resp, body, err := client.GeneCall("", cfg.Session.Access, "map_1", string(data))
	if err != nil {
		return err
	}
	fmt.Println(voxovclient.PrintCost(resp, cfg.Plan))
	fmt.Println(body)
	return nil
}

func readFileOrStdin(path string) ([]byte, error) {
	if path == "" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

// authedClient loads the config, refreshing or starting a session as
// needed, and returns a client ready to make authenticated requests.
func authedClient() (*voxovclient.Client, *voxovclient.Config, error) {
	cfg, err := voxovclient.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	client := voxovclient.New(cfg)
	if err := ensureFreshSession(client, cfg); err != nil {
		return nil, nil, err
	}
	return client, cfg, nil
}

// ensureFreshSession mints a new session, refreshes the access token, or
// does nothing, depending on how stale cfg's cached session is.
func ensureFreshSession(client *voxovclient.Client, cfg *voxovclient.Config) error {
	now := time.Now()

	if cfg.Session != nil && !cfg.Session.RefreshExpired(assumedRefreshTTL) {
		if cfg.Session.NeedsRefresh(assumedAccessTTL) {
			access, err := client.SessionRefresh(cfg.Session.Refresh)
			if err != nil {
				return err
			}
			cfg.Session.Access = access
			cfg.Session.AccessIssued = now
			return cfg.Save()
		}
		return nil
	}

	if cfg.Session != nil {
		fmt.Fprintln(os.Stderr, "Refresh token expired. Starting a new session for re-authentication.")
	}
	access, refresh, err := client.SessionStart()
	if err != nil {
		return err
	}
	cfg.Session = &voxovclient.Session{
		Access:        access,
		Refresh:       refresh,
		AccessIssued:  now,
		RefreshIssued: now,
	}
	return cfg.Save()
}
