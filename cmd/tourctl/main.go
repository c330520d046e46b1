package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/neexbeast/tour-packages/internal/client"
	"github.com/neexbeast/tour-packages/internal/tour"
)

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "tourctl:", err)
		os.Exit(1)
	}
}

func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:   "tourctl",
		Usage:  "manage destinations and tour packages through the REST API",
		Writer: out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "api-url",
				Usage:   "base URL of the API",
				Value:   "http://localhost:3000/api",
				EnvVars: []string{"TOURS_API_URL"},
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "per-request timeout",
				Value: 10 * time.Second,
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "log requests to stderr",
			},
		},
		Commands: []*cli.Command{
			destinationsCommand(),
			packagesCommand(),
		},
	}
}

func apiClient(c *cli.Context) *client.Client {
	level := slog.LevelInfo
	if c.Bool("verbose") {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	return client.New(c.String("api-url"),
		client.WithLogger(log),
		client.WithHTTPClient(&http.Client{Timeout: c.Duration("timeout")}),
	)
}

func printJSON(c *cli.Context, v any) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// idArg parses the positional argument at i as a row id.
func idArg(c *cli.Context, i int, what string) (int64, error) {
	raw := c.Args().Get(i)
	if raw == "" {
		return 0, fmt.Errorf("missing %s argument", what)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", what, raw)
	}
	return id, nil
}

func optString(c *cli.Context, name string) *string {
	if !c.IsSet(name) {
		return nil
	}
	v := c.String(name)
	return &v
}

func destinationsCommand() *cli.Command {
	descFlag := func() cli.Flag {
		return &cli.StringFlag{Name: "description", Usage: "category description"}
	}

	return &cli.Command{
		Name:    "destinations",
		Aliases: []string{"dest"},
		Usage:   "destination categories",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "list all categories",
				Action: func(c *cli.Context) error {
					list, err := apiClient(c).Destinations(c.Context)
					if err != nil {
						return err
					}
					return printJSON(c, list)
				},
			},
			{
				Name:      "get",
				Usage:     "show one category",
				ArgsUsage: "ID",
				Action: func(c *cli.Context) error {
					id, err := idArg(c, 0, "destination ID")
					if err != nil {
						return err
					}
					d, err := apiClient(c).Destination(c.Context, id)
					if err != nil {
						return err
					}
					return printJSON(c, d)
				},
			},
			{
				Name:  "create",
				Usage: "create a category",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Usage: "category name", Required: true},
					descFlag(),
				},
				Action: func(c *cli.Context) error {
					d, err := apiClient(c).CreateDestination(c.Context, tour.NewDestination{
						Name:        c.String("name"),
						Description: optString(c, "description"),
					})
					if err != nil {
						return err
					}
					return printJSON(c, d)
				},
			},
			{
				Name:      "update",
				Usage:     "change the given fields of a category",
				ArgsUsage: "ID",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Usage: "category name"},
					descFlag(),
				},
				Action: func(c *cli.Context) error {
					id, err := idArg(c, 0, "destination ID")
					if err != nil {
						return err
					}
					d, err := apiClient(c).UpdateDestination(c.Context, id, tour.DestinationPatch{
						Name:        optString(c, "name"),
						Description: optString(c, "description"),
					})
					if err != nil {
						return err
					}
					return printJSON(c, d)
				},
			},
			{
				Name:      "delete",
				Usage:     "delete a category",
				ArgsUsage: "ID",
				Action: func(c *cli.Context) error {
					id, err := idArg(c, 0, "destination ID")
					if err != nil {
						return err
					}
					if err := apiClient(c).DeleteDestination(c.Context, id); err != nil {
						return err
					}
					_, err = fmt.Fprintf(c.App.Writer, "destination %d deleted\n", id)
					return err
				},
			},
		},
	}
}

func packageFlags(required bool) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "destination", Usage: "place name", Required: required},
		&cli.StringFlag{Name: "start-date", Usage: "first day, YYYY-MM-DD", Required: required},
		&cli.IntFlag{Name: "duration", Usage: "length in days", Required: required},
		&cli.Float64Flag{Name: "price", Usage: "price", Required: required},
		&cli.StringFlag{Name: "transport", Usage: "e.g. plane, bus"},
		&cli.StringFlag{Name: "accommodation", Usage: "e.g. hotel, apartment"},
		&cli.Int64Flag{Name: "type", Usage: "destination category ID", Required: required},
	}
}

func packagePatch(c *cli.Context) (tour.TourPackagePatch, error) {
	patch := tour.TourPackagePatch{
		Destination:   optString(c, "destination"),
		Transport:     optString(c, "transport"),
		Accommodation: optString(c, "accommodation"),
	}
	if c.IsSet("start-date") {
		d, err := tour.ParseDate(c.String("start-date"))
		if err != nil {
			return patch, err
		}
		patch.StartDate = &d
	}
	if c.IsSet("duration") {
		v := c.Int("duration")
		patch.Duration = &v
	}
	if c.IsSet("price") {
		v := c.Float64("price")
		patch.Price = &v
	}
	if c.IsSet("type") {
		v := c.Int64("type")
		patch.DestinationTypeID = &v
	}
	return patch, nil
}

func packagesCommand() *cli.Command {
	return &cli.Command{
		Name:    "packages",
		Aliases: []string{"pkg"},
		Usage:   "tour packages",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "list packages, optionally of one category",
				Flags: []cli.Flag{
					&cli.Int64Flag{Name: "type", Usage: "only packages of this destination category"},
				},
				Action: func(c *cli.Context) error {
					api := apiClient(c)
					var (
						list []*tour.TourPackage
						err  error
					)
					if c.IsSet("type") {
						list, err = api.TourPackagesByDestinationType(c.Context, c.Int64("type"))
					} else {
						list, err = api.TourPackages(c.Context)
					}
					if err != nil {
						return err
					}
					return printJSON(c, list)
				},
			},
			{
				Name:      "get",
				Usage:     "show one package",
				ArgsUsage: "ID",
				Action: func(c *cli.Context) error {
					id, err := idArg(c, 0, "tour package ID")
					if err != nil {
						return err
					}
					p, err := apiClient(c).TourPackage(c.Context, id)
					if err != nil {
						return err
					}
					return printJSON(c, p)
				},
			},
			{
				Name:      "average-price",
				Usage:     "mean package price of a category",
				ArgsUsage: "DESTINATION_TYPE_ID",
				Action: func(c *cli.Context) error {
					id, err := idArg(c, 0, "destination type ID")
					if err != nil {
						return err
					}
					avg, err := apiClient(c).AveragePrice(c.Context, id)
					if err != nil {
						return err
					}
					return printJSON(c, avg)
				},
			},
			{
				Name:  "create",
				Usage: "create a package",
				Flags: packageFlags(true),
				Action: func(c *cli.Context) error {
					start, err := tour.ParseDate(c.String("start-date"))
					if err != nil {
						return err
					}
					p, err := apiClient(c).CreateTourPackage(c.Context, tour.NewTourPackage{
						Destination:       c.String("destination"),
						StartDate:         start,
						Duration:          c.Int("duration"),
						Price:             c.Float64("price"),
						Transport:         optString(c, "transport"),
						Accommodation:     optString(c, "accommodation"),
						DestinationTypeID: c.Int64("type"),
					})
					if err != nil {
						return err
					}
					return printJSON(c, p)
				},
			},
			{
				Name:      "update",
				Usage:     "change the given fields of a package",
				ArgsUsage: "ID",
				Flags:     packageFlags(false),
				Action: func(c *cli.Context) error {
					id, err := idArg(c, 0, "tour package ID")
					if err != nil {
						return err
					}
					patch, err := packagePatch(c)
					if err != nil {
						return err
					}
					p, err := apiClient(c).UpdateTourPackage(c.Context, id, patch)
					if err != nil {
						return err
					}
					return printJSON(c, p)
				},
			},
			{
				Name:      "delete",
				Usage:     "delete a package",
				ArgsUsage: "ID",
				Action: func(c *cli.Context) error {
					id, err := idArg(c, 0, "tour package ID")
					if err != nil {
						return err
					}
					if err := apiClient(c).DeleteTourPackage(c.Context, id); err != nil {
						return err
					}
					_, err = fmt.Fprintf(c.App.Writer, "tour package %d deleted\n", id)
					return err
				},
			},
		},
	}
}
