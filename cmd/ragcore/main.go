// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"log"
	"os"
	"time"

	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "ragcore",
		Usage: "Retrieval-augmented question answering over indexed documents",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML configuration file",
				EnvVars: []string{"RAG_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error); overrides log.level",
			},
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "Path to BadgerDB database directory; overrides store.path",
			},
		},
		Before: setup,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Serve the chat, search and ingestion HTTP API",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "addr",
						Usage: "Listen address; overrides server.addr",
					},
				},
			},
			{
				Name:      "ask",
				Usage:     "Answer one question from the command line",
				ArgsUsage: "QUESTION",
				Action:    askCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "session",
						Usage: "Session id reported in logs",
						Value: "cli",
					},
					&cli.StringSliceFlag{
						Name:    "filter",
						Aliases: []string{"f"},
						Usage:   "Metadata filter as key=value; repeat for more values",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Print the response as JSON",
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Print the pieces retrieved for a search term",
				ArgsUsage: "TERM",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:    "filter",
						Aliases: []string{"f"},
						Usage:   "Metadata filter as key=value; repeat for more values",
					},
				},
			},
			{
				Name:   "ingest",
				Usage:  "Embed and store pieces from a JSON Lines file",
				Action: ingestCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "file",
						Usage:    "JSON Lines file with one piece per line, - for stdin",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "replace",
						Usage: "Delete the stored pieces of every ingested document first",
					},
					&cli.StringSliceFlag{
						Name:    "metadata",
						Aliases: []string{"m"},
						Usage:   "Metadata added to every piece as key=value",
					},
				},
			},
			{
				Name:   "reembed",
				Usage:  "Reembed all stored pieces with the configured embedding model",
				Action: reembedCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "embedding-host",
						Usage: "Embedding service host URL; overrides ai.embedding_host",
					},
					&cli.StringFlag{
						Name:  "embedding-model",
						Usage: "Embedding model name; overrides ai.embedding_model",
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of pieces to process in each batch",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N pieces",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed operations",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				},
			},
		},
	}
}
