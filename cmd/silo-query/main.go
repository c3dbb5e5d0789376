package main

/*
silo-query is a minimal entry point that exercises the query engine against
a JSON test fixture: it loads a small in-memory table from a fixture
file and evaluates one request against it, one response record per output
line. The HTTP/CLI surface beyond this is out of scope.
*/

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"

	"github.com/genspectrum/silo/config"
	"github.com/genspectrum/silo/loader"
	"github.com/genspectrum/silo/query"
	"github.com/genspectrum/silo/query/qerr"
	"github.com/genspectrum/silo/silo"
)

var (
	fixturePath = flag.String("fixture", "", "Path to a loader.Fixture JSON file")
	requestPath = flag.String("request", "", "Path to a query.Request JSON file; - for stdin")
)

func usage() {
	fmt.Printf("Usage: %s -fixture=<path> -request=<path>\n", os.Args[0])
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	opts := config.RegisterFlags(flag.CommandLine)
	flag.Parse()
	shutdown := silo.Init(opts)
	defer shutdown()

	if *fixturePath == "" || *requestPath == "" {
		log.Fatalf("both -fixture and -request are required")
	}

	ctx := vcontext.Background()
	table, err := loader.Load(ctx, *fixturePath)
	if err != nil {
		log.Fatalf("loading fixture: %v", err)
	}

	req, err := readRequest(*requestPath)
	if err != nil {
		log.Fatalf("reading request: %v", err)
	}

	expr, err := query.ParseExpression(req.FilterExpression)
	if err != nil {
		log.Panicf("%v", err)
	}
	action, opts2, err := query.ParseAction(req.Action)
	if err != nil {
		log.Panicf("%v", err)
	}

	engine := query.NewEngine(table)
	records, err := engine.Execute(ctx, expr, action, opts2)
	if err != nil {
		if qe, ok := err.(*qerr.Error); ok {
			log.Fatalf("%s: %s", qe.Kind, qe.Message)
		}
		log.Fatalf("%v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	for _, r := range records {
		if err := enc.Encode(r); err != nil {
			log.Fatalf("encoding output: %v", err)
		}
	}
	log.Debug.Printf("wrote %d records", len(records))
}

func readRequest(path string) (*query.Request, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}
	var req query.Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, err
	}
	return &req, nil
}
