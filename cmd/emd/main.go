package main

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/docopt/docopt-go"
	"github.com/sirupsen/logrus"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	emd "github.com/t7a/emdtree"
	"github.com/t7a/emdtree/emdio"
	"github.com/t7a/emdtree/ndarray"
	"github.com/t7a/emdtree/payload"
	"github.com/t7a/emdtree/reconcile"
	"github.com/t7a/emdtree/tree"
)

func init() {
	var debug string
	debug = os.Getenv("DEBUG")
	if debug == "1" {
		log.SetLevel(log.DebugLevel)
	}
	logrus.SetReportCaller(true)
	formatter := &logrus.TextFormatter{
		CallerPrettyfier: caller(),
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyFile: "caller",
		},
	}
	formatter.TimestampFormat = "15:04:05.999999999"
	logrus.SetFormatter(formatter)
}

// caller returns string presentation of log caller which is formatted as
// `/path/to/file.go:line_number`. e.g. `/internal/app/api.go:25`
func caller() func(*runtime.Frame) (function string, file string) {
	return func(f *runtime.Frame) (function string, file string) {
		p, _ := os.Getwd()
		return "", fmt.Sprintf("%s:%d", strings.TrimPrefix(f.File, p), f.Line)
	}
}

type Opts struct {
	Create  bool
	Add     bool
	Ls      bool
	Show    bool
	Info    bool
	Meta    bool
	File    string
	Root    string
	Emdpath string
	Name    string
	Values  []string
	Config  string `docopt:"--config"`
}

func main() {
	// see https://github.com/google/go-cmdtest
	os.Exit(run())
}

func run() (rc int) {

	usage := `emd

Usage:
  emd create [--config=<path>] <file> <root>
  emd add [--config=<path>] <file> <emdpath> <name> [<values>...]
  emd ls <file>
  emd show <file> [<emdpath>]
  emd info <file>
  emd meta <file> <emdpath>

Options:
  -h --help          Show this screen.
  --version          Show version.
  --config=<path>    User config file [default: ~/.emd.yaml].
`
	parser := &docopt.Parser{OptionsFirst: false}
	o, err := parser.ParseArgs(usage, os.Args[1:], "0.1")
	if err != nil {
		log.Error(err)
		return 22
	}
	var opts Opts
	err = o.Bind(&opts)
	if err != nil {
		log.Error(err)
		return 22
	}
	log.Debug(opts)

	fs := afero.NewOsFs()
	switch true {
	case opts.Create:
		err = create(fs, opts)
	case opts.Add:
		err = add(fs, opts)
	case opts.Ls:
		err = ls(fs, opts.File)
	case opts.Show:
		err = show(fs, opts.File, opts.Emdpath)
	case opts.Info:
		err = info(fs, opts.File)
	case opts.Meta:
		err = meta(fs, opts.File, opts.Emdpath)
	}
	if err != nil {
		log.Error(err)
		return 42
	}
	return 0
}

func config(fs afero.Fs, path string) (cfg emd.Config, err error) {
	if path == emd.ConfigPath {
		path = ""
	}
	return emd.LoadConfig(fs, path)
}

func create(fs afero.Fs, opts Opts) (err error) {
	cfg, err := config(fs, opts.Config)
	if err != nil {
		return
	}
	root := tree.NewRoot(opts.Root)
	err = emd.Save(fs, opts.File, root, reconcile.Options{Mode: reconcile.Write, Session: cfg.Session()})
	if err != nil {
		return
	}
	fmt.Printf("created %s with root %s\n", opts.File, opts.Root)
	return
}

// add puts a new node under emdpath: an Array of the given values, or
// a plain node when there are none.  A name already under emdpath is
// an error.
func add(fs afero.Fs, opts Opts) (err error) {
	cfg, err := config(fs, opts.Config)
	if err != nil {
		return
	}
	var p tree.Payload
	if len(opts.Values) > 0 {
		vals := make([]float64, len(opts.Values))
		for i, s := range opts.Values {
			vals[i], err = strconv.ParseFloat(s, 64)
			if err != nil {
				return
			}
		}
		p, err = payload.NewArray(ndarray.MustNew(vals))
		if err != nil {
			return
		}
	}
	// the parent must keep its stored path, so read its whole tree
	target, err := emdio.Path{}.New(opts.Emdpath)
	if err != nil {
		return
	}
	root, err := emd.ReadFile(fs, opts.File, emd.NewRegistry(), target.Root, emdio.Subtree)
	if err != nil {
		return
	}
	parent, err := root.Get(target.Tree)
	if err != nil {
		return
	}
	args := map[string]tree.Value{"name": tree.String(opts.Name)}
	child, err := tree.WithProvenance(parent, "add", args, tree.NewNode(opts.Name, p))
	if err != nil {
		return
	}
	err = emd.Save(fs, opts.File, child, reconcile.Options{Mode: reconcile.Append, Session: cfg.Session()})
	if err != nil {
		return
	}
	fmt.Printf("added /%s%s\n", target.Root, child.Path())
	return
}

func ls(fs afero.Fs, path string) (err error) {
	st, err := emd.Stat(fs, path)
	if err != nil {
		return
	}
	fmt.Println(strings.Join(st.Roots, "\n"))
	return
}

func show(fs afero.Fs, path, emdpath string) (err error) {
	n, err := emd.ReadFile(fs, path, emd.NewRegistry(), emdpath, emdio.Subtree)
	if err != nil {
		return
	}
	return n.Show(os.Stdout, false)
}

func info(fs afero.Fs, path string) (err error) {
	st, err := emd.Stat(fs, path)
	if err != nil {
		return
	}
	fmt.Printf("version: %s\n", st.Header.Version())
	fmt.Printf("program: %s\n", st.Header.Program)
	fmt.Printf("user: %s\n", st.Header.User)
	fmt.Printf("roots: %s\n", strings.Join(st.Roots, ", "))
	return
}

func meta(fs afero.Fs, path, emdpath string) (err error) {
	n, err := emd.ReadFile(fs, path, emd.NewRegistry(), emdpath, emdio.SelfOnly)
	if err != nil {
		return
	}
	fmt.Printf("%s\n", n)
	for _, md := range n.MetadataRecords() {
		fmt.Println(md)
	}
	return
}
