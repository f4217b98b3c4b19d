// Command render merges a value file into a catalog template and writes the
// resulting HTML, without a server or a database.
//
//	render -t devis -f devis.yaml -o devis.html --print
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/docuforge/docuforge/internal/doctemplate"
	"github.com/docuforge/docuforge/internal/document"
	"github.com/docuforge/docuforge/internal/form"
	"github.com/docuforge/docuforge/internal/render"
	"github.com/docuforge/docuforge/pkg/logger"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

func main() {
	logger.Init(os.Getenv("LOG_LEVEL"))
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		var verrs form.ValidationErrors
		if errors.As(err, &verrs) {
			keys := make([]string, 0, len(verrs))
			for k := range verrs {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(os.Stderr, "%s: %s\n", k, verrs[k])
			}
		}
		fmt.Fprintln(os.Stderr, "render:", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	fs := pflag.NewFlagSet("render", pflag.ContinueOnError)
	tplID := fs.StringP("template", "t", "", "template id")
	valuesPath := fs.StringP("values", "f", "-", "JSON or YAML value file, - for stdin")
	outPath := fs.StringP("out", "o", "", "output file, stdout when empty")
	catalogPath := fs.String("catalog", "", "YAML catalog to use instead of the built-in one")
	printPage := fs.Bool("print", false, "wrap the result in a print-ready page")
	rawHTML := fs.Bool("raw", false, "insert values without HTML escaping")
	title := fs.String("title", "", "page title used with --print")
	list := fs.BoolP("list", "l", false, "list the catalog templates and exit")
	if err := fs.Parse(args); err != nil {
		return err
	}

	specs, err := loadCatalog(*catalogPath)
	if err != nil {
		return err
	}
	if *list {
		for _, s := range specs {
			fmt.Fprintf(stdout, "%-20s %-20s %s\n", s.ID, s.Type, s.Name)
		}
		return nil
	}
	if *tplID == "" {
		return errors.New("--template is required")
	}
	var spec *doctemplate.Spec
	for i := range specs {
		if specs[i].ID == *tplID {
			spec = &specs[i]
		}
	}
	if spec == nil {
		return fmt.Errorf("template %q: %w", *tplID, doctemplate.ErrNotFound)
	}

	raw, err := readValues(*valuesPath, stdin)
	if err != nil {
		return err
	}
	values := spec.Values(raw)
	if err := form.Validate(spec.Fields, values).Err(); err != nil {
		return err
	}
	html, err := spec.Render(render.New(render.WithEscape(!*rawHTML)), values)
	if err != nil {
		return err
	}
	if *printPage {
		t := *title
		if t == "" {
			t = spec.Name + " - " + time.Now().Format("02/01/2006")
		}
		html = document.PrintPage(t, html)
	}

	if *outPath == "" {
		_, err = io.WriteString(stdout, html)
		return err
	}
	return os.WriteFile(*outPath, []byte(html), 0o644)
}

func loadCatalog(path string) ([]doctemplate.Spec, error) {
	if path == "" {
		return doctemplate.Builtin()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return doctemplate.ParseCatalog(data)
}

// readValues decodes a flat object of field values. YAML is a superset of
// JSON so one decoder serves both.
func readValues(path string, stdin io.Reader) (map[string]string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(filepath.Clean(path))
	}
	if err != nil {
		return nil, fmt.Errorf("read values: %w", err)
	}
	decoded := map[string]interface{}{}
	if err := yaml.Unmarshal(data, &decoded); err != nil {
		return nil, fmt.Errorf("parse values: %w", err)
	}
	for k, v := range decoded {
		if t, ok := v.(time.Time); ok {
			decoded[k] = t.Format("2006-01-02")
		}
	}
	return form.StringifyAll(decoded), nil
}
