package main

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/loom-ui/loom"
	"github.com/loom-ui/loom/internal/errors"
)

func renderCmd() *cobra.Command {
	var (
		dataFile string
		outFile  string
		full     bool
	)

	cmd := &cobra.Command{
		Use:   "render <template>",
		Short: "Render a template to markup",
		Long: `Render a template file through the view pipeline and print the
resulting markup.

The template executes against the data file when one is given, so a
render can be checked without starting a server.

Examples:
  loom render templates/card.html
  loom render templates/card.html --data user.json
  loom render templates/index.html --full --out index.html`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.New("E080").
					WithDetail("render takes exactly one template file argument")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(args[0], dataFile, outFile, full)
		},
	}

	cmd.Flags().StringVarP(&dataFile, "data", "d", "", "JSON file with template data")
	cmd.Flags().StringVarP(&outFile, "out", "o", "", "Write markup to a file instead of stdout")
	cmd.Flags().BoolVar(&full, "full", false, "Print the full document instead of the view markup")

	return cmd
}

func runRender(templateFile, dataFile, outFile string, full bool) error {
	src, err := os.ReadFile(templateFile)
	if err != nil {
		return errors.FromError(err, "E001").
			WithDetail("Template file " + templateFile + " could not be read")
	}

	def := loom.Definition{
		Template: loom.FromString(filepath.Base(templateFile), string(src)),
	}
	if dataFile != "" {
		raw, err := os.ReadFile(dataFile)
		if err != nil {
			return errors.FromError(err, "E005").
				WithDetail("Data file " + dataFile + " could not be read")
		}
		var data any
		if err := json.Unmarshal(raw, &data); err != nil {
			return errors.FromError(err, "E005")
		}
		def.Data = loom.StaticData(data)
	}

	doc := loom.NewDocument()
	v := loom.NewView(doc, def)

	if err := v.AppendTo("body"); err != nil {
		var terr *loom.TemplateError
		if stderrors.As(err, &terr) && terr.Op == "execute" {
			return errors.FromError(err, "E003")
		}
		return errors.FromError(err, "E020")
	}

	markup := v.Root().OuterHTML()
	if full {
		markup = doc.HTML()
	}

	if outFile != "" {
		if err := os.WriteFile(outFile, []byte(markup+"\n"), 0o644); err != nil {
			return errors.FromError(err, "E081")
		}
		success("Rendered %s to %s", templateFile, outFile)
		return nil
	}

	fmt.Println(markup)
	return nil
}
