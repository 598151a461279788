package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/agenthands/infoase/internal/core/chunker"
	"github.com/agenthands/infoase/internal/core/model"
)

// readInput reads a file, or stdin for "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}

func newExtractCmd(a *app) *cobra.Command {
	var (
		text     string
		doImport bool
	)
	cmd := &cobra.Command{
		Use:   "extract [file...]",
		Short: "Extract a graph from text files, stdin (-) or --text",
		RunE: func(cmd *cobra.Command, args []string) error {
			var docs []chunker.Document
			if text != "" {
				docs = append(docs, chunker.Document{Text: text})
			}
			for _, path := range args {
				data, err := readInput(cmd, path)
				if err != nil {
					return fmt.Errorf("failed to read %s: %w", path, err)
				}
				docs = append(docs, chunker.Document{Text: string(data), Metadata: map[string]interface{}{"source": path}})
			}
			if len(docs) == 0 {
				return errors.New("nothing to extract: pass files or --text")
			}

			svc, err := a.service(cmd.Context())
			if err != nil {
				return err
			}
			if doImport {
				res, err := svc.ExtractAndImport(cmd.Context(), a.instance, docs)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), res)
			}
			res, err := svc.ExtractDocuments(cmd.Context(), docs)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVarP(&text, "text", "t", "", "text to extract from")
	cmd.Flags().BoolVar(&doImport, "import", false, "import the result into the instance")
	return cmd
}

// importFile accepts the output of extract (fragments) or of export (a
// graph).
type importFile struct {
	Fragments     []model.Fragment     `json:"fragments"`
	Nodes         []model.Node         `json:"nodes"`
	Relationships []model.Relationship `json:"relationships"`
}

func (f importFile) items() []model.Fragment {
	frags := f.Fragments
	if len(f.Nodes) > 0 || len(f.Relationships) > 0 {
		frags = append(frags, model.Fragment{Nodes: f.Nodes, Relationships: f.Relationships})
	}
	for _, fr := range frags {
		model.Graph{Nodes: fr.Nodes, Relationships: fr.Relationships}.NormalizeNumbers()
	}
	return frags
}

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file|->",
		Short: "Import an extraction result or an exported graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}
			var in importFile
			dec := json.NewDecoder(bytes.NewReader(data))
			dec.UseNumber()
			if err := dec.Decode(&in); err != nil {
				return fmt.Errorf("failed to decode %s: %w", args[0], err)
			}
			fragments := in.items()
			if len(fragments) == 0 {
				return fmt.Errorf("%s holds no fragments or graph", args[0])
			}

			svc, err := a.service(cmd.Context())
			if err != nil {
				return err
			}
			res, err := svc.Import(cmd.Context(), a.instance, fragments)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), res)
		},
	}
}

func newExportCmd(a *app) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the instance's graph as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.service(cmd.Context())
			if err != nil {
				return err
			}
			g, err := svc.Export(cmd.Context(), a.instance)
			if err != nil {
				return err
			}
			if out == "" {
				return writeJSON(cmd.OutOrStdout(), g)
			}
			var buf bytes.Buffer
			if err := writeJSON(&buf, g); err != nil {
				return err
			}
			return os.WriteFile(out, buf.Bytes(), 0o644)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "write to this file instead of stdout")
	return cmd
}

func newCleanupCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete every node and relationship in the instance",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return errors.New("refusing to empty the instance without --yes")
			}
			svc, err := a.service(cmd.Context())
			if err != nil {
				return err
			}
			if err := svc.Cleanup(cmd.Context(), a.instance); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "instance emptied")
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deletion")
	return cmd
}

func newStatusCmd(a *app) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check connectivity and size of graph instances",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.service(cmd.Context())
			if err != nil {
				return err
			}
			names := []string{a.instance}
			if all {
				names = svc.Instances()
			}
			var failed error
			for _, name := range names {
				st, err := svc.Status(cmd.Context(), name)
				if err != nil {
					label := st.Instance
					if label == "" {
						label = name
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s: unavailable: %v\n", label, err)
					failed = errors.Join(failed, err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: ok, %d nodes, %d relationships\n",
					st.Instance, st.Stats.Nodes, st.Stats.Relationships)
			}
			return failed
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "check every configured instance")
	return cmd
}
