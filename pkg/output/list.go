package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/pterm/pterm"
	"gopkg.in/yaml.v3"

	"github.com/arthur-debert/zreplica/pkg/errors"
	"github.com/arthur-debert/zreplica/pkg/types"
)

// Entry is one row of a snapshot or bookmark listing.
type Entry struct {
	Kind      string `json:"kind" yaml:"kind"`
	Name      string `json:"name" yaml:"name"`
	FQN       string `json:"fqn" yaml:"fqn"`
	GUID      string `json:"guid" yaml:"guid"`
	CreateTXG uint64 `json:"createtxg" yaml:"createtxg"`
}

// NewEntry converts a snapshot or bookmark into a listing row.
func NewEntry(ref types.Ref) Entry {
	kind := "bookmark"
	if ref.IsSnapshot() {
		kind = "snapshot"
	}
	id := ref.Ident()
	return Entry{
		Kind:      kind,
		Name:      ref.Name(),
		FQN:       id.FQN,
		GUID:      id.GUID,
		CreateTXG: id.CreateTXG,
	}
}

// RenderList writes entries in the given format.
func RenderList(w io.Writer, format Format, entries []Entry, st Styles) error {
	if entries == nil {
		entries = []Entry{}
	}

	switch format {
	case FormatText, "":
		for _, e := range entries {
			guid := fmt.Sprintf("%-20s", e.GUID)
			if _, err := fmt.Fprintf(w, "%s %s\n", st.Muted.Render(guid), st.Dataset.Render(e.FQN)); err != nil {
				return errors.Wrap(err, errors.ErrInternal, "failed to write listing")
			}
		}
		return nil

	case FormatTable:
		data := pterm.TableData{{"KIND", "FQN", "GUID", "CREATETXG"}}
		for _, e := range entries {
			data = append(data, []string{e.Kind, e.FQN, e.GUID, strconv.FormatUint(e.CreateTXG, 10)})
		}
		table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
		if err != nil {
			return errors.Wrap(err, errors.ErrInternal, "failed to render table")
		}
		if !st.Color {
			table = pterm.RemoveColorFromString(table)
		}
		_, err = fmt.Fprintln(w, table)
		return err

	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(entries); err != nil {
			return errors.Wrap(err, errors.ErrInternal, "failed to encode JSON")
		}
		return nil

	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(entries); err != nil {
			return errors.Wrap(err, errors.ErrInternal, "failed to encode YAML")
		}
		return enc.Close()

	default:
		return errors.Newf(errors.ErrInvalidInput, "unknown format %q", format)
	}
}
