package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/tidwall/pretty"
	"github.com/toon-format/toon-go"

	"github.com/kjk/kvcli/log"
	"github.com/kjk/kvcli/store"
)

type renderFunc func(w io.Writer, snap store.Snapshot) error

var renderers = map[string]renderFunc{
	"text": renderText,
	"json": renderJSON,
	"toon": renderToon,
}

func renderFormats() string {
	var names []string
	for name := range renderers {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

func renderText(w io.Writer, snap store.Snapshot) error {
	var sb strings.Builder
	sb.WriteString("Key-Value Store:\n")
	for _, k := range snap.Keys() {
		fmt.Fprintf(&sb, "  %s: %s\n", k, snap.Scalars[k])
	}
	sb.WriteString("\nList Store:\n")
	for _, name := range snap.ListNames() {
		fmt.Fprintf(&sb, "  %s: [%s]\n", name, strings.Join(snap.Lists[name], ", "))
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

func renderJSON(w io.Writer, snap store.Snapshot) error {
	d, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	_, err = w.Write(pretty.Pretty(d))
	return err
}

func renderToon(w io.Writer, snap store.Snapshot) error {
	m := map[string]any{
		"kv_store":   snap.Scalars,
		"list_store": snap.Lists,
	}
	d, err := toon.Marshal(m)
	if err != nil {
		return err
	}
	if len(d) > 0 && d[len(d)-1] != '\n' {
		d = append(d, '\n')
	}
	_, err = w.Write(d)
	return err
}

// renderEvent prints a "<time> <name>" line followed by the event's
// key/value pairs, indented
func renderEvent(w io.Writer, e *log.EventRecord) error {
	if _, err := fmt.Fprintf(w, "%s %s\n", e.Time.Format(time.RFC3339), e.Name); err != nil {
		return err
	}
	if e.Payload == "" {
		return nil
	}
	for _, line := range strings.Split(e.Payload, "\n") {
		if _, err := fmt.Fprintf(w, "  %s\n", line); err != nil {
			return err
		}
	}
	return nil
}
