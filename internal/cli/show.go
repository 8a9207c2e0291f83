package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/runnerr0/memoir/internal/storage"
)

// Execute implements the go-flags Commander interface for ShowCommand.
func (c *ShowCommand) Execute(args []string) error {
	if err := requireUser(c.User); err != nil {
		return err
	}
	if !storage.ValidKind(c.Kind) {
		return fmt.Errorf("--kind must be %q, %q or %q",
			storage.KindTime, storage.KindKeywords, storage.KindSummary)
	}
	return withEnv(c.globals, c.run)
}

func (c *ShowCommand) run(ctx context.Context, e *env) error {
	date, err := e.resolveDate(c.Date)
	if err != nil {
		return err
	}

	found, err := e.store.FindByUserAndDate(ctx, c.User, date, c.Kind)
	if err != nil {
		return err
	}
	if found.IsNone() {
		return fmt.Errorf("no %s analysis stored for %s on %s", c.Kind, c.User, date)
	}
	rec := found.UnwrapOr(storage.DailyRecord{})

	// JSON output (--json global flag)
	if c.globals != nil && c.globals.JSON {
		return c.outputJSON(rec)
	}

	switch c.Format {
	case "raw":
		fmt.Println(string(rec.Payload))
	case "json":
		return c.outputJSON(rec)
	default: // "full"
		c.outputFull(rec)
	}

	return nil
}

func (c *ShowCommand) outputFull(rec storage.DailyRecord) {
	fmt.Printf("Record:    %d\n", rec.ID)
	fmt.Printf("User:      %s\n", rec.UserID)
	fmt.Printf("Date:      %s\n", rec.Date)
	fmt.Printf("Kind:      %s\n", rec.Kind)
	fmt.Printf("Total:     %d\n", rec.Total)
	fmt.Printf("Pages:     %d\n", rec.PageCount)
	fmt.Printf("Updated:   %s\n", rec.UpdatedAt.Format("2006-01-02 15:04:05"))
	fmt.Println()
	fmt.Println("--- Payload ---")

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, rec.Payload, "", "  "); err != nil {
		fmt.Println(string(rec.Payload))
		return
	}
	fmt.Println(pretty.String())
}

func (c *ShowCommand) outputJSON(rec storage.DailyRecord) error {
	payload := json.RawMessage(rec.Payload)
	if !json.Valid(payload) {
		payload = nil
	}

	result := map[string]interface{}{
		"id":         rec.ID,
		"user_id":    rec.UserID,
		"date":       rec.Date,
		"kind":       rec.Kind,
		"total":      rec.Total,
		"page_count": rec.PageCount,
		"created_at": rec.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		"updated_at": rec.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		"payload":    payload,
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
