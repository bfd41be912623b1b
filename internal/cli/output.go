package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/reckon-io/reckon/internal/entity"
)

// transactionView is the JSON shape of a transaction in command output.
type transactionView struct {
	ID            int64             `json:"id"`
	UUID          string            `json:"uuid"`
	Type          string            `json:"type"`
	Target        string            `json:"target"`
	Operation     string            `json:"operation,omitempty"`
	Owner         string            `json:"owner"`
	Created       string            `json:"created"`
	Executed      string            `json:"executed,omitempty"`
	Executor      string            `json:"executor,omitempty"`
	ResultCode    int               `json:"result_code"`
	Description   string            `json:"description"`
	Details       []string          `json:"details,omitempty"`
	ResultMessage string            `json:"result_message,omitempty"`
	Fields        map[string]string `json:"fields,omitempty"`
	Properties    map[string]string `json:"properties,omitempty"`
}

// viewOf composes the output view of a transaction. Result message is
// only present for executed transactions.
func viewOf(tx *entity.Transaction) (*transactionView, error) {
	desc, err := tx.Description(false)
	if err != nil {
		return nil, err
	}
	details, err := tx.Details(false)
	if err != nil {
		return nil, err
	}

	v := &transactionView{
		ID:          tx.ID,
		UUID:        tx.UUID,
		Type:        tx.Type,
		Target:      tx.TargetType + "/" + tx.TargetID,
		Operation:   tx.Operation,
		Owner:       tx.OwnerID,
		Created:     tx.Created.UTC().Format(time.RFC3339),
		ResultCode:  tx.ResultCode,
		Description: desc,
		Details:     details,
		Fields:      tx.Fields,
		Properties:  tx.Properties,
	}
	if !tx.IsPending() {
		v.Executed = tx.Executed.UTC().Format(time.RFC3339)
		v.Executor = tx.ExecutorID
		msg, err := tx.ResultMessage(false)
		if err != nil {
			return nil, err
		}
		v.ResultMessage = msg
	}
	return v, nil
}

// printTransaction writes one transaction in the selected format.
func printTransaction(w io.Writer, opts *RootOptions, tx *entity.Transaction) error {
	v, err := viewOf(tx)
	if err != nil {
		return err
	}
	if opts.Format == "json" {
		return printJSON(w, v)
	}

	fmt.Fprintf(w, "%s\n", v.Description)
	fmt.Fprintf(w, "  id:       %d\n", v.ID)
	fmt.Fprintf(w, "  type:     %s\n", v.Type)
	fmt.Fprintf(w, "  target:   %s\n", v.Target)
	if v.Operation != "" {
		fmt.Fprintf(w, "  operation: %s\n", v.Operation)
	}
	fmt.Fprintf(w, "  owner:    %s\n", v.Owner)
	fmt.Fprintf(w, "  created:  %s\n", v.Created)
	if v.Executed != "" {
		fmt.Fprintf(w, "  executed: %s by %s\n", v.Executed, v.Executor)
		fmt.Fprintf(w, "  result:   %d (%s)\n", v.ResultCode, v.ResultMessage)
	} else {
		fmt.Fprintf(w, "  status:   pending\n")
	}
	for _, d := range v.Details {
		fmt.Fprintf(w, "  detail:   %s\n", d)
	}
	if opts.Verbose {
		for k, val := range v.Fields {
			fmt.Fprintf(w, "  field:    %s=%s\n", k, val)
		}
		for k, val := range v.Properties {
			fmt.Fprintf(w, "  property: %s=%s\n", k, val)
		}
	}
	return nil
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
