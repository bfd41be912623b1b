// Package token renders operation templates: plain strings with
// [transaction:*] and [target:*] placeholders substituted from a
// transaction and its target record.
//
// Templates use the form [context:path], e.g. "[transaction:type]
// #[transaction:id]". The target context answers both to "target" and
// to the target's entity type name, so a template bound to an "account"
// target may write [account:name]. Tokens in a known context that do
// not resolve are cleared; anything else is left literal.
package token

import (
	"strconv"
	"strings"
	"time"

	"github.com/reckon-io/reckon/internal/entity"
)

// Render substitutes all resolvable tokens in template. tx and target
// may be nil; their tokens then clear to the empty string.
func Render(template string, tx *entity.Transaction, target *entity.TargetRecord) string {
	var b strings.Builder
	b.Grow(len(template))

	rest := template
	for {
		open := strings.IndexByte(rest, '[')
		if open < 0 {
			b.WriteString(rest)
			return b.String()
		}
		closing := strings.IndexByte(rest[open:], ']')
		if closing < 0 {
			b.WriteString(rest)
			return b.String()
		}
		closing += open

		b.WriteString(rest[:open])
		inner := rest[open+1 : closing]

		if value, known := resolve(inner, tx, target); known {
			b.WriteString(value)
		} else {
			// Unknown context: leave the bracketed text literal.
			b.WriteString(rest[open : closing+1])
		}
		rest = rest[closing+1:]
	}
}

// resolve evaluates a single token body ("context:path"). The second
// return is false when the context is not recognized at all.
func resolve(inner string, tx *entity.Transaction, target *entity.TargetRecord) (string, bool) {
	context, path, ok := strings.Cut(inner, ":")
	if !ok {
		return "", false
	}

	switch {
	case context == "transaction":
		if tx == nil {
			return "", true
		}
		return transactionToken(path, tx), true

	case context == "target" || (target != nil && context == target.EntityType):
		if target == nil {
			return "", true
		}
		return targetToken(path, target), true
	}

	return "", false
}

func transactionToken(path string, tx *entity.Transaction) string {
	switch path {
	case "id":
		if tx.ID == 0 {
			return ""
		}
		return strconv.FormatInt(tx.ID, 10)
	case "uuid":
		return tx.UUID
	case "type":
		// The type label when configuration is attached, else the id.
		if cfg := tx.TypeConfig(); cfg != nil && cfg.Label != "" {
			return cfg.Label
		}
		return tx.Type
	case "operation":
		return tx.Operation
	case "owner":
		return tx.OwnerID
	case "created":
		return tx.Created.UTC().Format(time.RFC3339)
	case "executed":
		if tx.Executed == nil {
			return ""
		}
		return tx.Executed.UTC().Format(time.RFC3339)
	case "executor", "executor:target_id":
		return tx.ExecutorID
	case "result":
		if tx.ResultCode == 0 {
			return ""
		}
		return strconv.Itoa(tx.ResultCode)
	}

	if name, ok := strings.CutPrefix(path, "field:"); ok {
		return tx.Field(name)
	}
	if name, ok := strings.CutPrefix(path, "property:"); ok {
		return tx.Property(name)
	}
	return ""
}

func targetToken(path string, target *entity.TargetRecord) string {
	switch path {
	case "id":
		return target.ID
	case "type":
		return target.EntityType
	case "bundle":
		return target.Bundle
	case "name":
		return target.Name
	}

	if name, ok := strings.CutPrefix(path, "field:"); ok {
		return target.Field(name)
	}
	return ""
}
