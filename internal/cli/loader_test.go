package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reckon-io/reckon/internal/store"
)

const validDefs = `
types:
  - id: payment
    label: Payment
    target_entity_type: account
    transactor: balance
    settings:
      amount: field_amount
      balance: field_balance
    bundles: [savings, checking]
  - id: audit
    label: Audit
    target_entity_type: account
    transactor: generic

operations:
  - id: withdrawal
    transaction_type: payment
    description: "Withdrawal #[transaction:id]"
    details:
      - "Amount: [transaction:field:field_amount]"
`

func writeDefs(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "types.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefinitions(t *testing.T) {
	defs, err := LoadDefinitions(writeDefs(t, validDefs))
	require.NoError(t, err)

	require.Len(t, defs.Types, 2)
	assert.Equal(t, "payment", defs.Types[0].ID)
	assert.Equal(t, "field_amount", defs.Types[0].Settings["amount"])
	assert.Equal(t, []string{"savings", "checking"}, defs.Types[0].Bundles)

	require.Len(t, defs.Operations, 1)
	assert.Equal(t, "payment", defs.Operations[0].TransactionType)
}

func TestLoadDefinitions_MissingFile(t *testing.T) {
	_, err := LoadDefinitions(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadDefinitions_UnknownTransactor(t *testing.T) {
	_, err := LoadDefinitions(writeDefs(t, `
types:
  - id: broken
    target_entity_type: account
    transactor: time_machine
`))
	assert.ErrorContains(t, err, "unknown transactor")
}

func TestLoadDefinitions_MissingRequiredSetting(t *testing.T) {
	_, err := LoadDefinitions(writeDefs(t, `
types:
  - id: broken
    target_entity_type: account
    transactor: balance
    settings:
      amount: field_amount
`))
	assert.ErrorContains(t, err, "required setting")
}

func TestLoadDefinitions_OperationForUnknownType(t *testing.T) {
	_, err := LoadDefinitions(writeDefs(t, `
types:
  - id: payment
    target_entity_type: account
    transactor: generic
operations:
  - id: op
    transaction_type: elsewhere
    description: d
`))
	assert.ErrorContains(t, err, "unknown transaction_type")
}

func TestLoadDefinitions_DuplicateType(t *testing.T) {
	_, err := LoadDefinitions(writeDefs(t, `
types:
  - id: twice
    target_entity_type: account
    transactor: generic
  - id: twice
    target_entity_type: account
    transactor: generic
`))
	assert.ErrorContains(t, err, "declared twice")
}

func TestDefinitions_Apply(t *testing.T) {
	defs, err := LoadDefinitions(writeDefs(t, validDefs))
	require.NoError(t, err)

	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	require.NoError(t, defs.Apply(ctx, st))

	types, err := st.ListTransactionTypes(ctx)
	require.NoError(t, err)
	require.Len(t, types, 2)

	op, err := st.LoadOperation(ctx, "withdrawal", "payment")
	require.NoError(t, err)
	assert.Equal(t, "Withdrawal #[transaction:id]", op.Description)

	// Re-apply is an upsert, not an error.
	require.NoError(t, defs.Apply(ctx, st))
}
