package esx

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cardvault-api/internal/config"
)

func TestOpen_Disabled(t *testing.T) {
	cfg := config.FromEnv()
	cfg.ES.Addrs = "  "
	c, closeFn, err := Open(cfg)
	require.NoError(t, err)
	defer closeFn()
	assert.Nil(t, c)

	res, err := c.Search(context.Background(), uuid.New(), "", "bolt", 0, 10)
	require.NoError(t, err)
	assert.Empty(t, res.Hits)
	assert.NoError(t, c.IndexEntity(context.Background(), EntityDoc{ID: uuid.New()}))
	assert.NoError(t, c.DeleteEntity(context.Background(), uuid.New()))
}

func TestSearchBody_FiltersOwnerAndKind(t *testing.T) {
	owner := uuid.New()
	b, err := json.Marshal(searchBody(owner, "deck", "burn"))
	require.NoError(t, err)
	assert.Contains(t, string(b), `"owner_id":"`+owner.String()+`"`)
	assert.Contains(t, string(b), `"kind":"deck"`)
	assert.Contains(t, string(b), `"query":"burn"`)

	b, err = json.Marshal(searchBody(owner, "", "burn"))
	require.NoError(t, err)
	assert.NotContains(t, string(b), `"kind"`)
}
