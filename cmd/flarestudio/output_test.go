package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flarestudio/internal/domain/entity"
)

func TestPrintTableAligns(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printTable(&buf, []string{"NAME", "ADDRESS"}, [][]string{{"FtsoManager", "0x01"}}))
	assert.Equal(t, "NAME         ADDRESS\nFtsoManager  0x01\n", buf.String())
}

func TestPrintJSONQuote(t *testing.T) {
	var buf bytes.Buffer
	q := entity.PriceQuote{Symbol: "BTC", Network: "flare", Price: 65123.45, RawPrice: "6512345", Decimals: 2, Timestamp: time.Unix(0, 0).UTC()}
	require.NoError(t, printJSON(&buf, q))
	assert.Contains(t, buf.String(), `"rawPrice": "6512345"`)
	assert.Contains(t, buf.String(), `"price": 65123.45`)
}

func TestExactPrice(t *testing.T) {
	q := entity.PriceQuote{Price: 0.000012345678901234, RawPrice: "12345678901234", Decimals: 18}
	assert.Equal(t, "0.000012345678901234", exactPrice(q))

	q = entity.PriceQuote{Price: 65123.45, RawPrice: "6512345", Decimals: 2}
	assert.Equal(t, "65123.45", exactPrice(q))

	q = entity.PriceQuote{Price: 1.5, RawPrice: "not-a-number", Decimals: 2}
	assert.Equal(t, "1.5", exactPrice(q))
}

func TestRootCommandTree(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"serve", "price", "prices", "symbols", "epoch", "resolve", "contracts", "probe"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}
	assert.NotNil(t, root.PersistentFlags().Lookup("network"))
	assert.NotNil(t, root.PersistentFlags().Lookup("json"))
}

func TestLoadConfigDefaultsWhenFileMissing(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CONFIG_PATH", "")
	cfg, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "flare", cfg.ActiveNetwork)
}
