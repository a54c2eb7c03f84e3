package repository

import (
	"math"
	"strings"
	"testing"
	"time"

	"StockPredictor/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildBarInsert(t *testing.T) {
	fetched := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	d1 := time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)
	bars := []models.Bar{
		{Date: d1, Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 100},
		{},
		{Date: d2, Open: 2, High: 3, Low: 1, Close: 2.5, Volume: math.NaN()},
	}

	q, args := buildBarInsert("price_bars", "6501.T", "1d", fetched, bars)

	assert.True(t, strings.HasPrefix(q, "INSERT INTO price_bars (ticker, interval, d, o, h, l, c, v, fetched_at) VALUES "))
	assert.Equal(t, 2, strings.Count(q, "(?, ?, ?, ?, ?, ?, ?, ?, ?)"))
	require.Len(t, args, 18)
	assert.Equal(t, "6501.T", args[0])
	assert.Equal(t, "1d", args[1])
	assert.Equal(t, d1, args[2])
	assert.Equal(t, 1.5, args[6])
	assert.Equal(t, fetched, args[8])
	assert.Equal(t, d2, args[11])
	assert.True(t, math.IsNaN(args[16].(float64)))
}

func TestBuildBarInsertWithoutDates(t *testing.T) {
	q, args := buildBarInsert("price_bars", "X", "1d", time.Now(), []models.Bar{{Close: 1}})
	assert.Empty(t, q)
	assert.Nil(t, args)
}

func TestBarSchema(t *testing.T) {
	stmts := BarSchema("stocks", "")
	require.Len(t, stmts, 2)
	assert.Equal(t, "CREATE DATABASE IF NOT EXISTS stocks", stmts[0])
	assert.Contains(t, stmts[1], "CREATE TABLE IF NOT EXISTS stocks.price_bars")
	assert.Contains(t, stmts[1], "ReplacingMergeTree(fetched_at)")

	stmts = BarSchema("", "bars")
	require.Len(t, stmts, 1)
	assert.Contains(t, stmts[0], "CREATE TABLE IF NOT EXISTS bars (")
}
